package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/mocks"
	"chat-gateway/internal/models"
	"chat-gateway/internal/repositories"
)

func relayFixture(t *testing.T) (*Relay, *mocks.ProfileRepositoryMock, *Session, *fakeConn) {
	t.Helper()
	registry := NewRegistry()
	profiles := new(mocks.ProfileRepositoryMock)

	caller := testSession("c1", "u1", "", &fakeConn{})
	calleeConn := &fakeConn{}
	callee := testSession("c2", "u2", "", calleeConn)
	registry.Add(caller)
	registry.Add(callee)

	return NewRelay(registry, profiles), profiles, caller, calleeConn
}

func TestCallUserForwardsResolvedDisplayName(t *testing.T) {
	relay, profiles, caller, calleeConn := relayFixture(t)
	profiles.On("GetProfile", mock.Anything, "u1").Return(models.Profile{UserID: "u1", DisplayName: "Dr. Shepherd"}, nil).Once()

	err := relay.CallUser(context.Background(), caller, models.CallUserPayload{
		From:       "u1",
		UserToCall: "u2",
		SignalData: json.RawMessage(`{"sdp":"offer"}`),
	})

	require.NoError(t, err)
	frames := calleeConn.named(models.EventCallMade)
	require.Len(t, frames, 1)
	require.Equal(t, "Dr. Shepherd", payloadField(frames[0], "callerName"))
	require.Equal(t, "u1", payloadField(frames[0], "from"))
	profiles.AssertExpectations(t)
}

func TestCallUserFallsBackToRawIDWhenProfileMissing(t *testing.T) {
	relay, profiles, caller, calleeConn := relayFixture(t)
	profiles.On("GetProfile", mock.Anything, "u1").Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	err := relay.CallUser(context.Background(), caller, models.CallUserPayload{From: "u1", UserToCall: "u2"})

	require.NoError(t, err)
	frames := calleeConn.named(models.EventCallMade)
	require.Len(t, frames, 1)
	require.Equal(t, "u1", payloadField(frames[0], "callerName"))
}

func TestCallUserToAbsentCalleeIsFireAndForget(t *testing.T) {
	relay, profiles, caller, calleeConn := relayFixture(t)
	profiles.On("GetProfile", mock.Anything, "u1").Return(models.Profile{UserID: "u1", DisplayName: "Dr. Shepherd"}, nil).Once()

	err := relay.CallUser(context.Background(), caller, models.CallUserPayload{From: "u1", UserToCall: "u9"})

	require.NoError(t, err)
	require.Zero(t, calleeConn.count())
}

func TestAcceptCallForwardsSignalToCaller(t *testing.T) {
	registry := NewRegistry()
	callerConn := &fakeConn{}
	caller := testSession("c1", "u1", "", callerConn)
	callee := testSession("c2", "u2", "", &fakeConn{})
	registry.Add(caller)
	registry.Add(callee)
	relay := NewRelay(registry, new(mocks.ProfileRepositoryMock))

	relay.AcceptCall(callee, models.AcceptCallPayload{To: "u1", Signal: json.RawMessage(`{"sdp":"answer"}`)})

	require.Len(t, callerConn.named(models.EventCallAccepted), 1)
}

func TestEndCallNotifiesPeer(t *testing.T) {
	registry := NewRegistry()
	peerConn := &fakeConn{}
	peer := testSession("c2", "u2", "", peerConn)
	caller := testSession("c1", "u1", "", &fakeConn{})
	registry.Add(peer)
	registry.Add(caller)
	relay := NewRelay(registry, new(mocks.ProfileRepositoryMock))

	relay.EndCall(caller, models.EndCallPayload{To: "u2"})

	frames := peerConn.named(models.EventCallEnded)
	require.Len(t, frames, 1)
	require.Equal(t, "u1", payloadField(frames[0], "from"))
}

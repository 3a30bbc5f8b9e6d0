package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-gateway/internal/models"
)

func presenceFixture(t *testing.T) (*Presence, *manualTimerFactory, *Session, *fakeConn, *fakeConn) {
	t.Helper()
	registry := NewRegistry()
	factory := &manualTimerFactory{}
	presence := NewPresence(registry, 5*time.Minute)
	presence.SetTimerFactory(factory.New)

	connA := &fakeConn{}
	connB := &fakeConn{}
	sessA := testSession("c1", "u1", "", connA)
	sessB := testSession("c2", "u2", "", connB)
	registry.Add(sessA)
	registry.Add(sessB)
	return presence, factory, sessA, connA, connB
}

func TestOnlineBroadcastsToOthersOnly(t *testing.T) {
	presence, _, sessA, connA, connB := presenceFixture(t)

	presence.Online(sessA)

	require.Zero(t, connA.count())
	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 1)
	require.Equal(t, "u1", payloadField(frames[0], "userId"))
	require.Equal(t, models.StatusOnline, payloadField(frames[0], "status"))
}

func TestInactivityTimeoutBroadcastsAwayOnce(t *testing.T) {
	presence, factory, sessA, _, connB := presenceFixture(t)

	presence.Online(sessA)
	factory.last().fire()

	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 2)
	require.Equal(t, models.StatusAway, payloadField(frames[1], "status"))
}

func TestActivityResetsWindowWithoutBroadcast(t *testing.T) {
	presence, factory, sessA, _, connB := presenceFixture(t)

	presence.Online(sessA)
	first := factory.last()
	presence.Activity(sessA)

	require.True(t, first.stopped)
	// A stale fire of the replaced timer must not mark the user away.
	first.fire()
	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 1)

	factory.last().fire()
	frames = connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 2)
	require.Equal(t, models.StatusAway, payloadField(frames[1], "status"))
}

func TestExplicitOfflineCancelsTimer(t *testing.T) {
	presence, factory, sessA, _, connB := presenceFixture(t)

	presence.Online(sessA)
	presence.Offline(sessA)

	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 2)
	require.Equal(t, models.StatusOffline, payloadField(frames[1], "status"))

	factory.last().fire()
	require.Len(t, connB.named(models.EventUserStatusChanged), 2)
}

func TestDisconnectBroadcastsOfflineExactlyOnce(t *testing.T) {
	presence, factory, sessA, _, connB := presenceFixture(t)

	presence.Online(sessA)
	factory.last().fire() // user is away
	presence.Disconnect(sessA)

	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 3)
	require.Equal(t, models.StatusOffline, payloadField(frames[2], "status"))
}

// Disconnect always announces offline, even for a connection that never sent
// user-online. Watchers may have seen the user through an earlier connection,
// so the terminal status is broadcast unconditionally.
func TestDisconnectWithoutOnlineStillBroadcastsOffline(t *testing.T) {
	presence, _, sessA, connA, connB := presenceFixture(t)

	presence.Disconnect(sessA)

	require.Zero(t, connA.count())
	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 1)
	require.Equal(t, "u1", payloadField(frames[0], "userId"))
	require.Equal(t, models.StatusOffline, payloadField(frames[0], "status"))
}

func TestNoBroadcastAfterDisconnect(t *testing.T) {
	presence, factory, sessA, _, connB := presenceFixture(t)

	presence.Online(sessA)
	pending := factory.last()
	presence.Disconnect(sessA)
	pending.fire()

	frames := connB.named(models.EventUserStatusChanged)
	require.Len(t, frames, 2) // online then offline, never away
	require.Equal(t, models.StatusOffline, payloadField(frames[1], "status"))
}

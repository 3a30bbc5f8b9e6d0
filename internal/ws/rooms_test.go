package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomsJoinIsIdempotent(t *testing.T) {
	rooms := NewRooms()
	sess := testSession("c1", "u1", "", &fakeConn{})

	rooms.Join(sess, "conv-1")
	rooms.Join(sess, "conv-1")

	require.Equal(t, 1, rooms.MemberCount("conv-1"))
}

func TestRoomsBroadcastSkipsExcludedConnection(t *testing.T) {
	rooms := NewRooms()
	connA := &fakeConn{}
	connB := &fakeConn{}
	sessA := testSession("c1", "u1", "", connA)
	sessB := testSession("c2", "u2", "", connB)
	rooms.Join(sessA, "conv-1")
	rooms.Join(sessB, "conv-1")

	rooms.Broadcast("conv-1", "receive-message", map[string]any{"text": "hi"}, sessA.ID)

	require.Zero(t, connA.count())
	require.Len(t, connB.named("receive-message"), 1)
}

func TestRoomsBroadcastReachesAllWithoutExclusion(t *testing.T) {
	rooms := NewRooms()
	connA := &fakeConn{}
	connB := &fakeConn{}
	rooms.Join(testSession("c1", "u1", "", connA), "conv-1")
	rooms.Join(testSession("c2", "u2", "", connB), "conv-1")

	rooms.Broadcast("conv-1", "message-deleted", map[string]any{"messageId": "m1"}, "")

	require.Len(t, connA.named("message-deleted"), 1)
	require.Len(t, connB.named("message-deleted"), 1)
}

func TestRoomsBroadcastScopedToRoom(t *testing.T) {
	rooms := NewRooms()
	connA := &fakeConn{}
	connB := &fakeConn{}
	rooms.Join(testSession("c1", "u1", "", connA), "conv-1")
	rooms.Join(testSession("c2", "u2", "", connB), "conv-2")

	rooms.Broadcast("conv-1", "receive-message", nil, "")

	require.Equal(t, 1, connA.count())
	require.Zero(t, connB.count())
}

func TestRoomsSweepRemovesConnectionEverywhere(t *testing.T) {
	rooms := NewRooms()
	sess := testSession("c1", "u1", "", &fakeConn{})
	rooms.Join(sess, "conv-1")
	rooms.Join(sess, "conv-2")

	rooms.Sweep(sess.ID)

	require.Zero(t, rooms.MemberCount("conv-1"))
	require.Zero(t, rooms.MemberCount("conv-2"))
}

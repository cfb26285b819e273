package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
)

const (
	me   = "viewer-1"
	peer = "peer-1"
)

func at(sec int) time.Time {
	return time.Date(2025, 3, 1, 12, 0, sec, 0, time.UTC)
}

func msg(id string, rideID uint64, sender string, recipient *string, t time.Time) model.Message {
	return model.Message{ID: id, RideID: rideID, SenderID: sender, RecipientID: recipient, Body: "hi", CreatedAt: t}
}

func ptr(s string) *string { return &s }

// newestFirst sorts a copy of msgs descending by created_at, matching
// the order the inbox query delivers.
func newestFirst(msgs []model.Message) []model.Message {
	out := append([]model.Message{}, msgs...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func TestDeriveConversationsUnreadAndLastMessage(t *testing.T) {
	// A(peer→me, t=1), B(me→peer, t=2), C(peer→me, t=3); no marker.
	log := []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 10, me, ptr(peer), at(2)),
		msg("c", 10, peer, ptr(me), at(3)),
	}

	conversations, unread := DeriveConversations(newestFirst(log), nil, me)

	require.Len(t, conversations, 1)
	key := model.ThreadKey{RideID: 10, PeerID: peer}
	assert.Equal(t, "c", conversations[0].LastMessage.ID)
	assert.Equal(t, 2, conversations[0].UnreadCount)
	assert.Equal(t, 2, unread[key])
}

func TestDeriveConversationsReadMarker(t *testing.T) {
	log := []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 10, me, ptr(peer), at(2)),
		msg("c", 10, peer, ptr(me), at(3)),
	}
	markers := []model.ReadMarker{
		{RideID: 10, ViewerID: me, PeerID: peer, LastReadAt: at(4)},
	}

	conversations, unread := DeriveConversations(newestFirst(log), markers, me)
	require.Len(t, conversations, 1)
	assert.Equal(t, 0, conversations[0].UnreadCount)
	assert.Equal(t, 0, unread[model.ThreadKey{RideID: 10, PeerID: peer}])

	// A new peer message after the marker makes unread 1, independent of
	// the prior history.
	log = append(log, msg("d", 10, peer, ptr(me), at(5)))
	conversations, unread = DeriveConversations(newestFirst(log), markers, me)
	require.Len(t, conversations, 1)
	assert.Equal(t, "d", conversations[0].LastMessage.ID)
	assert.Equal(t, 1, unread[model.ThreadKey{RideID: 10, PeerID: peer}])
}

func TestDeriveConversationsIgnoresOtherViewersMarkers(t *testing.T) {
	log := []model.Message{msg("a", 10, peer, ptr(me), at(1))}
	markers := []model.ReadMarker{
		{RideID: 10, ViewerID: "someone-else", PeerID: peer, LastReadAt: at(9)},
	}
	_, unread := DeriveConversations(newestFirst(log), markers, me)
	assert.Equal(t, 1, unread[model.ThreadKey{RideID: 10, PeerID: peer}])
}

func TestDeriveConversationsSkipsBroadcasts(t *testing.T) {
	log := []model.Message{
		msg("a", 10, peer, nil, at(1)), // broadcast from peer
		msg("b", 10, me, nil, at(2)),   // broadcast from viewer
	}
	conversations, unread := DeriveConversations(newestFirst(log), nil, me)
	assert.Empty(t, conversations)
	assert.Empty(t, unread)

	// Broadcast from an unknown sender still threads under that sender,
	// since the viewer is not its author.
	log = append(log, msg("c", 10, "other", nil, at(3)))
	conversations, _ = DeriveConversations(newestFirst(log), nil, me)
	require.Len(t, conversations, 1)
	assert.Equal(t, "other", conversations[0].PeerID)
}

func TestDeriveConversationsSeparatesThreadsPerRideAndPeer(t *testing.T) {
	log := []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 11, peer, ptr(me), at(2)),
		msg("c", 10, "peer-2", ptr(me), at(3)),
	}
	conversations, unread := DeriveConversations(newestFirst(log), nil, me)
	assert.Len(t, conversations, 3)
	assert.Equal(t, 1, unread[model.ThreadKey{RideID: 10, PeerID: peer}])
	assert.Equal(t, 1, unread[model.ThreadKey{RideID: 11, PeerID: peer}])
	assert.Equal(t, 1, unread[model.ThreadKey{RideID: 10, PeerID: "peer-2"}])
}

// fakeInboxStore keeps messages and markers in memory and mimics the
// repository's ordering contracts.
type fakeInboxStore struct {
	messages []model.Message
	markers  map[model.ThreadKey]model.ReadMarker
	inserts  int
}

func newFakeInboxStore() *fakeInboxStore {
	return &fakeInboxStore{markers: map[model.ThreadKey]model.ReadMarker{}}
}

func (f *fakeInboxStore) ListInbox(_ context.Context, viewerID string) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.messages {
		if m.SenderID == viewerID || (m.RecipientID != nil && *m.RecipientID == viewerID) {
			out = append(out, m)
		}
	}
	return newestFirst(out), nil
}

func (f *fakeInboxStore) ListByRide(_ context.Context, rideID uint64, viewerID string) ([]model.Message, error) {
	out := []model.Message{}
	for _, m := range f.messages {
		if m.RideID != rideID {
			continue
		}
		if m.SenderID == viewerID || m.RecipientID == nil || *m.RecipientID == viewerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeInboxStore) ListReadMarkers(_ context.Context, viewerID string) ([]model.ReadMarker, error) {
	out := []model.ReadMarker{}
	for _, m := range f.markers {
		if m.ViewerID == viewerID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeInboxStore) Insert(_ context.Context, m *model.Message) error {
	f.inserts++
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeInboxStore) UpsertReadMarker(_ context.Context, rideID uint64, viewerID, peerID string, atTime time.Time) error {
	key := model.ThreadKey{RideID: rideID, PeerID: peerID}
	existing, ok := f.markers[key]
	if ok && existing.LastReadAt.After(atTime) {
		return nil // monotonic, like GREATEST in the real repository
	}
	f.markers[key] = model.ReadMarker{RideID: rideID, ViewerID: viewerID, PeerID: peerID, LastReadAt: atTime}
	return nil
}

func TestMarkThreadReadClearsUnreadOnNextPass(t *testing.T) {
	store := newFakeInboxStore()
	store.messages = []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 10, me, ptr(peer), at(2)),
		msg("c", 10, peer, ptr(me), at(3)),
	}
	svc := NewInboxService(store, nil)
	svc.now = func() time.Time { return at(4) }

	ctx := context.Background()
	conversations, err := svc.Conversations(ctx, me)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 2, conversations[0].UnreadCount)

	require.NoError(t, svc.MarkThreadRead(ctx, me, 10, peer))
	// Repeating the commit is a no-op for observable unread counts.
	require.NoError(t, svc.MarkThreadRead(ctx, me, 10, peer))

	conversations, err = svc.Conversations(ctx, me)
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 0, conversations[0].UnreadCount)
}

func TestConversationsSortedByLastActivity(t *testing.T) {
	store := newFakeInboxStore()
	store.messages = []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 11, "peer-2", ptr(me), at(5)),
	}
	svc := NewInboxService(store, nil)

	conversations, err := svc.Conversations(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, "peer-2", conversations[0].PeerID)
	assert.Equal(t, peer, conversations[1].PeerID)
}

func TestThreadFiltersToTwoParties(t *testing.T) {
	store := newFakeInboxStore()
	store.messages = []model.Message{
		msg("a", 10, peer, ptr(me), at(1)),
		msg("b", 10, me, ptr(peer), at(2)),
		msg("c", 10, "peer-2", ptr(me), at(3)),
		msg("d", 10, peer, nil, at(4)), // broadcast, excluded
	}
	svc := NewInboxService(store, nil)

	thread, err := svc.Thread(context.Background(), me, 10, peer)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "a", thread[0].ID)
	assert.Equal(t, "b", thread[1].ID)
}

func TestSendValidatesInput(t *testing.T) {
	store := newFakeInboxStore()
	svc := NewInboxService(store, nil)

	_, err := svc.Send(context.Background(), me, 10, ptr(peer), "   ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, store.inserts)

	sent, err := svc.Send(context.Background(), me, 10, ptr(peer), "see you at 8")
	require.NoError(t, err)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, 1, store.inserts)
}

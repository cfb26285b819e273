package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
)

// InboxStore abstracts the message repository operations the inbox
// service needs. The concrete implementation is repository.MessageRepo;
// tests substitute an in-memory fake.
type InboxStore interface {
	ListInbox(ctx context.Context, viewerID string) ([]model.Message, error)
	ListByRide(ctx context.Context, rideID uint64, viewerID string) ([]model.Message, error)
	ListReadMarkers(ctx context.Context, viewerID string) ([]model.ReadMarker, error)
	Insert(ctx context.Context, m *model.Message) error
	UpsertReadMarker(ctx context.Context, rideID uint64, viewerID, peerID string, at time.Time) error
}

// DeriveConversations computes the per-peer conversation list and the
// unread lookup map from one snapshot of the flat message log and the
// viewer's read markers. The store keeps no conversation or unread
// entity; both are recomputed wholesale on every call, which keeps the
// function free of incremental-update drift.
//
// messages must be ordered most-recent-first: the first message seen
// for a (ride, peer) key is definitionally that conversation's latest
// and later occurrences only feed the unread tally. Broadcast messages
// (nil recipient) never form a conversation. A message counts as
// unread iff the peer authored it and it is strictly newer than the
// viewer's marker for the key, or no marker exists.
func DeriveConversations(messages []model.Message, markers []model.ReadMarker, viewerID string) ([]model.Conversation, map[model.ThreadKey]int) {
	lastReadAt := make(map[model.ThreadKey]time.Time, len(markers))
	for _, m := range markers {
		if m.ViewerID != viewerID {
			continue
		}
		lastReadAt[model.ThreadKey{RideID: m.RideID, PeerID: m.PeerID}] = m.LastReadAt
	}

	conversations := []model.Conversation{}
	index := map[model.ThreadKey]int{}
	unread := map[model.ThreadKey]int{}

	for _, msg := range messages {
		var peer string
		if msg.SenderID == viewerID {
			if msg.RecipientID == nil {
				continue
			}
			peer = *msg.RecipientID
		} else {
			peer = msg.SenderID
		}

		key := model.ThreadKey{RideID: msg.RideID, PeerID: peer}
		pos, seen := index[key]
		if !seen {
			pos = len(conversations)
			index[key] = pos
			conversations = append(conversations, model.Conversation{
				RideID:      msg.RideID,
				PeerID:      peer,
				LastMessage: msg,
			})
		}

		if msg.SenderID != viewerID {
			readAt, marked := lastReadAt[key]
			if !marked || msg.CreatedAt.After(readAt) {
				unread[key]++
				conversations[pos].UnreadCount = unread[key]
			}
		}
	}
	return conversations, unread
}

// InboxService derives conversation threads for a viewer and commits
// their read state. It holds no state between calls beyond an optional
// Redis snapshot cache; every derivation runs over a fresh snapshot of
// the log.
type InboxService struct {
	store InboxStore
	cache *InboxCache // nil disables caching
	now   func() time.Time
}

// NewInboxService returns an InboxService. cache may be nil, in which
// case every Conversations call recomputes from the store.
func NewInboxService(store InboxStore, cache *InboxCache) *InboxService {
	if store == nil {
		panic("nil store passed to NewInboxService")
	}
	return &InboxService{store: store, cache: cache, now: time.Now}
}

// Conversations returns the viewer's derived conversation list, most
// recently active thread first.
func (s *InboxService) Conversations(ctx context.Context, viewerID string) ([]model.Conversation, error) {
	if convs, ok := s.cache.Get(ctx, viewerID); ok {
		return convs, nil
	}
	messages, err := s.store.ListInbox(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	markers, err := s.store.ListReadMarkers(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	conversations, _ := DeriveConversations(messages, markers, viewerID)
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].LastMessage.CreatedAt.After(conversations[j].LastMessage.CreatedAt)
	})
	s.cache.Set(ctx, viewerID, conversations)
	return conversations, nil
}

// Thread returns the two-party message history between the viewer and
// peer for a ride, ascending by created_at. Broadcast rows are
// excluded, matching the conversation derivation.
func (s *InboxService) Thread(ctx context.Context, viewerID string, rideID uint64, peerID string) ([]model.Message, error) {
	all, err := s.store.ListByRide(ctx, rideID, viewerID)
	if err != nil {
		return nil, err
	}
	thread := []model.Message{}
	for _, m := range all {
		if m.RecipientID == nil {
			continue
		}
		if (m.SenderID == viewerID && *m.RecipientID == peerID) ||
			(m.SenderID == peerID && *m.RecipientID == viewerID) {
			thread = append(thread, m)
		}
	}
	return thread, nil
}

// Send appends a message to a ride thread and invalidates the cached
// inbox snapshots of both parties. recipientID may be nil for a
// broadcast message, which will never appear in any conversation.
func (s *InboxService) Send(ctx context.Context, senderID string, rideID uint64, recipientID *string, body string) (*model.Message, error) {
	if strings.TrimSpace(senderID) == "" {
		return nil, &ValidationError{Reason: "not authenticated"}
	}
	if strings.TrimSpace(body) == "" {
		return nil, &ValidationError{Reason: "message body is required"}
	}
	msg := &model.Message{
		ID:          uuid.New().String(),
		RideID:      rideID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Insert(ctx, msg); err != nil {
		return nil, err
	}
	if recipientID != nil {
		s.cache.Invalidate(ctx, senderID, *recipientID)
	} else {
		s.cache.Invalidate(ctx, senderID)
	}
	return msg, nil
}

// MarkThreadRead commits the viewer's read position for the (ride,
// peer) thread to now. The commit is idempotent: repeating it moves
// nothing backwards and the next aggregation pass reports zero unread
// for the key as long as no newer peer message has arrived.
func (s *InboxService) MarkThreadRead(ctx context.Context, viewerID string, rideID uint64, peerID string) error {
	if strings.TrimSpace(peerID) == "" {
		return &ValidationError{Reason: "peer_id is required"}
	}
	if err := s.store.UpsertReadMarker(ctx, rideID, viewerID, peerID, s.now().UTC()); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, viewerID)
	return nil
}

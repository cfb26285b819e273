package model

import "time"

// Message is one immutable row of the flat, append-only message log.
// Messages belong to the thread of the ride they were sent about and
// are never updated or deleted.  A nil RecipientID marks a broadcast
// (unaddressed) message: such rows are stored and listed but never
// contribute to per-peer conversations or unread counts.
//
// Fields:
//  ID          – UUID assigned by the sender at insert time.
//  RideID      – ride whose thread this message belongs to.
//  SenderID    – user who sent the message.
//  RecipientID – addressed peer, or nil for broadcast.
//  Body        – message text.
//  CreatedAt   – append timestamp in UTC (millisecond precision).
type Message struct {
	ID          string    `json:"id"`           // messages.id
	RideID      uint64    `json:"ride_id"`      // messages.ride_id
	SenderID    string    `json:"sender_id"`    // messages.sender_id
	RecipientID *string   `json:"recipient_id"` // messages.recipient_id (nullable)
	Body        string    `json:"body"`         // messages.body
	CreatedAt   time.Time `json:"created_at"`   // messages.created_at
}

// ReadMarker records how far a viewer has read a peer's messages in a
// ride thread.  At most one marker exists per (ride, viewer, peer)
// triple; commits overwrite it and LastReadAt is monotonically
// non-decreasing.
type ReadMarker struct {
	RideID     uint64    // message_reads.ride_id
	ViewerID   string    // message_reads.viewer_id
	PeerID     string    // message_reads.peer_id
	LastReadAt time.Time // message_reads.last_read_at
}

// ThreadKey identifies a two-party conversation: the ride thread plus
// the peer resolved relative to the viewer.
type ThreadKey struct {
	RideID uint64
	PeerID string
}

// Conversation is the derived per-peer view of a thread.  It is
// recomputed wholesale from the message log and the viewer's read
// markers on every aggregation pass and is never stored.
type Conversation struct {
	RideID      uint64  `json:"ride_id"`
	PeerID      string  `json:"peer_id"`
	LastMessage Message `json:"last_message"`
	UnreadCount int     `json:"unread_count"`
}

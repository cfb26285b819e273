package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/model"
)

// MessageRepo provides data access to the append-only messages log and
// the message_reads marker table. Messages are inserted once and never
// updated or deleted; read markers are upserted and move only forward
// in time. All timestamps are stored and compared in UTC.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo returns a new MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// Insert appends a message to the log. The caller supplies the id
// (a UUID) and CreatedAt; both are written verbatim.
func (r *MessageRepo) Insert(ctx context.Context, m *model.Message) error {
	const q = `INSERT INTO messages (id, ride_id, sender_id, recipient_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	var recipient any
	if m.RecipientID != nil {
		recipient = *m.RecipientID
	}
	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.RideID, m.SenderID, recipient, m.Body, m.CreatedAt.UTC())
	return err
}

const messageSelectColumns = `id, ride_id, sender_id, recipient_id, body, created_at`

// ListByRide returns every message of a ride thread that the viewer is
// allowed to see (sent by them, addressed to them, or broadcast),
// ascending by created_at. The source is append-only and unique-keyed,
// so no deduplication is needed here.
func (r *MessageRepo) ListByRide(ctx context.Context, rideID uint64, viewerID string) ([]model.Message, error) {
	query := `SELECT ` + messageSelectColumns + `
		FROM messages
		WHERE ride_id = ?
		  AND (sender_id = ? OR recipient_id = ? OR recipient_id IS NULL)
		ORDER BY created_at ASC`
	return r.listMessages(ctx, query, rideID, viewerID, viewerID)
}

// ListInbox returns every message sent by or addressed to the viewer
// across all rides, most recent first. The descending order matters:
// the conversation aggregator treats the first message it sees for a
// (ride, peer) key as that conversation's latest message.
func (r *MessageRepo) ListInbox(ctx context.Context, viewerID string) ([]model.Message, error) {
	query := `SELECT ` + messageSelectColumns + `
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
		ORDER BY created_at DESC`
	return r.listMessages(ctx, query, viewerID, viewerID)
}

func (r *MessageRepo) listMessages(ctx context.Context, query string, args ...any) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Message{}
	for rows.Next() {
		var m model.Message
		var recipient sql.NullString
		if err := rows.Scan(&m.ID, &m.RideID, &m.SenderID, &recipient, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		if recipient.Valid {
			rec := recipient.String
			m.RecipientID = &rec
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListReadMarkers returns all of the viewer's read markers.
func (r *MessageRepo) ListReadMarkers(ctx context.Context, viewerID string) ([]model.ReadMarker, error) {
	const q = `SELECT ride_id, viewer_id, peer_id, last_read_at
		FROM message_reads
		WHERE viewer_id = ?`
	rows, err := r.db.QueryContext(ctx, q, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ReadMarker{}
	for rows.Next() {
		var m model.ReadMarker
		if err := rows.Scan(&m.RideID, &m.ViewerID, &m.PeerID, &m.LastReadAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertReadMarker commits the viewer's read position for a (ride,
// peer) thread. GREATEST keeps last_read_at monotonically
// non-decreasing even if a stale client clock sends an older
// timestamp, which makes the commit idempotent with respect to
// observable unread counts.
func (r *MessageRepo) UpsertReadMarker(ctx context.Context, rideID uint64, viewerID, peerID string, at time.Time) error {
	const q = `INSERT INTO message_reads (ride_id, viewer_id, peer_id, last_read_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE last_read_at = GREATEST(last_read_at, VALUES(last_read_at))`
	_, err := r.db.ExecContext(ctx, q, rideID, viewerID, peerID, at.UTC())
	return err
}

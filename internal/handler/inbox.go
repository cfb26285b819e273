package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/queue"
	"github.com/convoiexpress95-beep/Fleetcheeckss-sub003/internal/service"
)

// InboxHandler exposes the derived conversation views over HTTP: the
// inbox listing, per-peer thread history, message send and the
// read-state commit. Everything here requires an authenticated user;
// JWT middleware has already populated the context.
type InboxHandler struct {
	Inbox *service.InboxService
}

// NewInboxHandler constructs a new InboxHandler. The service must be
// non-nil.
func NewInboxHandler(inbox *service.InboxService) *InboxHandler {
	if inbox == nil {
		panic("nil service passed to NewInboxHandler")
	}
	return &InboxHandler{Inbox: inbox}
}

// GetInbox handles GET /v1/inbox. It returns the viewer's per-peer
// conversations, most recently active first, each carrying its last
// message and unread count.
func (h *InboxHandler) GetInbox(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	conversations, err := h.Inbox.Conversations(c.Request().Context(), viewerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"conversations": conversations})
}

// GetThread handles GET /v1/rides/:id/messages?peer=<user>. It returns
// the two-party history ascending by time and then commits the
// viewer's read marker for the thread, so the next inbox derivation
// reports zero unread for this peer.
func (h *InboxHandler) GetThread(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rideID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rideID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	peerID := c.QueryParam("peer")
	if peerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "peer is required"})
	}
	ctx := c.Request().Context()
	messages, err := h.Inbox.Thread(ctx, viewerID, rideID, peerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.Inbox.MarkThreadRead(ctx, viewerID, rideID, peerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark thread read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": messages})
}

// SendMessage handles POST /v1/rides/:id/messages. The body must
// contain "body" and may contain "recipient_id"; omitting the
// recipient appends a broadcast message that never shows up in any
// conversation. A message.sent event is published best-effort for the
// external notification service.
func (h *InboxHandler) SendMessage(c echo.Context) error {
	senderID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rideID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rideID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	var body struct {
		RecipientID *string `json:"recipient_id"`
		Body        string  `json:"body"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	msg, err := h.Inbox.Send(ctx, senderID, rideID, body.RecipientID, body.Body)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	_ = queue.PublishMessageSent(ctx, queue.MessageSentEvent{
		MessageID:   msg.ID,
		RideID:      msg.RideID,
		SenderID:    msg.SenderID,
		RecipientID: msg.RecipientID,
		SentAt:      msg.CreatedAt.Format(time.RFC3339Nano),
	})

	return c.JSON(http.StatusCreated, msg)
}

// MarkThreadRead handles POST /v1/rides/:id/read with a JSON body
// containing "peer_id". The commit is idempotent; calling it twice in
// a row changes nothing observable.
func (h *InboxHandler) MarkThreadRead(c echo.Context) error {
	viewerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rideID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || rideID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ride id"})
	}
	var body struct {
		PeerID string `json:"peer_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Inbox.MarkThreadRead(c.Request().Context(), viewerID, rideID, body.PeerID); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

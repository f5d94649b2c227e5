package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tripio/travel-marketplace/internal/model"
	"github.com/tripio/travel-marketplace/internal/repository"
)

// ChatHandler implements buyer↔seller messaging.  Messages are
// persisted through the conversation repository and fanned out live
// over Redis pub/sub; Stream exposes the subscription as Server-Sent
// Events.  When Redis is unavailable the REST endpoints keep working
// and only live delivery degrades.
type ChatHandler struct {
	Conversations *repository.ConversationRepo
	Users         *repository.UserRepo
	Redis         *redis.Client // may be nil; live delivery disabled
}

func NewChatHandler(conv *repository.ConversationRepo, users *repository.UserRepo, rdb *redis.Client) *ChatHandler {
	if conv == nil || users == nil {
		panic("nil repository passed to NewChatHandler")
	}
	return &ChatHandler{Conversations: conv, Users: users, Redis: rdb}
}

func chatChannel(conversationID uint64) string {
	return fmt.Sprintf("chat:%d", conversationID)
}

type startConversationReq struct {
	ReceiverID uint64  `json:"receiver_id"`
	PackageID  *uint64 `json:"package_id"`
	Message    string  `json:"message"`
}

// Start handles POST /v1/conversations.  It finds or creates the
// thread with the receiver and, when a message is included, sends it
// in the same call.
func (h *ChatHandler) Start(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req startConversationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ReceiverID == 0 || req.ReceiverID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid receiver_id"})
	}

	ctx := c.Request().Context()

	if _, err := h.Users.GetByID(ctx, req.ReceiverID); err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	conv, err := h.Conversations.GetOrCreate(ctx, userID, req.ReceiverID, req.PackageID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open conversation"})
	}

	if msg := strings.TrimSpace(req.Message); msg != "" {
		if _, err := h.deliver(c, conv, userID, msg, ""); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"conversation_id": conv.ID})
}

// List handles GET /v1/conversations: the caller's inbox with last
// messages and unread counts.
func (h *ChatHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Conversations.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load conversations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Messages handles GET /v1/conversations/:id/messages.  Fetching a
// page marks the other party's messages as read.
func (h *ChatHandler) Messages(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	ctx := c.Request().Context()

	if _, err := h.Conversations.GetForUser(ctx, convID, userID); err != nil {
		return chatAccessError(c, err)
	}

	page, pageSize := pageParams(c)
	msgs, err := h.Conversations.ListMessages(ctx, convID, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load messages"})
	}
	_ = h.Conversations.MarkRead(ctx, convID, userID)

	return c.JSON(http.StatusOK, echo.Map{
		"items":     msgs,
		"page":      page,
		"page_size": pageSize,
	})
}

type sendMessageReq struct {
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url"`
}

// Send handles POST /v1/conversations/:id/messages.
func (h *ChatHandler) Send(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && strings.TrimSpace(req.AttachmentURL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content or attachment_url required"})
	}

	ctx := c.Request().Context()
	conv, err := h.Conversations.GetForUser(ctx, convID, userID)
	if err != nil {
		return chatAccessError(c, err)
	}

	msg, err := h.deliver(c, conv, userID, content, strings.TrimSpace(req.AttachmentURL))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message_id": msg.ID})
}

// deliver persists a message and publishes it to the conversation's
// Redis channel for live subscribers.  Publish failures are swallowed:
// the message is durable either way.
func (h *ChatHandler) deliver(c echo.Context, conv model.Conversation, senderID uint64, content, attachmentURL string) (model.Message, error) {
	msg := model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		AttachmentURL:  attachmentURL,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.Conversations.CreateMessage(c.Request().Context(), &msg); err != nil {
		return model.Message{}, err
	}
	if h.Redis != nil {
		if payload, err := json.Marshal(msg); err == nil {
			_ = h.Redis.Publish(c.Request().Context(), chatChannel(conv.ID), payload).Err()
		}
	}
	return msg, nil
}

// Stream handles GET /v1/conversations/:id/stream.  It subscribes to
// the conversation's Redis channel and relays messages to the client
// as Server-Sent Events until the client disconnects.
func (h *ChatHandler) Stream(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	convID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
	}
	if h.Redis == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live chat unavailable"})
	}

	ctx := c.Request().Context()
	if _, err := h.Conversations.GetForUser(ctx, convID, userID); err != nil {
		return chatAccessError(c, err)
	}

	sub := h.Redis.Subscribe(ctx, chatChannel(convID))
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	// Periodic comments keep intermediaries from closing an idle
	// stream.
	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepalive.C:
			if _, err := fmt.Fprint(res, ": keepalive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", m.Payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func chatAccessError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrConversationNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
	}
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

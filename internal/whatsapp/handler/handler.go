package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"maremio_backend/internal/whatsapp/service"
	"maremio_backend/internal/whatsapp/transport"
	"maremio_backend/platform/httpkit"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid conversation id"
	msgForbidden        = "verification failed"

	defaultMessageLimit = 100
	maxMessageLimit     = 500
)

// Handler handles the WhatsApp webhook and the back-office inbox.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a new WhatsApp handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Verify answers Meta's webhook subscription check.
// GET /api/v1/webhooks/whatsapp
func (h *Handler) Verify(c *gin.Context) {
	req := transport.VerifyRequest{
		Mode:      c.Query("hub.mode"),
		Token:     c.Query("hub.verify_token"),
		Challenge: c.Query("hub.challenge"),
	}
	challenge, ok := h.svc.Verify(req)
	if !ok {
		c.String(http.StatusForbidden, msgForbidden)
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive ingests inbound messages and delivery statuses. Meta retries any
// non-2xx answer, so processing errors are logged and acknowledged.
// POST /api/v1/webhooks/whatsapp
func (h *Handler) Receive(c *gin.Context) {
	var payload transport.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.log.WithContext(c.Request.Context()).Error("whatsapp webhook processing failed", "error", err)
	}
	httpkit.OK(c, gin.H{"status": "ok"})
}

// ListConversations lists the inbox.
// GET /api/v1/whatsapp/conversations?status=active&search=rossi
func (h *Handler) ListConversations(c *gin.Context) {
	var req transport.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	result, err := h.svc.ListConversations(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetConversation retrieves a conversation.
// GET /api/v1/whatsapp/conversations/:id
func (h *Handler) GetConversation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetConversation(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateConversation changes the conversation status.
// PATCH /api/v1/whatsapp/conversations/:id
func (h *Handler) UpdateConversation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.UpdateConversationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Messages lists the latest messages of a conversation.
// GET /api/v1/whatsapp/conversations/:id/messages?limit=100
func (h *Handler) Messages(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxMessageLimit {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	result, err := h.svc.Messages(c.Request.Context(), id, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Send replies on a conversation.
// POST /api/v1/whatsapp/conversations/:id/messages
func (h *Handler) Send(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.Reply(c.Request.Context(), id, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// MarkRead clears the unread badge.
// POST /api/v1/whatsapp/conversations/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

// AIAction summarizes a conversation or suggests a reply.
// POST /api/v1/whatsapp/conversations/:id/ai
func (h *Handler) AIAction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.AIActionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.svc.RunAIAction(c.Request.Context(), id, req.Action)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

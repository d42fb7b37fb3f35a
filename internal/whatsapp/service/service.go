package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"maremio_backend/internal/events"
	"maremio_backend/internal/whatsapp/repository"
	"maremio_backend/internal/whatsapp/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"
	"maremio_backend/platform/phone"

	"github.com/google/uuid"
)

const (
	directionInbound  = "inbound"
	directionOutbound = "outbound"
	statusSent        = "sent"
	statusFailed      = "failed"

	// TranscriptLimit is how many recent messages the AI actions read.
	TranscriptLimit = 50

	msgGatewayMissing = "gateway WhatsApp non configurato"
	msgAssistantOff   = "assistente AI non configurato"
	msgSendFailed     = "invio del messaggio WhatsApp non riuscito"
	msgUnknownAction  = "azione AI non valida"
)

// Sender delivers outbound messages.
type Sender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) (string, error)
}

// CustomerLookup links new conversations to known customers.
type CustomerLookup interface {
	FindIDByPhone(ctx context.Context, phone string) (*uuid.UUID, error)
}

// Assistant runs the AI helpers over a conversation.
type Assistant interface {
	Summarize(ctx context.Context, conversationID uuid.UUID) (string, error)
	SuggestReply(ctx context.Context, conversationID uuid.UUID) (string, error)
}

// Service implements the WhatsApp inbox.
type Service struct {
	repo        repository.Repository
	sender      Sender
	customers   CustomerLookup
	assistant   Assistant
	bus         events.Bus
	verifyToken string
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new WhatsApp service. sender may be nil.
func New(repo repository.Repository, sender Sender, bus events.Bus, verifyToken string, log *logger.Logger) *Service {
	return &Service{repo: repo, sender: sender, bus: bus, verifyToken: verifyToken, log: log, now: time.Now}
}

// SetCustomerLookup enables customer linking on new conversations.
func (s *Service) SetCustomerLookup(lookup CustomerLookup) {
	s.customers = lookup
}

// SetAssistant enables the summarize and suggest_reply actions.
func (s *Service) SetAssistant(assistant Assistant) {
	s.assistant = assistant
}

// Verify answers Meta's subscription handshake. It returns the challenge
// when the token matches the configured one.
func (s *Service) Verify(req transport.VerifyRequest) (string, bool) {
	if s.verifyToken == "" || req.Mode != "subscribe" {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(s.verifyToken)) != 1 {
		return "", false
	}
	return req.Challenge, true
}

// HandleWebhook stores inbound messages and applies delivery statuses.
func (s *Service) HandleWebhook(ctx context.Context, payload transport.WebhookPayload) error {
	var errs []error
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			for _, msg := range value.Messages {
				if err := s.storeInbound(ctx, msg, contactName(value.Contacts, msg.From)); err != nil {
					errs = append(errs, err)
				}
			}
			for _, st := range value.Statuses {
				if st.ID == "" || st.Status == "" {
					continue
				}
				if err := s.repo.UpdateMessageStatus(ctx, st.ID, st.Status); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}

func contactName(contacts []transport.WebhookContact, from string) *string {
	for _, c := range contacts {
		if (c.WaID == "" || c.WaID == from) && strings.TrimSpace(c.Profile.Name) != "" {
			name := strings.TrimSpace(c.Profile.Name)
			return &name
		}
	}
	return nil
}

func (s *Service) storeInbound(ctx context.Context, msg transport.WebhookMessage, name *string) error {
	if msg.From == "" {
		return nil
	}
	at := parseTimestamp(msg.Timestamp, s.now())
	content, mediaType := MessageContent(msg)

	var customerID *uuid.UUID
	if s.customers != nil {
		id, err := s.customers.FindIDByPhone(ctx, msg.From)
		if err != nil {
			s.log.Warn("whatsapp customer lookup failed", "error", err)
		}
		customerID = id
	}

	conv, err := s.repo.TouchConversation(ctx, repository.TouchConversationParams{
		PhoneNumber: msg.From,
		ContactName: name,
		CustomerID:  customerID,
		MessageAt:   at,
		IncrementBy: 1,
	})
	if err != nil {
		return err
	}

	var waID *string
	if msg.ID != "" {
		waID = &msg.ID
	}
	_, inserted, err := s.repo.InsertMessage(ctx, repository.InsertMessageParams{
		ConversationID: conv.ID,
		Direction:      directionInbound,
		Content:        content,
		MediaType:      mediaType,
		WAMessageID:    waID,
		CreatedAt:      at,
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.log.Info("whatsapp duplicate message ignored", "waMessageId", msg.ID)
		return nil
	}

	s.log.Info("whatsapp message stored", "conversationId", conv.ID, "type", msg.Type)
	if s.bus != nil {
		s.bus.Publish(ctx, events.WhatsAppMessageReceived{
			BaseEvent:      events.NewBaseEvent(),
			ConversationID: conv.ID,
			PhoneNumber:    conv.PhoneNumber,
			Content:        content,
		})
	}
	return nil
}

// ListConversations returns the inbox, most recent first.
func (s *Service) ListConversations(ctx context.Context, req transport.ListConversationsRequest) (transport.ConversationListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	items, total, err := s.repo.ListConversations(ctx, repository.ListConversationsParams{
		Status: req.Status,
		Search: strings.TrimSpace(req.Search),
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return transport.ConversationListResponse{}, err
	}
	unread, err := s.repo.TotalUnread(ctx)
	if err != nil {
		return transport.ConversationListResponse{}, err
	}

	resp := transport.ConversationListResponse{
		Items:       make([]transport.ConversationResponse, 0, len(items)),
		Total:       total,
		TotalUnread: unread,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (total + pageSize - 1) / pageSize,
	}
	for _, conv := range items {
		resp.Items = append(resp.Items, toConversationResponse(conv))
	}
	return resp, nil
}

// GetConversation retrieves one conversation.
func (s *Service) GetConversation(ctx context.Context, id uuid.UUID) (transport.ConversationResponse, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return transport.ConversationResponse{}, err
	}
	return toConversationResponse(conv), nil
}

// Messages returns up to limit recent messages, oldest first.
func (s *Service) Messages(ctx context.Context, id uuid.UUID, limit int) ([]transport.MessageResponse, error) {
	if _, err := s.repo.GetConversation(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	return resp, nil
}

// Transcript returns the conversation and its latest messages for the AI helpers.
func (s *Service) Transcript(ctx context.Context, id uuid.UUID) (repository.Conversation, []repository.Message, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return repository.Conversation{}, nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, id, TranscriptLimit)
	if err != nil {
		return repository.Conversation{}, nil, err
	}
	return conv, msgs, nil
}

// MarkRead clears the unread counter.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

// SetStatus archives, blocks or reactivates a conversation.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (transport.ConversationResponse, error) {
	conv, err := s.repo.SetStatus(ctx, id, status)
	if err != nil {
		return transport.ConversationResponse{}, err
	}
	s.log.Info("whatsapp conversation status changed", "conversationId", id, "status", status)
	return toConversationResponse(conv), nil
}

// Reply sends an operator message on an existing conversation.
func (s *Service) Reply(ctx context.Context, id uuid.UUID, content string) (transport.MessageResponse, error) {
	conv, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	msg, err := s.send(ctx, conv.PhoneNumber, content)
	if err != nil {
		return transport.MessageResponse{}, err
	}
	return toMessageResponse(msg), nil
}

// SendToPhone messages a phone number, opening a conversation if needed.
// National numbers are keyed like the webhook's sender ids.
func (s *Service) SendToPhone(ctx context.Context, phoneNumber, content string) error {
	_, err := s.send(ctx, phoneNumber, content)
	return err
}

func (s *Service) send(ctx context.Context, phoneNumber, content string) (repository.Message, error) {
	if s.sender == nil {
		return repository.Message{}, apperr.Unavailable(msgGatewayMissing)
	}

	waID, sendErr := s.sender.SendMessage(ctx, phoneNumber, content)
	status := statusSent
	if sendErr != nil {
		status = statusFailed
		s.log.Error("whatsapp send failed", "error", sendErr)
	}

	key := phone.ForWhatsApp(phoneNumber)
	if key == "" {
		key = phoneNumber
	}
	now := s.now()
	conv, err := s.repo.TouchConversation(ctx, repository.TouchConversationParams{
		PhoneNumber: key,
		MessageAt:   now,
	})
	if err != nil {
		return repository.Message{}, err
	}

	params := repository.InsertMessageParams{
		ConversationID: conv.ID,
		Direction:      directionOutbound,
		Content:        content,
		Status:         &status,
		CreatedAt:      now,
	}
	if waID != "" {
		params.WAMessageID = &waID
	}
	msg, _, err := s.repo.InsertMessage(ctx, params)
	if err != nil {
		return repository.Message{}, err
	}

	if sendErr != nil {
		return msg, apperr.Wrap(apperr.KindUnavailable, msgSendFailed, sendErr)
	}
	return msg, nil
}

// RunAIAction runs summarize or suggest_reply on a conversation.
func (s *Service) RunAIAction(ctx context.Context, id uuid.UUID, action string) (transport.AIActionResponse, error) {
	if s.assistant == nil {
		return transport.AIActionResponse{}, apperr.Unavailable(msgAssistantOff)
	}

	var (
		text string
		err  error
	)
	switch action {
	case "summarize":
		text, err = s.assistant.Summarize(ctx, id)
	case "suggest_reply":
		text, err = s.assistant.SuggestReply(ctx, id)
	default:
		return transport.AIActionResponse{}, apperr.Validation(msgUnknownAction)
	}
	if err != nil {
		return transport.AIActionResponse{}, err
	}
	return transport.AIActionResponse{Text: text}, nil
}

func toConversationResponse(c repository.Conversation) transport.ConversationResponse {
	resp := transport.ConversationResponse{
		ID:           c.ID,
		PhoneNumber:  c.PhoneNumber,
		CustomerID:   c.CustomerID,
		CustomerName: c.CustomerName,
		Status:       c.Status,
		UnreadCount:  c.UnreadCount,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastMessageAt != nil {
		last := c.LastMessageAt.Format(time.RFC3339)
		resp.LastMessageAt = &last
	}
	return resp
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Direction:      m.Direction,
		Content:        m.Content,
		MediaType:      m.MediaType,
		MediaURL:       m.MediaURL,
		Status:         m.Status,
		WAMessageID:    m.WAMessageID,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

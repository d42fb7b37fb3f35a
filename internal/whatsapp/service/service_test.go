package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maremio_backend/internal/events"
	"maremio_backend/internal/whatsapp/repository"
	"maremio_backend/internal/whatsapp/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	convs    map[string]*repository.Conversation
	messages []repository.Message
	statuses map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{convs: map[string]*repository.Conversation{}, statuses: map[string]string{}}
}

func (r *fakeRepo) TouchConversation(_ context.Context, p repository.TouchConversationParams) (repository.Conversation, error) {
	conv, ok := r.convs[p.PhoneNumber]
	if !ok {
		conv = &repository.Conversation{ID: uuid.New(), PhoneNumber: p.PhoneNumber, Status: "active", CreatedAt: p.MessageAt}
		r.convs[p.PhoneNumber] = conv
	}
	if conv.CustomerName == nil {
		conv.CustomerName = p.ContactName
	}
	if conv.CustomerID == nil {
		conv.CustomerID = p.CustomerID
	}
	conv.UnreadCount += p.IncrementBy
	at := p.MessageAt
	conv.LastMessageAt = &at
	return *conv, nil
}

func (r *fakeRepo) find(id uuid.UUID) *repository.Conversation {
	for _, c := range r.convs {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *fakeRepo) GetConversation(_ context.Context, id uuid.UUID) (repository.Conversation, error) {
	if c := r.find(id); c != nil {
		return *c, nil
	}
	return repository.Conversation{}, apperr.NotFound("conversation not found")
}

func (r *fakeRepo) ListConversations(_ context.Context, _ repository.ListConversationsParams) ([]repository.Conversation, int, error) {
	items := make([]repository.Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		items = append(items, *c)
	}
	return items, len(items), nil
}

func (r *fakeRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	c := r.find(id)
	if c == nil {
		return apperr.NotFound("conversation not found")
	}
	c.UnreadCount = 0
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, status string) (repository.Conversation, error) {
	c := r.find(id)
	if c == nil {
		return repository.Conversation{}, apperr.NotFound("conversation not found")
	}
	c.Status = status
	return *c, nil
}

func (r *fakeRepo) TotalUnread(_ context.Context) (int, error) {
	total := 0
	for _, c := range r.convs {
		total += c.UnreadCount
	}
	return total, nil
}

func (r *fakeRepo) InsertMessage(_ context.Context, p repository.InsertMessageParams) (repository.Message, bool, error) {
	if p.WAMessageID != nil {
		for _, m := range r.messages {
			if m.WAMessageID != nil && *m.WAMessageID == *p.WAMessageID {
				return repository.Message{}, false, nil
			}
		}
	}
	content := p.Content
	msg := repository.Message{
		ID:             uuid.New(),
		ConversationID: p.ConversationID,
		Direction:      p.Direction,
		Content:        &content,
		MediaType:      p.MediaType,
		Status:         p.Status,
		WAMessageID:    p.WAMessageID,
		CreatedAt:      p.CreatedAt,
	}
	r.messages = append(r.messages, msg)
	return msg, true, nil
}

func (r *fakeRepo) UpdateMessageStatus(_ context.Context, waID, status string) error {
	r.statuses[waID] = status
	return nil
}

func (r *fakeRepo) ListMessages(_ context.Context, id uuid.UUID, limit int) ([]repository.Message, error) {
	var out []repository.Message
	for _, m := range r.messages {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) SendMessage(_ context.Context, phone, msg string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, phone+":"+msg)
	return "wamid.out", nil
}

type stubAssistant struct{}

func (stubAssistant) Summarize(context.Context, uuid.UUID) (string, error) { return "riassunto", nil }
func (stubAssistant) SuggestReply(context.Context, uuid.UUID) (string, error) {
	return "Grazie!", nil
}

func textMessage(id, from, body string) transport.WebhookMessage {
	msg := transport.WebhookMessage{From: from, ID: id, Timestamp: "1734600000", Type: "text"}
	msg.Text = &struct {
		Body string `json:"body"`
	}{Body: body}
	return msg
}

func payloadWith(msgs ...transport.WebhookMessage) transport.WebhookPayload {
	contact := transport.WebhookContact{WaID: "393331234567"}
	contact.Profile.Name = "Mario Rossi"
	return transport.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []transport.WebhookEntry{{
			Changes: []transport.WebhookChange{{
				Field: "messages",
				Value: transport.WebhookValue{Contacts: []transport.WebhookContact{contact}, Messages: msgs},
			}},
		}},
	}
}

func TestMessageContentPlaceholders(t *testing.T) {
	image := transport.WebhookMessage{Type: "image"}
	if content, media := MessageContent(image); content != "[Immagine]" || media == nil || *media != "image" {
		t.Fatalf("unexpected image rendering %q %v", content, media)
	}

	doc := transport.WebhookMessage{Type: "document"}
	doc.Document = &struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
	}{Filename: "menu.pdf"}
	if content, _ := MessageContent(doc); content != "menu.pdf" {
		t.Fatalf("expected document filename, got %q", content)
	}

	loc := transport.WebhookMessage{Type: "location"}
	loc.Location = &struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{Latitude: 45.46, Longitude: 9.19}
	if content, _ := MessageContent(loc); content != "[Posizione: 45.46, 9.19]" {
		t.Fatalf("unexpected location rendering %q", content)
	}

	if content, _ := MessageContent(transport.WebhookMessage{Type: "audio"}); content != "[Audio]" {
		t.Fatalf("unexpected audio rendering %q", content)
	}
}

func TestHandleWebhookStoresAndDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, nil, bus, "token", logger.Discard())

	payload := payloadWith(textMessage("wamid.1", "393331234567", "Vorrei 2 lasagne"))
	if err := svc.HandleWebhook(context.Background(), payload); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if err := svc.HandleWebhook(context.Background(), payload); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(repo.messages) != 1 {
		t.Fatalf("expected one stored message, got %d", len(repo.messages))
	}
	conv := repo.convs["393331234567"]
	if conv == nil || conv.CustomerName == nil || *conv.CustomerName != "Mario Rossi" {
		t.Fatalf("expected conversation named after contact, got %+v", conv)
	}
	if conv.LastMessageAt == nil || !conv.LastMessageAt.Equal(time.Unix(1734600000, 0)) {
		t.Fatalf("expected message timestamp applied, got %v", conv.LastMessageAt)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	if _, ok := bus.events[0].(events.WhatsAppMessageReceived); !ok {
		t.Fatalf("unexpected event %T", bus.events[0])
	}
}

func TestHandleWebhookAppliesStatuses(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, "token", logger.Discard())

	payload := transport.WebhookPayload{Entry: []transport.WebhookEntry{{
		Changes: []transport.WebhookChange{{Value: transport.WebhookValue{
			Statuses: []transport.WebhookStatus{{ID: "wamid.out", Status: "read"}, {ID: "", Status: "sent"}},
		}}},
	}}}
	if err := svc.HandleWebhook(context.Background(), payload); err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if repo.statuses["wamid.out"] != "read" || len(repo.statuses) != 1 {
		t.Fatalf("unexpected statuses %v", repo.statuses)
	}
}

func TestVerify(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, "secret", logger.Discard())

	if got, ok := svc.Verify(transport.VerifyRequest{Mode: "subscribe", Token: "secret", Challenge: "42"}); !ok || got != "42" {
		t.Fatalf("expected challenge echoed, got %q %v", got, ok)
	}
	if _, ok := svc.Verify(transport.VerifyRequest{Mode: "subscribe", Token: "wrong", Challenge: "42"}); ok {
		t.Fatalf("expected wrong token rejected")
	}
	if _, ok := svc.Verify(transport.VerifyRequest{Mode: "unsubscribe", Token: "secret"}); ok {
		t.Fatalf("expected wrong mode rejected")
	}
}

func TestReplyStoresOutboundMessage(t *testing.T) {
	repo := newFakeRepo()
	sender := &fakeSender{}
	svc := New(repo, sender, nil, "", logger.Discard())
	_ = svc.HandleWebhook(context.Background(), payloadWith(textMessage("wamid.1", "393331234567", "Ciao")))
	conv := repo.convs["393331234567"]

	msg, err := svc.Reply(context.Background(), conv.ID, "Ordine ricevuto")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if msg.Direction != "outbound" || msg.Status == nil || *msg.Status != "sent" {
		t.Fatalf("unexpected outbound message %+v", msg)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "393331234567:Ordine ricevuto" {
		t.Fatalf("unexpected sends %v", sender.sent)
	}
	if conv.UnreadCount != 1 {
		t.Fatalf("reply must not bump unread, got %d", conv.UnreadCount)
	}
}

func TestReplyRecordsFailedSend(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &fakeSender{err: errors.New("gateway down")}, nil, "", logger.Discard())

	err := svc.SendToPhone(context.Background(), "393331234567", "Ciao")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if len(repo.messages) != 1 || *repo.messages[0].Status != "failed" {
		t.Fatalf("expected failed message recorded, got %+v", repo.messages)
	}
}

func TestSendWithoutGatewayIsUnavailable(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, "", logger.Discard())
	if err := svc.SendToPhone(context.Background(), "393331234567", "Ciao"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestRunAIAction(t *testing.T) {
	svc := New(newFakeRepo(), nil, nil, "", logger.Discard())
	if _, err := svc.RunAIAction(context.Background(), uuid.New(), "summarize"); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable without assistant, got %v", err)
	}

	svc.SetAssistant(stubAssistant{})
	resp, err := svc.RunAIAction(context.Background(), uuid.New(), "suggest_reply")
	if err != nil || resp.Text != "Grazie!" {
		t.Fatalf("unexpected response %+v %v", resp, err)
	}
	if _, err := svc.RunAIAction(context.Background(), uuid.New(), "translate"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListConversationsPaging(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil, nil, "", logger.Discard())
	_ = svc.HandleWebhook(context.Background(), payloadWith(
		textMessage("wamid.1", "393331234567", "Ciao"),
		textMessage("wamid.2", "393331234567", "Ci sei?"),
	))

	resp, err := svc.ListConversations(context.Background(), transport.ListConversationsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Page != 1 || resp.PageSize != 50 || resp.Total != 1 || resp.TotalPages != 1 {
		t.Fatalf("unexpected paging %+v", resp)
	}
	if resp.TotalUnread != 2 {
		t.Fatalf("expected 2 unread, got %d", resp.TotalUnread)
	}
}

func TestSendToPhoneReusesInboundConversation(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &fakeSender{}, nil, "", logger.Discard())
	_ = svc.HandleWebhook(context.Background(), payloadWith(textMessage("wamid.1", "393331234567", "Ciao")))

	if err := svc.SendToPhone(context.Background(), "333 123 4567", "Ordine 24-100 confermato"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(repo.convs) != 1 {
		t.Fatalf("expected one conversation, got %d", len(repo.convs))
	}
}

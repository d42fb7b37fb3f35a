package service

import (
	"context"

	"maremio_backend/internal/assistant"
	"maremio_backend/internal/drafts/ports"
	"maremio_backend/internal/public/transport"
	"maremio_backend/platform/apperr"
	"maremio_backend/platform/sanitize"
)

const msgAssistantUnavailable = "Assistente non disponibile"

// Assistant answers menu questions from the public page.
type Assistant interface {
	Chat(ctx context.Context, req assistant.ChatRequest) (assistant.ChatReply, error)
}

// SetAssistant enables the menu chat. Without it Chat is unavailable.
func (s *Service) SetAssistant(a Assistant) {
	s.assistant = a
}

// Chat forwards a sanitized customer message to the assistant and returns
// the reply with the recognised dishes priced from the catalog.
func (s *Service) Chat(ctx context.Context, req transport.AssistantRequest, image *ports.Image) (transport.AssistantResponse, error) {
	if s.assistant == nil {
		return transport.AssistantResponse{}, apperr.Unavailable(msgAssistantUnavailable)
	}

	history := make([]assistant.ChatTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, assistant.ChatTurn{Role: turn.Role, Content: sanitize.Text(turn.Content)})
	}

	reply, err := s.assistant.Chat(ctx, assistant.ChatRequest{
		Message: sanitize.Text(req.Message),
		History: history,
		Image:   image,
	})
	if err != nil {
		return transport.AssistantResponse{}, err
	}

	items := make([]transport.AssistantItem, 0, len(reply.Items))
	for _, item := range reply.Items {
		out := transport.AssistantItem{Name: item.ExtractedName, Quantity: item.Quantity}
		if p := item.MatchedProduct; p != nil {
			id := p.ID
			out.ProductID = &id
			out.Name = p.Name
			out.Price = p.Price
			out.Unit = p.Unit
			out.Matched = true
		}
		items = append(items, out)
	}
	return transport.AssistantResponse{Response: reply.Reply, Items: items}, nil
}

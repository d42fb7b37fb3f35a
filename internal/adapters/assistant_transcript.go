package adapters

import (
	"context"
	"fmt"

	"maremio_backend/internal/assistant"
	"maremio_backend/internal/whatsapp/repository"
	whatsappsvc "maremio_backend/internal/whatsapp/service"

	"github.com/google/uuid"
)

// ConversationReader loads a stored WhatsApp conversation.
type ConversationReader interface {
	Transcript(ctx context.Context, id uuid.UUID) (repository.Conversation, []repository.Message, error)
}

// ConversationTranscriptAdapter feeds WhatsApp conversations to the assistant.
type ConversationTranscriptAdapter struct {
	reader ConversationReader
}

// NewConversationTranscriptAdapter creates a new transcript adapter.
func NewConversationTranscriptAdapter(reader ConversationReader) *ConversationTranscriptAdapter {
	return &ConversationTranscriptAdapter{reader: reader}
}

// ConversationTranscript renders the latest messages for the AI helpers.
func (a *ConversationTranscriptAdapter) ConversationTranscript(ctx context.Context, id uuid.UUID) (assistant.Transcript, error) {
	conv, msgs, err := a.reader.Transcript(ctx, id)
	if err != nil {
		return assistant.Transcript{}, fmt.Errorf("whatsapp adapter: transcript: %w", err)
	}

	t := assistant.Transcript{
		PhoneNumber: conv.PhoneNumber,
		Lines:       make([]assistant.TranscriptLine, 0, len(msgs)),
	}
	if conv.CustomerName != nil {
		t.CustomerName = *conv.CustomerName
	}
	for _, m := range msgs {
		if m.Content == nil {
			continue
		}
		t.Lines = append(t.Lines, assistant.TranscriptLine{
			Inbound: m.Direction == "inbound",
			Content: *m.Content,
		})
	}
	return t, nil
}

var (
	_ assistant.ConversationSource = (*ConversationTranscriptAdapter)(nil)
	_ ConversationReader           = (*whatsappsvc.Service)(nil)
	_ whatsappsvc.Assistant        = (*assistant.ConversationAssistant)(nil)
	_ whatsappsvc.CustomerLookup   = (*CustomersAdapter)(nil)
)

package adapters

import (
	"context"
	"errors"
	"testing"

	"maremio_backend/internal/whatsapp/repository"

	"github.com/google/uuid"
)

type stubReader struct {
	conv repository.Conversation
	msgs []repository.Message
	err  error
}

func (s stubReader) Transcript(context.Context, uuid.UUID) (repository.Conversation, []repository.Message, error) {
	return s.conv, s.msgs, s.err
}

func text(s string) *string { return &s }

func TestConversationTranscriptMapsDirections(t *testing.T) {
	reader := stubReader{
		conv: repository.Conversation{PhoneNumber: "393331234567", CustomerName: text("Anna")},
		msgs: []repository.Message{
			{Direction: "inbound", Content: text("Ciao")},
			{Direction: "outbound", Content: text("Buongiorno!")},
			{Direction: "inbound"},
		},
	}

	got, err := NewConversationTranscriptAdapter(reader).ConversationTranscript(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if got.CustomerName != "Anna" || got.PhoneNumber != "393331234567" {
		t.Fatalf("unexpected header %+v", got)
	}
	if len(got.Lines) != 2 || !got.Lines[0].Inbound || got.Lines[1].Inbound {
		t.Fatalf("unexpected lines %+v", got.Lines)
	}
}

func TestConversationTranscriptWrapsErrors(t *testing.T) {
	cause := errors.New("boom")
	_, err := NewConversationTranscriptAdapter(stubReader{err: cause}).ConversationTranscript(context.Background(), uuid.New())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

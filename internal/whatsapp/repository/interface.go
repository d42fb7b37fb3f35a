package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is one WhatsApp chat, keyed by the sender's phone number.
type Conversation struct {
	ID            uuid.UUID
	PhoneNumber   string
	CustomerID    *uuid.UUID
	CustomerName  *string
	Status        string
	UnreadCount   int
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Message is one stored chat message.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Direction      string
	Content        *string
	MediaType      *string
	MediaURL       *string
	Status         *string
	WAMessageID    *string
	CreatedAt      time.Time
}

// TouchConversationParams records activity on a conversation, creating it
// for a phone number seen for the first time.
type TouchConversationParams struct {
	PhoneNumber string
	ContactName *string
	CustomerID  *uuid.UUID
	MessageAt   time.Time
	IncrementBy int
}

type InsertMessageParams struct {
	ConversationID uuid.UUID
	Direction      string
	Content        string
	MediaType      *string
	MediaURL       *string
	Status         *string
	WAMessageID    *string
	CreatedAt      time.Time
}

type ListConversationsParams struct {
	Status string
	Search string
	Offset int
	Limit  int
}

// Repository defines WhatsApp inbox persistence.
type Repository interface {
	TouchConversation(ctx context.Context, params TouchConversationParams) (Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (Conversation, error)
	ListConversations(ctx context.Context, params ListConversationsParams) ([]Conversation, int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) (Conversation, error)
	TotalUnread(ctx context.Context) (int, error)

	// InsertMessage stores a message. A duplicate WAMessageID is ignored and
	// reported with inserted == false.
	InsertMessage(ctx context.Context, params InsertMessageParams) (Message, bool, error)
	UpdateMessageStatus(ctx context.Context, waMessageID, status string) error
	// ListMessages returns the latest limit messages, oldest first.
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error)
}

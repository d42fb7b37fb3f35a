package transport

import "github.com/google/uuid"

// WebhookPayload is the Meta Cloud API webhook body.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	Contacts []WebhookContact `json:"contacts,omitempty"`
	Messages []WebhookMessage `json:"messages,omitempty"`
	Statuses []WebhookStatus  `json:"statuses,omitempty"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image *struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	} `json:"image,omitempty"`
	Audio *struct {
		ID string `json:"id"`
	} `json:"audio,omitempty"`
	Document *struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
	} `json:"document,omitempty"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location,omitempty"`
}

type WebhookStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// VerifyRequest carries Meta's subscription handshake.
type VerifyRequest struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

type ListConversationsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=active archived blocked"`
	Search   string `form:"search" validate:"max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

type UpdateConversationRequest struct {
	Status string `json:"status" validate:"required,oneof=active archived blocked"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4096"`
}

type AIActionRequest struct {
	Action string `json:"action" validate:"required,oneof=summarize suggest_reply"`
}

type ConversationResponse struct {
	ID            uuid.UUID  `json:"id"`
	PhoneNumber   string     `json:"phoneNumber"`
	CustomerID    *uuid.UUID `json:"customerId,omitempty"`
	CustomerName  *string    `json:"customerName,omitempty"`
	Status        string     `json:"status"`
	UnreadCount   int        `json:"unreadCount"`
	LastMessageAt *string    `json:"lastMessageAt,omitempty"`
	CreatedAt     string     `json:"createdAt"`
	UpdatedAt     string     `json:"updatedAt"`
}

type ConversationListResponse struct {
	Items       []ConversationResponse `json:"items"`
	Total       int                    `json:"total"`
	TotalUnread int                    `json:"totalUnread"`
	Page        int                    `json:"page"`
	PageSize    int                    `json:"pageSize"`
	TotalPages  int                    `json:"totalPages"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	Direction      string    `json:"direction"`
	Content        *string   `json:"content,omitempty"`
	MediaType      *string   `json:"mediaType,omitempty"`
	MediaURL       *string   `json:"mediaUrl,omitempty"`
	Status         *string   `json:"status,omitempty"`
	WAMessageID    *string   `json:"waMessageId,omitempty"`
	CreatedAt      string    `json:"createdAt"`
}

type AIActionResponse struct {
	Text string `json:"text"`
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maremio_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const conversationNotFoundMessage = "conversation not found"

// Repo implements the WhatsApp inbox repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new WhatsApp repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const conversationColumns = `id, phone_number, customer_id, customer_name, status, unread_count, last_message_at, created_at, updated_at`

const messageColumns = `id, conversation_id, direction, content, media_type, media_url, status, wa_message_id, created_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.PhoneNumber, &c.CustomerID, &c.CustomerName, &c.Status,
		&c.UnreadCount, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Direction, &m.Content, &m.MediaType,
		&m.MediaURL, &m.Status, &m.WAMessageID, &m.CreatedAt)
	return m, err
}

// TouchConversation upserts the conversation for a phone number. Unread
// counts grow by IncrementBy; the contact name and customer link are only
// filled when still empty.
func (r *Repo) TouchConversation(ctx context.Context, params TouchConversationParams) (Conversation, error) {
	query := `
		INSERT INTO whatsapp_conversations (phone_number, customer_name, customer_id, unread_count, last_message_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number) DO UPDATE SET
			customer_name = COALESCE(whatsapp_conversations.customer_name, EXCLUDED.customer_name),
			customer_id = COALESCE(whatsapp_conversations.customer_id, EXCLUDED.customer_id),
			unread_count = whatsapp_conversations.unread_count + EXCLUDED.unread_count,
			last_message_at = GREATEST(whatsapp_conversations.last_message_at, EXCLUDED.last_message_at),
			updated_at = now()
		RETURNING ` + conversationColumns

	conv, err := scanConversation(r.pool.QueryRow(ctx, query,
		params.PhoneNumber, params.ContactName, params.CustomerID, params.IncrementBy, params.MessageAt))
	if err != nil {
		return Conversation{}, fmt.Errorf("touch conversation: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
func (r *Repo) GetConversation(ctx context.Context, id uuid.UUID) (Conversation, error) {
	conv, err := scanConversation(r.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM whatsapp_conversations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, apperr.NotFound(conversationNotFoundMessage)
		}
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns conversations, most recent activity first.
func (r *Repo) ListConversations(ctx context.Context, params ListConversationsParams) ([]Conversation, int, error) {
	where := `WHERE ($1 = '' OR status = $1)
		AND ($2 = '' OR phone_number ILIKE '%' || $2 || '%' OR customer_name ILIKE '%' || $2 || '%')`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM whatsapp_conversations `+where,
		params.Status, params.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count conversations: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+` FROM whatsapp_conversations `+where+`
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
		LIMIT $3 OFFSET $4`, params.Status, params.Search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	items := make([]Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate conversations: %w", err)
	}
	return items, total, nil
}

// MarkRead resets the unread counter.
func (r *Repo) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE whatsapp_conversations SET unread_count = 0, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(conversationNotFoundMessage)
	}
	return nil
}

// SetStatus changes the conversation status (active, archived, blocked).
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status string) (Conversation, error) {
	conv, err := scanConversation(r.pool.QueryRow(ctx, `
		UPDATE whatsapp_conversations SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+conversationColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, apperr.NotFound(conversationNotFoundMessage)
		}
		return Conversation{}, fmt.Errorf("set conversation status: %w", err)
	}
	return conv, nil
}

// TotalUnread sums unread messages across active conversations.
func (r *Repo) TotalUnread(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(unread_count), 0) FROM whatsapp_conversations WHERE status = 'active'`).Scan(&total); err != nil {
		return 0, fmt.Errorf("total unread: %w", err)
	}
	return total, nil
}

// InsertMessage stores a message, ignoring redelivered webhook messages.
func (r *Repo) InsertMessage(ctx context.Context, params InsertMessageParams) (Message, bool, error) {
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	msg, err := scanMessage(r.pool.QueryRow(ctx, `
		INSERT INTO whatsapp_messages (conversation_id, direction, content, media_type, media_url, status, wa_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (wa_message_id) DO NOTHING
		RETURNING `+messageColumns,
		params.ConversationID, params.Direction, params.Content, params.MediaType,
		params.MediaURL, params.Status, params.WAMessageID, createdAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, false, nil
		}
		return Message{}, false, fmt.Errorf("insert message: %w", err)
	}
	return msg, true, nil
}

// UpdateMessageStatus records a delivery status (sent, delivered, read, failed).
func (r *Repo) UpdateMessageStatus(ctx context.Context, waMessageID, status string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE whatsapp_messages SET status = $2 WHERE wa_message_id = $1`, waMessageID, status); err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

// ListMessages returns the latest messages of a conversation in chronological order.
func (r *Repo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM whatsapp_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) latest
		ORDER BY created_at ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

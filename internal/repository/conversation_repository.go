package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tripio/travel-marketplace/internal/model"
)

// Errors returned by ConversationRepo.
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

// ConversationRepo persists chat threads and their messages.  Live
// delivery goes through Redis pub/sub in the chat handler; this repo
// is the durable record.
type ConversationRepo struct{ db *sql.DB }

func NewConversationRepo(db *sql.DB) *ConversationRepo { return &ConversationRepo{db: db} }

const conversationColumns = "id, initiator_id, receiver_id, package_id, is_active, created_at, updated_at"

func scanConversation(row interface{ Scan(...any) error }) (model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.InitiatorID, &c.ReceiverID, &c.PackageID,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetOrCreate returns the thread between two users about a package,
// creating it when missing.  Lookup matches the pair in either
// direction so a seller replying does not fork a second thread.
func (r *ConversationRepo) GetOrCreate(ctx context.Context, initiatorID, receiverID uint64, packageID *uint64) (model.Conversation, error) {
	q := "SELECT " + conversationColumns + ` FROM conversations
		WHERE ((initiator_id=? AND receiver_id=?) OR (initiator_id=? AND receiver_id=?))`
	args := []any{initiatorID, receiverID, receiverID, initiatorID}
	if packageID == nil {
		q += " AND package_id IS NULL"
	} else {
		q += " AND package_id=?"
		args = append(args, *packageID)
	}
	q += " LIMIT 1"

	c, err := scanConversation(r.db.QueryRowContext(ctx, q, args...))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, err
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO conversations (initiator_id, receiver_id, package_id, is_active) VALUES (?,?,?,1)",
		initiatorID, receiverID, packageID)
	if err != nil {
		return model.Conversation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Conversation{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a conversation by primary key.
func (r *ConversationRepo) GetByID(ctx context.Context, id uint64) (model.Conversation, error) {
	c, err := scanConversation(r.db.QueryRowContext(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, ErrConversationNotFound
	}
	return c, err
}

// GetForUser fetches a conversation and verifies that the user is a
// participant, returning ErrForbidden otherwise.
func (r *ConversationRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Conversation, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Conversation{}, err
	}
	if !c.HasParticipant(userID) {
		return model.Conversation{}, ErrForbidden
	}
	return c, nil
}

// ConversationSummary is a thread plus its inbox metadata.
type ConversationSummary struct {
	Conversation model.Conversation `json:"conversation"`
	LastMessage  *model.Message     `json:"last_message,omitempty"`
	UnreadCount  int64              `json:"unread_count"`
}

// ListForUser returns the user's active threads, most recently
// touched first, each with its last message and unread count.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+conversationColumns+` FROM conversations
		 WHERE (initiator_id=? OR receiver_id=?) AND is_active=1
		 ORDER BY updated_at DESC`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ConversationSummary{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ConversationSummary{Conversation: c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		c := out[i].Conversation
		m, err := r.lastMessage(ctx, c.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if err == nil {
			out[i].LastMessage = &m
		}
		if err := r.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM messages WHERE conversation_id=? AND sender_id<>? AND is_read=0",
			c.ID, userID).Scan(&out[i].UnreadCount); err != nil {
			return nil, err
		}
	}
	return out, nil
}

const messageColumns = "id, conversation_id, sender_id, content, attachment_url, is_read, read_at, created_at"

func scanMessage(row interface{ Scan(...any) error }) (model.Message, error) {
	var m model.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content,
		&m.AttachmentURL, &m.IsRead, &m.ReadAt, &m.CreatedAt)
	return m, err
}

func (r *ConversationRepo) lastMessage(ctx context.Context, conversationID uint64) (model.Message, error) {
	return scanMessage(r.db.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE conversation_id=? ORDER BY id DESC LIMIT 1",
		conversationID))
}

// CreateMessage appends a message and bumps the thread's updated_at
// in one transaction so inbox ordering stays consistent.
func (r *ConversationRepo) CreateMessage(ctx context.Context, m *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, content, attachment_url) VALUES (?,?,?,?)",
		m.ConversationID, m.SenderID, m.Content, m.AttachmentURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	if _, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at=NOW() WHERE id=?", m.ConversationID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListMessages returns a page of a thread's messages, oldest first.
func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID uint64, page, pageSize int) ([]model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+messageColumns+
			" FROM messages WHERE conversation_id=? ORDER BY id LIMIT ? OFFSET ?",
		conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRead marks every message the other party sent as read.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID, readerID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read=1, read_at=NOW()
		 WHERE conversation_id=? AND sender_id<>? AND is_read=0`,
		conversationID, readerID)
	return err
}

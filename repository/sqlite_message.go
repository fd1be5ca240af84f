package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

// Create, yeni bir mesaj ekler ve thread içi seq numarasını atar.
//
// seq ataması INSERT statement'ının içinde yapılır:
// COALESCE((SELECT MAX(seq) ...), 0) + 1 tek statement'ta çalıştığı için
// SQLite'ın yazma kilidi altında atomiktir. Service katmanındaki
// thread-başına mutex, yayın sırasının da seq sırasıyla aynı kalmasını
// sağlar; UNIQUE(thread_id, seq) constraint son savunma hattıdır.
func (r *sqliteMessageRepo) Create(ctx context.Context, q database.TxQuerier, msg *models.Message) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO messages (id, thread_id, sender_id, content, kind, seq)
		VALUES (?, ?, ?, ?, ?,
			COALESCE((SELECT MAX(seq) FROM messages WHERE thread_id = ?), 0) + 1)
		RETURNING seq, created_at`,
		msg.ID, msg.ThreadID, msg.SenderID, msg.Content, msg.Kind, msg.ThreadID,
	).Scan(&msg.Seq, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID, ID ile mesajı döner.
func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	var readAt sql.NullTime

	err := r.db.QueryRowContext(ctx,
		"SELECT id, thread_id, sender_id, content, kind, seq, created_at, read_at FROM messages WHERE id = ?",
		id,
	).Scan(&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Content, &msg.Kind, &msg.Seq, &msg.CreatedAt, &readAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	if readAt.Valid {
		msg.ReadAt = &readAt.Time
	}
	return &msg, nil
}

// List, thread'in mesajlarını seq'e göre ARTAN sırada döner.
// afterSeq > 0 ise sadece o numaradan büyük seq'li mesajlar gelir —
// reconnect sonrası client kaçırdığı aralığı bu parametreyle çeker.
// Gönderen profili JOIN ile doldurulur.
func (r *sqliteMessageRepo) List(ctx context.Context, threadID string, afterSeq int64, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	query := `
		SELECT m.id, m.thread_id, m.sender_id, m.content, m.kind, m.seq, m.created_at, m.read_at,
			u.id, u.username, u.display_name, u.avatar_url
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.thread_id = ? AND m.seq > ?
		ORDER BY m.seq ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, threadID, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var sender models.User
		var readAt sql.NullTime
		var displayName, avatarURL sql.NullString

		if err := rows.Scan(
			&msg.ID, &msg.ThreadID, &msg.SenderID, &msg.Content, &msg.Kind, &msg.Seq, &msg.CreatedAt, &readAt,
			&sender.ID, &sender.Username, &displayName, &avatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		if readAt.Valid {
			msg.ReadAt = &readAt.Time
		}
		if displayName.Valid {
			sender.DisplayName = &displayName.String
		}
		if avatarURL.Valid {
			sender.AvatarURL = &avatarURL.String
		}

		msg.Sender = &sender
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// MarkRead, mesajın okundu zamanını bir kez yazar.
//
// read_at IS NULL koşulu sayesinde çifte işaretleme mümkün değildir:
// ikinci çağrı 0 satır günceller, mevcut read_at değeri okunup döner.
// updated=false ile çağıran tekrar yayın yapmaması gerektiğini anlar.
func (r *sqliteMessageRepo) MarkRead(ctx context.Context, messageID string, at time.Time) (time.Time, bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE messages SET read_at = ? WHERE id = ? AND read_at IS NULL",
		at.UTC(), messageID,
	)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to mark message read: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to check mark read result: %w", err)
	}

	var readAt sql.NullTime
	err = r.db.QueryRowContext(ctx,
		"SELECT read_at FROM messages WHERE id = ?", messageID,
	).Scan(&readAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read back read_at: %w", err)
	}
	if !readAt.Valid {
		// UPDATE ile SELECT arası silinme olmadıkça buraya düşülmez
		return time.Time{}, false, fmt.Errorf("read_at missing after mark read")
	}

	return readAt.Time, affected > 0, nil
}

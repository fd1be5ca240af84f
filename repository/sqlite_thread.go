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

// sqliteThreadRepo, ThreadRepository interface'inin SQLite implementasyonu.
type sqliteThreadRepo struct {
	db *sql.DB
}

// NewSQLiteThreadRepo, constructor — interface döner.
func NewSQLiteThreadRepo(db *sql.DB) ThreadRepository {
	return &sqliteThreadRepo{db: db}
}

// Create, yeni bir thread oluşturur.
// q parametresi sayesinde transaction içinde de çağrılabilir —
// service katmanı thread + açılış mesajını tek transaction'da yazar.
func (r *sqliteThreadRepo) Create(ctx context.Context, q database.TxQuerier, thread *models.Thread) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO threads (id, bounty_id, client_id, freelancer_id)
		VALUES (?, ?, ?, ?)
		RETURNING created_at`,
		thread.ID, thread.BountyID, thread.ClientID, thread.FreelancerID,
	).Scan(&thread.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

// GetByID, ID ile thread'i döner.
func (r *sqliteThreadRepo) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var t models.Thread
	var lastMsg sql.NullTime

	err := r.db.QueryRowContext(ctx,
		"SELECT id, bounty_id, client_id, freelancer_id, created_at, last_message_at FROM threads WHERE id = ?",
		id,
	).Scan(&t.ID, &t.BountyID, &t.ClientID, &t.FreelancerID, &t.CreatedAt, &lastMsg)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: thread not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	if lastMsg.Valid {
		t.LastMessageAt = &lastMsg.Time
	}
	return &t, nil
}

// GetByBountyAndUsers, ilan + ikili için mevcut thread'i arar.
// Bulunamazsa nil, nil döner (hata değil) — çağıran yeni thread açar.
func (r *sqliteThreadRepo) GetByBountyAndUsers(ctx context.Context, bountyID, clientID, freelancerID string) (*models.Thread, error) {
	var t models.Thread
	var lastMsg sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, bounty_id, client_id, freelancer_id, created_at, last_message_at
		FROM threads
		WHERE bounty_id = ? AND client_id = ? AND freelancer_id = ?`,
		bountyID, clientID, freelancerID,
	).Scan(&t.ID, &t.BountyID, &t.ClientID, &t.FreelancerID, &t.CreatedAt, &lastMsg)

	if err == sql.ErrNoRows {
		return nil, nil // Thread yok — nil döner (hata değil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}

	if lastMsg.Valid {
		t.LastMessageAt = &lastMsg.Time
	}
	return &t, nil
}

// ListForUser, kullanıcının tüm thread'lerini karşı taraf profiliyle döner.
//
// JOIN mantığı:
// threads.client_id veya freelancer_id eşleşen thread'leri bul,
// karşı tarafı (eşleşmeyen taraf) users tablosuyla JOIN et.
// Okunmamış sayısı: karşı tarafın gönderdiği, read_at'i NULL mesajlar.
// Son mesaj aktivitesine göre sıralanır — en taze konuşma üstte.
func (r *sqliteThreadRepo) ListForUser(ctx context.Context, userID string) ([]models.ThreadWithCounterpart, error) {
	query := `
		SELECT t.id, t.bounty_id, t.created_at, t.last_message_at,
			u.id, u.username, u.display_name, u.avatar_url,
			(SELECT COUNT(*) FROM messages m
				WHERE m.thread_id = t.id AND m.sender_id != ? AND m.read_at IS NULL
				AND m.kind != 'system') AS unread_count
		FROM threads t
		JOIN users u ON u.id = CASE
			WHEN t.client_id = ? THEN t.freelancer_id
			ELSE t.client_id
		END
		WHERE t.client_id = ? OR t.freelancer_id = ?
		ORDER BY COALESCE(t.last_message_at, t.created_at) DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var threads []models.ThreadWithCounterpart
	for rows.Next() {
		var t models.ThreadWithCounterpart
		var user models.User
		var lastMsg sql.NullTime
		var displayName, avatarURL sql.NullString

		if err := rows.Scan(
			&t.ID, &t.BountyID, &t.CreatedAt, &lastMsg,
			&user.ID, &user.Username, &displayName, &avatarURL,
			&t.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}

		if lastMsg.Valid {
			t.LastMessageAt = &lastMsg.Time
		}
		if displayName.Valid {
			user.DisplayName = &displayName.String
		}
		if avatarURL.Valid {
			user.AvatarURL = &avatarURL.String
		}

		t.Counterpart = &user
		threads = append(threads, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	if threads == nil {
		threads = []models.ThreadWithCounterpart{}
	}
	return threads, nil
}

// TouchLastMessage, thread'in son mesaj zamanını günceller.
func (r *sqliteThreadRepo) TouchLastMessage(ctx context.Context, threadID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE threads SET last_message_at = ? WHERE id = ?",
		at.UTC(), threadID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch thread: %w", err)
	}
	return nil
}

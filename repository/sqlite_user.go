package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
)

// sqliteUserRepo, UserRepository interface'inin SQLite implementasyonu.
type sqliteUserRepo struct {
	db *sql.DB
}

// NewSQLiteUserRepo, constructor — interface döner.
func NewSQLiteUserRepo(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

// GetByID, ID ile kullanıcıyı döner.
func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	var displayName, email, avatarURL sql.NullString

	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, display_name, email, avatar_url, created_at FROM users WHERE id = ?",
		id,
	).Scan(&user.ID, &user.Username, &displayName, &email, &avatarURL, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if email.Valid {
		user.Email = &email.String
	}
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}

	return &user, nil
}

// UpsertFromClaims, token claim'lerinden gelen kullanıcı profilini yazar.
// Kayıt yoksa oluşturur, varsa profil alanlarını günceller.
func (r *sqliteUserRepo) UpsertFromClaims(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, email, avatar_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			display_name = excluded.display_name,
			email = excluded.email,
			avatar_url = excluded.avatar_url,
			updated_at = CURRENT_TIMESTAMP`,
		user.ID, user.Username, user.DisplayName, user.Email, user.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

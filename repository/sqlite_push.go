package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ozgurcan/lonca/models"
)

// sqlitePushRepo, PushRepository interface'inin SQLite implementasyonu.
type sqlitePushRepo struct {
	db *sql.DB
}

// NewSQLitePushRepo, constructor — interface döner.
func NewSQLitePushRepo(db *sql.DB) PushRepository {
	return &sqlitePushRepo{db: db}
}

// scopeToJSON, thread kapsamını DB sütununa çevirir.
// nil kapsam NULL olur — "tüm thread'ler" anlamına gelir.
func scopeToJSON(scope []string) (*string, error) {
	if scope == nil {
		return nil, nil
	}
	b, err := json.Marshal(scope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal thread scope: %w", err)
	}
	s := string(b)
	return &s, nil
}

// scopeFromJSON, DB sütunundan thread kapsamını okur.
func scopeFromJSON(raw sql.NullString) ([]string, error) {
	if !raw.Valid {
		return nil, nil
	}
	var scope []string
	if err := json.Unmarshal([]byte(raw.String), &scope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thread scope: %w", err)
	}
	return scope, nil
}

// Upsert, aboneliği kaydeder. Aynı kullanıcı + endpoint tekrar abone
// olursa yeni kayıt açılmaz — anahtarlar ve kapsam güncellenir,
// updated_at tazelenir (retention süpürmesi bu alana bakar).
func (r *sqlitePushRepo) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	scope, err := scopeToJSON(sub.ThreadScope)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, thread_scope)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, endpoint) DO UPDATE SET
			p256dh = excluded.p256dh,
			auth = excluded.auth,
			thread_scope = excluded.thread_scope,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`,
		sub.ID, sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth, scope,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

// ListForUser, kullanıcının tüm push aboneliklerini döner.
// Kapsam filtrelemesi (hangi thread'i kapsıyor) service katmanında
// CoversThread ile yapılır — abonelik sayısı cihaz başına birdir, azdır.
func (r *sqlitePushRepo) ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, endpoint, p256dh, auth, thread_scope, created_at, updated_at
		FROM push_subscriptions
		WHERE user_id = ?
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.PushSubscription
	for rows.Next() {
		var sub models.PushSubscription
		var rawScope sql.NullString

		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dh, &sub.Auth,
			&rawScope, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}

		scope, err := scopeFromJSON(rawScope)
		if err != nil {
			return nil, err
		}
		sub.ThreadScope = scope

		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push subscriptions: %w", err)
	}

	if subs == nil {
		subs = []models.PushSubscription{}
	}
	return subs, nil
}

// DeleteByEndpoint, kullanıcının tek cihaz aboneliğini siler.
// Silinen kayıt yoksa false döner — çağıran 404 verebilir.
func (r *sqlitePushRepo) DeleteByEndpoint(ctx context.Context, userID, endpoint string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?",
		userID, endpoint,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete push subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

// DeleteAllForUser, kullanıcının tüm aboneliklerini siler.
func (r *sqlitePushRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE user_id = ?", userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete push subscriptions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected, nil
}

// DeleteByID, tek aboneliği ID ile siler.
// Push servisi endpoint'ten 404/410 aldığında çağırır — kayıt zaten
// silinmişse sessizce geçilir.
func (r *sqlitePushRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}

// TouchByID, aboneliğin updated_at'ini tazeler. Her başarılı teslimat
// sonrası çağrılır — abonelik "canlı" sayılır ve retention süpürmesinden
// kurtulur. Kayıt bu arada silindiyse sessizce geçilir.
func (r *sqlitePushRepo) TouchByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE push_subscriptions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("failed to touch push subscription: %w", err)
	}
	return nil
}

// DeleteOlderThan, updated_at eşiğinden eski abonelikleri temizler ve
// silinen kayıt sayısını döner.
func (r *sqlitePushRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM push_subscriptions WHERE updated_at < ?", cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale subscriptions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check purge result: %w", err)
	}
	return affected, nil
}

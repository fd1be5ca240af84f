package repository

import (
	"context"
	"time"

	"github.com/ozgurcan/lonca/models"
)

// PushRepository, Web Push aboneliği veritabanı işlemleri için interface.
//
// İşlemler:
//   - Upsert: Aboneliği kaydet — aynı kullanıcı + endpoint varsa anahtarları
//     ve kapsamı güncelle, updated_at'i tazele
//   - ListForUser: Kullanıcının tüm aboneliklerini getir
//   - DeleteByEndpoint: Tek cihazın aboneliğini sil
//   - DeleteAllForUser: Kullanıcının tüm aboneliklerini sil
//   - DeleteByID: Tek abonelik sil (push servisi 404/410 alınca çağırır)
//   - TouchByID: updated_at'i tazele (her başarılı teslimat sonrası —
//     düzenli bildirim alan cihaz retention süpürmesine takılmaz)
//   - DeleteOlderThan: updated_at eşiğinden eski kayıtları temizle
//
// P256dh ve Auth alanları bu katmana ŞİFRELİ gelir/gider —
// şifreleme/çözme service katmanının işidir.
type PushRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	ListForUser(ctx context.Context, userID string) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, userID, endpoint string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	TouchByID(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

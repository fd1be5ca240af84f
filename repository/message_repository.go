package repository

import (
	"context"
	"time"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
)

// MessageRepository, mesaj veritabanı işlemleri için interface.
//
// İşlemler:
//   - Create: Yeni mesaj ekle — thread içi seq numarası INSERT sırasında
//     atanır, msg.Seq ve msg.CreatedAt doldurularak döner
//   - GetByID: Tek mesaj getir (yoksa ErrNotFound)
//   - List: Thread'in mesajlarını seq'e göre artan sırada getir;
//     afterSeq > 0 ise sadece o numaradan sonrakiler (reconnect farkı)
//   - MarkRead: Okundu zamanını bir kez yaz — zaten yazılmışsa mevcut
//     değeri döner (idempotent)
type MessageRepository interface {
	Create(ctx context.Context, q database.TxQuerier, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	List(ctx context.Context, threadID string, afterSeq int64, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID string, at time.Time) (readAt time.Time, updated bool, err error)
}

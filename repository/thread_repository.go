package repository

import (
	"context"
	"time"

	"github.com/ozgurcan/lonca/database"
	"github.com/ozgurcan/lonca/models"
)

// ThreadRepository, konuşma (thread) veritabanı işlemleri için interface.
//
// İşlemler:
//   - Create: Yeni thread oluştur (transaction içinde çağrılabilir —
//     açılış system mesajıyla birlikte atomik yazılır)
//   - GetByID: ID ile thread bul (yoksa ErrNotFound)
//   - GetByBountyAndUsers: İlan + ikili için mevcut thread'i ara (yoksa nil, nil)
//   - ListForUser: Kullanıcının thread'lerini karşı taraf profili ve
//     okunmamış mesaj sayısıyla listele
//   - TouchLastMessage: Son mesaj zamanını güncelle (liste sıralaması için)
type ThreadRepository interface {
	Create(ctx context.Context, q database.TxQuerier, thread *models.Thread) error
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	GetByBountyAndUsers(ctx context.Context, bountyID, clientID, freelancerID string) (*models.Thread, error)
	ListForUser(ctx context.Context, userID string) ([]models.ThreadWithCounterpart, error)
	TouchLastMessage(ctx context.Context, threadID string, at time.Time) error
}

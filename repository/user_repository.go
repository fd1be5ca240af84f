// Package repository, veritabanı erişim katmanıdır.
//
// Her domain için bir interface + SQLite implementasyonu çifti bulunur.
// Service katmanı sadece interface'leri görür — test'te fake, production'da
// SQLite implementasyonu geçilir.
package repository

import (
	"context"

	"github.com/ozgurcan/lonca/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
//
// Kullanıcılar bu serviste OLUŞTURULMAZ — marketplace auth servisinin
// token claim'lerinden senkronize edilir. UpsertFromClaims her token
// doğrulamasında çağrılır, profil değişiklikleri böylece yayılır.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpsertFromClaims(ctx context.Context, user *models.User) error
}

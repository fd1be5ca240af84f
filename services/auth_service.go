// Package services, uygulamanın iş mantığı katmanıdır.
//
// Katman sorumlulukları:
// - Handler: HTTP parse/encode, service'i çağırır
// - Service: İş kuralları, yetki kontrolleri, WS broadcast, push dispatch
// - Repository: Saf veritabanı erişimi
package services

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/pkg"
	"github.com/ozgurcan/lonca/repository"
)

// AuthService, kimlik doğrulama iş mantığı interface'i.
//
// Bu servis token ÜRETMEZ — login/register marketplace'in auth servisinde
// yaşar. Buradaki iş iki adımdır:
//   - ValidateAccessToken: Paylaşılan secret ile JWT imzasını doğrula
//   - SyncUser: Claim'lerdeki profili lokal users tablosuna upsert et
type AuthService interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	SyncUser(ctx context.Context, claims *models.TokenClaims) (*models.User, error)
}

// authService, AuthService interface'inin implementasyonu.
type authService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	issuer    string // Boşsa issuer kontrolü yapılmaz
}

// NewAuthService, constructor.
func NewAuthService(userRepo repository.UserRepository, jwtSecret, issuer string) AuthService {
	return &authService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
	}
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token missing user_id", pkg.ErrUnauthorized)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: unexpected token issuer", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// SyncUser, claim'lerdeki profili lokal users tablosuna yazar ve döner.
// Her authenticated request'te çağrılır — marketplace'te yapılan profil
// değişiklikleri (isim, avatar) bir sonraki istekte buraya yansır.
func (s *authService) SyncUser(ctx context.Context, claims *models.TokenClaims) (*models.User, error) {
	user := &models.User{
		ID:       claims.UserID,
		Username: claims.Username,
	}
	if claims.DisplayName != "" {
		user.DisplayName = &claims.DisplayName
	}
	if claims.Email != "" {
		user.Email = &claims.Email
	}
	if claims.AvatarURL != "" {
		user.AvatarURL = &claims.AvatarURL
	}

	if err := s.userRepo.UpsertFromClaims(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

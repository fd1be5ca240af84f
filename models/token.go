package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, marketplace auth servisinin imzaladığı JWT payload'ı.
//
// Token'lar bu servis tarafından üretilmez, sadece doğrulanır —
// imza anahtarı (JWT_SECRET) iki servis arasında paylaşılır.
// Claim'lerdeki profil alanları lokal users tablosuna senkronize edilir.
//
// Bu struct models paketinde tanımlanır çünkü:
// - Birden fazla katman (services, ws, middleware) tarafından kullanılır
// - Circular dependency'yi önler — her katman models'e bağımlı olabilir
type TokenClaims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

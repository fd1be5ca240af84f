// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır.
// Aynı zamanda API'den gelen/giden verilerin şeklini de belirler.
//
// Kimlik doğrulama harici bir IdP'ye (marketplace'in auth servisi)
// delegedir — bu servis parola tutmaz, kullanıcı kaydını JWT claim'lerinden
// senkronize eder.
package models

import "time"

// User, bir marketplace kullanıcısını temsil eder.
// Kayıt token doğrulama sırasında claim'lerden upsert edilir;
// lokal tablo sadece mesaj listelerinde isim/avatar göstermek içindir.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name"` // *string = nullable — Go'da nil olabilir
	Email       *string   `json:"-"`            // json:"-" → API response'a DAHİL ETME (bildirim fallback'i için)
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

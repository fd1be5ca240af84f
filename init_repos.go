// Package main — Repository katmanı başlatma.
//
// initRepositories, tüm repository implementasyonlarını oluşturur.
// Her repository bir *sql.DB bağlantısı alır ve interface döner.
// main.go'daki wire-up'ı modülerleştirmek için bu dosyaya taşındı.
package main

import (
	"database/sql"

	"github.com/ozgurcan/lonca/repository"
)

// Repositories, tüm repository instance'larını tutan container struct.
//
// Neden struct? Ayrı ayrı değişkenler yerine tek struct kullanmak:
// 1. Fonksiyon imzalarını temiz tutar (tek parametre)
// 2. Yeni repository eklendiğinde sadece struct + initRepositories güncellenir
// 3. IDE auto-complete ile kolay erişim (repos.User, repos.Thread, vb.)
type Repositories struct {
	User    repository.UserRepository
	Thread  repository.ThreadRepository
	Message repository.MessageRepository
	Push    repository.PushRepository
}

// initRepositories, veritabanı bağlantısından tüm repository'leri oluşturur.
//
// Her NewSQLite* fonksiyonu aynı *sql.DB'yi alır — Go'nun sql.DB'si
// thread-safe connection pool'dur, paylaşılması güvenlidir.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:    repository.NewSQLiteUserRepo(conn),
		Thread:  repository.NewSQLiteThreadRepo(conn),
		Message: repository.NewSQLiteMessageRepo(conn),
		Push:    repository.NewSQLitePushRepo(conn),
	}
}

// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Push        PushConfig
	Email       EmailConfig
	Maintenance MaintenanceConfig
	CORS        CORSConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/lonca.db)
}

// JWTConfig, identity provider'ın imzaladığı access token'ları doğrulamak
// için gereken ayarlar. Token ÜRETMEYİZ — kimlik dış serviste, biz sadece
// imzayı doğrular ve claim'leri okuruz.
type JWTConfig struct {
	Secret string // IdP ile paylaşılan HS256 imza anahtarı
	Issuer string // Beklenen "iss" claim değeri (boşsa kontrol edilmez)
}

// PushConfig, Web Push (VAPID) ayarları.
//
// VAPID key çifti push servisine karşı sunucuyu tanıtır — tarayıcıdaki
// subscription bu public key ile kurulur, gönderim private key ile imzalanır.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string // VAPID "sub" — mailto: veya https: URL
	AppURL          string // Bildirim tıklamalarının açacağı uygulama URL'i
	RetentionDays   int    // Kullanılmayan subscription'ların silinme eşiği
	EncryptionKey   string // p256dh/auth key'lerini at-rest şifreleyen hex AES anahtarı
}

// EmailConfig, opsiyonel e-posta fallback bildirimi ayarları (Resend API).
// Üçü de doluysa aktif olur; aksi halde e-posta gönderimi sessizce kapalıdır.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// MaintenanceConfig, zamanlanmış bakım endpoint'inin ayarları.
type MaintenanceConfig struct {
	Token         string // Bearer token — purge endpoint'ini koruyan sır
	SweepInterval int    // Arka plan süpürme aralığı (dakika, 0 = kapalı)
}

// CORSConfig, izin verilen origin listesi.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env yoksa hata vermez, sessizce devam eder.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("PUSH_RETENTION_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_RETENTION_DAYS: %w", err)
	}
	if retentionDays <= 0 {
		return nil, fmt.Errorf("PUSH_RETENTION_DAYS must be positive, got %d", retentionDays)
	}

	sweepInterval, err := strconv.Atoi(getEnv("PUSH_SWEEP_INTERVAL_MINUTES", "360"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUSH_SWEEP_INTERVAL_MINUTES: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	encryptionKey := getEnv("PUSH_ENCRYPTION_KEY", "")
	if encryptionKey == "" {
		return nil, fmt.Errorf("PUSH_ENCRYPTION_KEY environment variable is required")
	}

	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/lonca.db"),
		},
		JWT: JWTConfig{
			Secret: jwtSecret,
			Issuer: getEnv("JWT_ISSUER", ""),
		},
		Push: PushConfig{
			VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
			Subscriber:      getEnv("VAPID_SUBSCRIBER", "mailto:ops@lonca.app"),
			AppURL:          getEnv("APP_URL", "http://localhost:3000"),
			RetentionDays:   retentionDays,
			EncryptionKey:   encryptionKey,
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", "http://localhost:3000"),
		},
		Maintenance: MaintenanceConfig{
			Token:         getEnv("MAINTENANCE_TOKEN", ""),
			SweepInterval: sweepInterval,
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

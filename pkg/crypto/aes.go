// Package crypto — Web Push abonelik anahtarlarını (p256dh, auth)
// veritabanında şifrelenmiş saklamak için AES-256-GCM yardımcıları.
//
// GCM hem gizlilik hem bütünlük sağlar (authenticated encryption); her
// şifrelemede rastgele 12-byte nonce üretildiği için aynı plaintext bile
// her seferinde farklı ciphertext verir.
//
// Kullanım:
//
//	key, _ := crypto.DeriveKey("64-hex-karakter")
//	enc, _ := crypto.Encrypt("secret", key)
//	dec, _ := crypto.Decrypt(enc, key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

// DeriveKey, hex-encoded string'den 32-byte AES-256 anahtarı üretir.
// Girdi tam 64 hex karakter olmalıdır.
func DeriveKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

func gcmFor(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

// Encrypt, plaintext'i AES-256-GCM ile şifreler.
// Dönen değer base64: nonce (12 byte) + ciphertext + auth tag.
func Encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := gcmFor(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	// Seal'ın dst parametresi nonce: nonce ciphertext'e prefix olarak eklenir.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt, Encrypt çıktısını çözer. Yanlış anahtar veya bozulmuş veri
// GCM auth tag doğrulamasında yakalanır.
func Decrypt(encoded string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := gcmFor(key)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Thread, bir ilan (bounty) etrafındaki iki taraflı konuşmayı temsil eder.
//
// Taraflar sabittir: ilan sahibi (ClientID) ve başvuran (FreelancerID).
// Aynı ilan + aynı ikili için tek thread olabilir
// (UNIQUE constraint bounty_id, client_id, freelancer_id üçlüsü üzerinde).
type Thread struct {
	ID           string     `json:"id"`
	BountyID     string     `json:"bounty_id"`
	ClientID     string     `json:"client_id"`
	FreelancerID string     `json:"freelancer_id"`
	CreatedAt    time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"` // Nullable — henüz mesaj yoksa nil
}

// HasParticipant, verilen kullanıcının thread'in taraflarından biri olup
// olmadığını döner. Tüm erişim kontrolleri bu ikili üyelik üzerinden yapılır.
func (t *Thread) HasParticipant(userID string) bool {
	return t.ClientID == userID || t.FreelancerID == userID
}

// Counterpart, verilen kullanıcının karşısındaki tarafın ID'sini döner.
// Kullanıcı taraf değilse boş string döner — çağıran önce HasParticipant
// ile kontrol etmelidir.
func (t *Thread) Counterpart(userID string) string {
	switch userID {
	case t.ClientID:
		return t.FreelancerID
	case t.FreelancerID:
		return t.ClientID
	}
	return ""
}

// ThreadWithCounterpart, thread bilgisi + karşı taraf kullanıcı bilgisi.
// Frontend'de konuşma listesi render etmek için kullanılır —
// kiminle konuştuğunu göstermek için karşı tarafın profili gerekli.
type ThreadWithCounterpart struct {
	ID            string     `json:"id"`
	BountyID      string     `json:"bounty_id"`
	Counterpart   *User      `json:"counterpart"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at"` // Son mesaj aktivitesi — sıralama için
	UnreadCount   int        `json:"unread_count"`    // Karşı tarafın gönderdiği okunmamış mesaj sayısı
}

// CreateThreadRequest, yeni konuşma başlatma isteği.
// İsteği yapan kullanıcı freelancer tarafıdır; ClientID ilan sahibidir.
type CreateThreadRequest struct {
	BountyID string `json:"bounty_id"`
	ClientID string `json:"client_id"`
}

// Validate, CreateThreadRequest'in geçerli olup olmadığını kontrol eder.
func (r *CreateThreadRequest) Validate() error {
	r.BountyID = strings.TrimSpace(r.BountyID)
	r.ClientID = strings.TrimSpace(r.ClientID)

	if r.BountyID == "" {
		return fmt.Errorf("bounty_id is required")
	}
	if r.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}

	return nil
}

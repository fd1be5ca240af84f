package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MessageKind, mesajın içerik türünü temsil eder.
// Go'da enum yoktur, bunun yerine typed constant'lar kullanılır.
type MessageKind string

// İzin verilen MessageKind değerleri.
// "system" türü kullanıcıdan kabul edilmez — sadece server üretir
// (ör: thread açılış mesajı).
const (
	MessageKindText   MessageKind = "text"
	MessageKindFile   MessageKind = "file"
	MessageKindImage  MessageKind = "image"
	MessageKindSystem MessageKind = "system"
)

// maxMessageContentLength, mesaj içeriği için üst sınır (rune cinsinden).
const maxMessageContentLength = 4000

// Message, bir thread içindeki tek bir mesajı temsil eder.
//
// Seq: thread içi monoton artan sıra numarası. Client tarafı mesajları
// created_at yerine seq ile sıralar — saat kaymalarından etkilenmez ve
// boşluk tespiti (kaçırılan mesaj var mı?) mümkün olur.
type Message struct {
	ID        string      `json:"id"`
	ThreadID  string      `json:"thread_id"`
	SenderID  string      `json:"sender_id"`
	Content   string      `json:"content"`
	Kind      MessageKind `json:"kind"`
	Seq       int64       `json:"seq"`
	CreatedAt time.Time   `json:"created_at"`
	ReadAt    *time.Time  `json:"read_at"` // Nullable — karşı taraf henüz okumadıysa nil

	// ClientRef DB'ye yazılmaz — append isteğinden gelen korelasyon ID'si,
	// realtime event'te olduğu gibi geri yansıtılır. Gönderen cihaz bu ID
	// ile kendi optimistic kopyasını sunucu kopyasıyla eşler.
	ClientRef string `json:"client_ref,omitempty"`

	// JOIN ile doldurulan alan — mesaj listelerinde gönderen profili
	Sender *User `json:"sender,omitempty"`
}

// CreateMessageRequest, yeni mesaj gönderme isteği.
//
// ClientRef opsiyonel — gönderen cihazın ürettiği korelasyon ID'si.
// Sunucu bunu saklamaz, sadece yanıtta ve realtime event'te geri döner.
type CreateMessageRequest struct {
	Content   string      `json:"content"`
	Kind      MessageKind `json:"kind,omitempty"`
	ClientRef string      `json:"client_ref,omitempty"`
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
// Kurallar:
//   - Content: boş olamaz, max 4000 karakter
//   - Kind: boşsa "text" varsayılır; "system" client'tan kabul edilmez
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)

	if r.Content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	if utf8.RuneCountInString(r.Content) > maxMessageContentLength {
		return fmt.Errorf("message content cannot exceed %d characters", maxMessageContentLength)
	}

	if r.Kind == "" {
		r.Kind = MessageKindText
	}
	switch r.Kind {
	case MessageKindText, MessageKindFile, MessageKindImage:
		// geçerli
	case MessageKindSystem:
		return fmt.Errorf("system messages cannot be created by clients")
	default:
		return fmt.Errorf("invalid message kind: %s", r.Kind)
	}

	if utf8.RuneCountInString(r.ClientRef) > 64 {
		return fmt.Errorf("client_ref cannot exceed 64 characters")
	}

	return nil
}

// Package reconcile, bir client oturumunun thread görünümünü sunucu
// durumuyla tutarlı tutar.
//
// Problem:
// Client mesajı HTTP ile gönderir ama kopyasını hemen (optimistic) gösterir.
// Aynı mesaj bir de WebSocket event'i olarak geri gelir. Ayrıca bağlantı
// kopup gelince aradaki mesajlar kaçmış olabilir.
//
// ThreadView üç kaynağı tek sıralı listede birleştirir:
// 1. Snapshot: HTTP'den çekilen mesaj listesi (ApplySnapshot)
// 2. Optimistic: Henüz sunucuya ulaşmamış lokal mesajlar (ComposeLocal)
// 3. Realtime: WebSocket event'leri (Apply)
//
// Eşleştirme client_ref (korelasyon ID) ile yapılır: ComposeLocal her lokal
// mesaja benzersiz bir ref verir, sunucu bu ref'i event'te aynen geri yansıtır.
// Ref eşleşirse lokal kopya sunucu kopyasıyla DEĞİŞTİRİLİR — içerik karşılaştırması
// veya gönderen kimliğine bakma gibi kırılgan yöntemlere gerek kalmaz.
//
// Her görünüm tek bir oturuma aittir — aynı kullanıcının iki cihazı iki ayrı
// ThreadView taşır, pending durumları birbirine karışmaz.
package reconcile

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ozgurcan/lonca/models"
	"github.com/ozgurcan/lonca/ws"
)

// ThreadView, tek bir oturumun tek bir thread için mesaj görünümü.
// Tüm metodlar thread-safe'dir.
type ThreadView struct {
	mu sync.Mutex

	threadID string
	userID   string // Oturum sahibi — ComposeLocal mesajlarının göndereni

	// confirmed: sunucu tarafından onaylanmış mesajlar, seq'e göre sıralı.
	confirmed []models.Message

	// seen: onaylanmış mesaj ID seti — aynı event iki kez gelirse
	// (reconnect + diff çekme yarışı) ikinci kopya yoksayılır.
	seen map[string]bool

	// pending: client_ref → henüz sunucu echo'su gelmemiş lokal mesajlar.
	// Eklenme sırası pendingOrder'da tutulur — map iterasyonu sırasızdır.
	pending      map[string]models.Message
	pendingOrder []string

	// lastSeq: görünümün bildiği en yüksek mesaj seq'i.
	// Reconnect sonrası diff çekerken afterSeq parametresi olur.
	lastSeq int64

	connected   bool
	needsResync bool
}

// NewThreadView, verilen thread ve oturum sahibi için boş bir görünüm oluşturur.
func NewThreadView(threadID, userID string) *ThreadView {
	return &ThreadView{
		threadID: threadID,
		userID:   userID,
		seen:     make(map[string]bool),
		pending:  make(map[string]models.Message),
	}
}

// ApplySnapshot, HTTP'den çekilen mesaj listesini görünüme işler.
//
// Snapshot onaylanmış seti TAMAMEN değiştirmez — idempotent merge yapılır:
// görünümde zaten olan mesajlar (ID ile) atlanır, yenileri seq sırasına
// yerleşir. Böylece "diff çek + aynı anda WS event'i gelsin" yarışında
// çift kayıt oluşmaz.
//
// Snapshot'ta client_ref'li mesaj varsa (kendi echo'muz HTTP'den önce
// geldi) ilgili pending kaydı da düşürülür.
func (v *ThreadView) ApplySnapshot(msgs []models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, msg := range msgs {
		v.insertConfirmed(msg)
	}
	v.needsResync = false
}

// ComposeLocal, gönderilmek üzere bir lokal (optimistic) mesaj oluşturur.
//
// Dönen clientRef, HTTP append isteğine client_ref alanı olarak konmalıdır —
// sunucu echo event'inde aynen geri gelir ve Apply lokal kopyayı sunucu
// kopyasıyla değiştirir.
//
// Lokal mesajın Seq'i 0'dır (sunucu atamadı) ve ID'si "local-" önekiyle
// başlar — UI pending durumunu bu önekten anlar.
func (v *ThreadView) ComposeLocal(content string, kind models.MessageKind) (string, models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	clientRef := uuid.New().String()
	msg := models.Message{
		ID:        "local-" + clientRef,
		ThreadID:  v.threadID,
		SenderID:  v.userID,
		Content:   content,
		Kind:      kind,
		CreatedAt: time.Now(),
		ClientRef: clientRef,
	}

	v.pending[clientRef] = msg
	v.pendingOrder = append(v.pendingOrder, clientRef)

	return clientRef, msg
}

// Apply, bir WebSocket event'ini görünüme işler.
//
// Bilinen her op için ayrı dal vardır; tanınmayan op hata DEĞİLDİR —
// sessizce yoksayılır (sunucu yeni event türü eklediğinde eski client
// kırılmamalı). Başka thread'in event'i de yoksayılır.
func (v *ThreadView) Apply(event ws.Event) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch event.Op {
	case ws.OpMessageInserted:
		var msg models.Message
		if err := decodeEventData(event.Data, &msg); err != nil {
			return fmt.Errorf("message_inserted: %w", err)
		}
		if msg.ThreadID != v.threadID {
			return nil
		}
		v.insertConfirmed(msg)

	case ws.OpMessageRead:
		var data ws.MessageReadData
		if err := decodeEventData(event.Data, &data); err != nil {
			return fmt.Errorf("message_read: %w", err)
		}
		if data.ThreadID != v.threadID {
			return nil
		}
		readAt, err := time.Parse(time.RFC3339, data.ReadAt)
		if err != nil {
			return fmt.Errorf("message_read: invalid read_at: %w", err)
		}
		for i := range v.confirmed {
			if v.confirmed[i].ID == data.MessageID {
				v.confirmed[i].ReadAt = &readAt
				break
			}
		}

	case ws.OpHeartbeatAck, ws.OpPresenceSync, ws.OpPresenceJoin, ws.OpPresenceLeave,
		ws.OpSubscribeAck, ws.OpTypingStart, ws.OpThreadCreated:
		// Görünümün mesaj listesini etkilemez

	default:
		// Tanınmayan op — ileri uyumluluk için yoksay
	}

	return nil
}

// insertConfirmed, mesajı onaylanmış sete idempotent şekilde yerleştirir.
// v.mu tutulmuş olmalıdır.
func (v *ThreadView) insertConfirmed(msg models.Message) {
	// Kendi echo'muz mu? client_ref eşleşirse pending düşer.
	if msg.ClientRef != "" {
		if _, ok := v.pending[msg.ClientRef]; ok {
			delete(v.pending, msg.ClientRef)
			for i, ref := range v.pendingOrder {
				if ref == msg.ClientRef {
					v.pendingOrder = append(v.pendingOrder[:i], v.pendingOrder[i+1:]...)
					break
				}
			}
		}
	}

	if v.seen[msg.ID] {
		return
	}
	v.seen[msg.ID] = true

	// Thread seq boşluğu (5'ten sonra 7) → arada mesaj kaçmış, diff çekilmeli.
	// Mesaj seq'i thread içinde boşluksuz arttığı için bu tespit kesindir.
	if v.lastSeq > 0 && msg.Seq > v.lastSeq+1 {
		v.needsResync = true
	}

	v.confirmed = append(v.confirmed, msg)
	// Çoğu durumda mesaj zaten sona eklenir — sort yalnızca diff ve
	// realtime'ın yarıştığı nadir durumda iş yapar.
	sort.SliceStable(v.confirmed, func(i, j int) bool {
		return v.confirmed[i].Seq < v.confirmed[j].Seq
	})

	if msg.Seq > v.lastSeq {
		v.lastSeq = msg.Seq
	}
}

// Messages, görünümün mevcut halini döner: onaylanmış mesajlar seq
// sırasında, ardından gönderilme sırasıyla pending lokal mesajlar.
// Dönen slice kopyadır — çağıran güvenle tutabilir.
func (v *ThreadView) Messages() []models.Message {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]models.Message, 0, len(v.confirmed)+len(v.pendingOrder))
	out = append(out, v.confirmed...)
	for _, ref := range v.pendingOrder {
		out = append(out, v.pending[ref])
	}
	return out
}

// PendingCount, henüz sunucu onayı gelmemiş lokal mesaj sayısını döner.
func (v *ThreadView) PendingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

// LastSeq, görünümün bildiği en yüksek mesaj seq'ini döner.
// Reconnect sonrası GET /messages?after_seq={LastSeq} ile fark çekilir.
func (v *ThreadView) LastSeq() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeq
}

// SetConnected, bağlantı durumunu işler.
// Kopukluk sonrası yeniden bağlanmada needsResync set edilir — kopukluk
// sırasında kaçan event olup olmadığı bilinemez, diff çekmek zorunludur.
func (v *ThreadView) SetConnected(connected bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.connected && connected {
		v.needsResync = true
	}
	v.connected = connected
}

// NeedsResync, görünümün HTTP'den fark çekmesi gerekip gerekmediğini döner.
// ApplySnapshot işlendiğinde bayrak temizlenir.
func (v *ThreadView) NeedsResync() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.needsResync
}

// decodeEventData, event.Data'yı (any — JSON'dan map gelir) hedef struct'a çevirir.
func decodeEventData(data any, target any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

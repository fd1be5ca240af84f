// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Hub: Tüm bağlantıları ve thread aboneliklerini yöneten merkezi yapı
// - Client: Her WebSocket bağlantısını temsil eder
// - Event: Client-server arası iletilen mesaj formatı
//
// Event akışı:
// 1. Kullanıcı mesaj gönderir → HTTP POST → Service → DB kayıt
// 2. Service, Hub'ın BroadcastToThread metodunu çağırır
// 3. Hub, event'i thread'e abone client'lara + her iki tarafın
//    bağlantılarına iletir
// 4. Her client'ın WritePump'ı event'i WebSocket'e yazar
// 5. Frontend event'i alır ve thread görünümünü günceller
package ws

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "message_inserted", "heartbeat" vb.
//   Client tarafı Op alanı üzerinden exhaustive switch yapar;
//   tanımadığı op'u yoksayar (ileri uyumluluk).
// Data: Event'e özgü payload.
// Seq (sequence number): Her outbound event'e verilen global artan sayı.
//   Debug ve log korelasyonu içindir. Boşluk tespiti için KULLANILMAZ —
//   her client event'lerin bir alt kümesini alır, global sayaçta boşluk
//   görmek normaldir. Kaçan mesaj tespiti mesajın kendi thread-içi
//   seq'i ile yapılır.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat       = "heartbeat"        // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpThreadSubscribe = "thread_subscribe" // Açık thread'in canlı event'lerine abone ol
	OpThreadUnsubscribe = "thread_unsubscribe" // Thread aboneliğini iptal et (görünüm kapandı)
	OpTyping          = "typing"           // Kullanıcı thread'de yazıyor
)

// Server → Client operasyonları
const (
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt — "seni duydum"

	OpMessageInserted = "message_inserted" // Thread'e yeni mesaj eklendi
	OpMessageRead     = "message_read"     // Karşı taraf mesajı okudu
	OpThreadCreated   = "thread_created"   // Kullanıcının taraf olduğu yeni thread açıldı

	OpSubscribeAck = "subscribe_ack" // thread_subscribe kabul edildi
	OpSubscribeErr = "subscribe_err" // thread_subscribe reddedildi (taraf değil / thread yok)

	// Presence iki kapsamda çalışır: thread_id boşsa bağlantı (global)
	// kapsamı, doluysa o thread'in izleyici kapsamı kastedilir.
	OpPresenceSync  = "presence_sync"  // Bağlanınca / abone olunca mevcut kullanıcı listesi
	OpPresenceJoin  = "presence_join"  // Bir kullanıcı kapsama katıldı
	OpPresenceLeave = "presence_leave" // Bir kullanıcı kapsamdan ayrıldı

	OpTypingStart = "typing_start" // Thread'de karşı taraf yazıyor
)

// PresenceSyncData, presence_sync payload'ı. Bağlantı kurulduğunda global
// çevrimiçi listesi (ThreadID boş), thread'e abone olununca o thread'in
// izleyici listesi (ThreadID dolu) gönderilir.
type PresenceSyncData struct {
	ThreadID      string   `json:"thread_id,omitempty"`
	OnlineUserIDs []string `json:"online_user_ids"`
}

// PresenceData, presence_join / presence_leave payload'ı.
type PresenceData struct {
	ThreadID string `json:"thread_id,omitempty"`
	UserID   string `json:"user_id"`
}

// ThreadSubscribeData, thread_subscribe / thread_unsubscribe payload'ı.
// subscribe_ack ve subscribe_err yanıtlarında da aynı struct kullanılır.
type ThreadSubscribeData struct {
	ThreadID string `json:"thread_id"`
	Reason   string `json:"reason,omitempty"` // Sadece subscribe_err'de dolu
}

// MessageReadData, message_read event'inin payload'ı.
// Mesajın tamamını tekrar göndermeye gerek yok — client elindeki
// kopyayı ID ile bulup read_at'i işler.
type MessageReadData struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
	ReadAt    string `json:"read_at"` // RFC3339
}

// TypingData, typing event'inin payload'ı (Client → Server).
type TypingData struct {
	ThreadID string `json:"thread_id"`
}

// TypingStartData, typing_start event'inin payload'ı (broadcast edilen).
type TypingStartData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	ThreadID string `json:"thread_id"`
}

package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Bu süre aşılırsa bağlantı kapatılır (ağ sorunu olabilir).
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	// Bu sürede heartbeat gelmezse client bağlantısı kopmuş sayılır.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	// WebSocket'ten sadece kontrol event'leri gelir — mesaj içeriği HTTP ile gönderilir.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) bağlantı kapatılır — client reconnect
	// edip kaçırdığı aralığı HTTP'den çeker.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen event'leri okur (heartbeat, abonelik, typing)
// - WritePump: Hub'dan gelen event'leri client'a yazar
//
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma destekler —
// iki ayrı goroutine ile okuma ve yazma birbirini bloklamaz.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// send, client'a gönderilecek mesajların buffer'landığı channel.
	// Hub `client.send <- data` yapar, WritePump okuyup WS'e yazar.
	send chan []byte

	// threads, bu bağlantının abone olduğu thread ID seti.
	// hub.mu altında erişilir — bağlantı kopunca Hub abonelikleri
	// bu set üzerinden düşürür.
	threads map[string]bool

	mu sync.Mutex // conn.WriteMessage çağrılarını korur
}

// ReadPump, WebSocket bağlantısından gelen event'leri okur ve işler.
// Bağlantı kapanana kadar döngüde kalır; kapandığında Hub'dan çıkış yapar.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// SetReadDeadline: Bu süre içinde mesaj gelmezse Read hata verir.
	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(rawMessage, &event); err != nil {
			log.Printf("[ws] invalid message from user %s: %v", c.userID, err)
			continue
		}

		c.handleEvent(event)
	}
}

// handleEvent, client'dan gelen event'leri türüne göre işler.
func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendEvent(Event{Op: OpHeartbeatAck})

	case OpThreadSubscribe:
		c.handleThreadSubscribe(event)

	case OpThreadUnsubscribe:
		c.handleThreadUnsubscribe(event)

	case OpTyping:
		c.handleTyping(event)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, event.Op)
	}
}

// handleThreadSubscribe, thread_subscribe event'ini işler.
// Üyelik kontrolü Hub'ın authorizer'ına delegedir — taraf olmayan
// kullanıcıya subscribe_err döner, abonelik kurulmaz.
func (c *Client) handleThreadSubscribe(event Event) {
	data, ok := c.decodeSubscribeData(event)
	if !ok {
		return
	}

	if err := c.hub.subscribeThread(c, data.ThreadID); err != nil {
		log.Printf("[ws] subscribe denied: user=%s thread=%s: %v", c.userID, data.ThreadID, err)
		c.sendEvent(Event{
			Op:   OpSubscribeErr,
			Data: ThreadSubscribeData{ThreadID: data.ThreadID, Reason: "not a participant"},
		})
		return
	}

	c.sendEvent(Event{
		Op:   OpSubscribeAck,
		Data: ThreadSubscribeData{ThreadID: data.ThreadID},
	})
}

// handleThreadUnsubscribe, thread_unsubscribe event'ini işler.
func (c *Client) handleThreadUnsubscribe(event Event) {
	data, ok := c.decodeSubscribeData(event)
	if !ok {
		return
	}
	c.hub.unsubscribeThread(c, data.ThreadID)
}

// decodeSubscribeData, abonelik event'lerinin ortak payload parse'ı.
//
// json.Marshal + json.Unmarshal neden?
// event.Data tipi `any` (interface{}), doğrudan cast edemeyiz.
// JSON'a çevirip tekrar parse etmek en güvenli yöntem.
func (c *Client) decodeSubscribeData(event Event) (ThreadSubscribeData, bool) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return ThreadSubscribeData{}, false
	}

	var data ThreadSubscribeData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return ThreadSubscribeData{}, false
	}

	if data.ThreadID == "" {
		log.Printf("[ws] %s without thread_id from user %s", event.Op, c.userID)
		return ThreadSubscribeData{}, false
	}

	return data, true
}

// handleTyping, typing event'ini işler ve thread abonelerine broadcast eder.
// Abone olunmamış thread için typing gönderilmesi yoksayılır —
// abonelik üyelik kontrolünden geçtiği için bu aynı zamanda yetki filtresidir.
func (c *Client) handleTyping(event Event) {
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return
	}

	var typing TypingData
	if err := json.Unmarshal(dataBytes, &typing); err != nil {
		return
	}

	if typing.ThreadID == "" {
		return
	}

	c.hub.mu.RLock()
	subscribed := c.threads[typing.ThreadID]
	c.hub.mu.RUnlock()
	if !subscribed {
		return
	}

	c.hub.broadcastToThreadExcept(c, typing.ThreadID, Event{
		Op: OpTypingStart,
		Data: TypingStartData{
			UserID:   c.userID,
			Username: c.hub.getUserUsername(c.userID),
			ThreadID: typing.ThreadID,
		},
	})
}

// sendEvent, client'a tek bir event gönderir.
func (c *Client) sendEvent(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal event for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
		// Başarıyla buffer'a eklendi
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, Hub'dan gelen mesajları WebSocket bağlantısına yazar.
// send channel'dan mesaj bekler; channel kapanınca bağlantıyı kapatır.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket conn'a aynı anda birden fazla yazma YASAK.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

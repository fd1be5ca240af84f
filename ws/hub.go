package ws

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
)

// EventPublisher, service katmanının WebSocket event'leri broadcast etmek için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken fake EventPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type EventPublisher interface {
	BroadcastToThread(threadID string, event Event)
	BroadcastToUser(userID string, event Event)
	IsUserOnline(userID string) bool
	GetOnlineUserIDs() []string
}

// ThreadAuthorizer, bir kullanıcının thread'e abone olma yetkisini kontrol eder.
// Pratikte bu thread service'tir — ws → services circular dependency'sini
// önlemek için küçük bir fonksiyon tipi olarak tanımlanır, main.go bağlar.
type ThreadAuthorizer func(userID, threadID string) error

// Hub, tüm WebSocket bağlantılarını ve thread aboneliklerini yöneten
// merkezi yapıdır (Observer pattern).
//
// İki seviyeli takip yapılır:
//   - clients: userID → Client set (bir kullanıcının birden fazla cihazı olabilir)
//   - threadSubs: threadID → Client set (thread görünümü açık olan bağlantılar)
//
// Abonelik bağlantı bazlıdır, kullanıcı bazlı değil: aynı kullanıcının
// telefonu thread'i açıkken laptop'u kapalı olabilir. Her bağlantı kendi
// aboneliklerini yönetir; bağlantı kopunca abonelikleri de düşer.
type Hub struct {
	// map[string]map[*Client]bool — Go'da set yoktur, map[*Client]bool kullanılır.
	clients    map[string]map[*Client]bool
	threadSubs map[string]map[*Client]bool

	// mu: clients ve threadSubs map'lerini koruyan read-write mutex.
	// Okuma ağırlıklı erişimde (broadcast) RLock paralel çalışır.
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	// Hub.Run() goroutine'i bu channel'lardan `select` ile okur.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound event'e verilen artan sayaç.
	// atomic.Int64: Birden fazla goroutine'in güvenle artırabildiği sayı.
	seq atomic.Int64

	// usernames: userID → username cache (typing broadcast için).
	usernames map[string]string
	userMu    sync.RWMutex

	// authorize: thread_subscribe isteklerinde üyelik kontrolü.
	// main.go'da SetThreadAuthorizer ile bağlanır.
	authorize ThreadAuthorizer
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		threadSubs: make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		usernames:  make(map[string]string),
	}
}

// SetThreadAuthorizer, abonelik yetki kontrolünü bağlar.
// Hub çalışmaya başlamadan önce (main.go'da) çağrılmalıdır.
func (h *Hub) SetThreadAuthorizer(fn ThreadAuthorizer) {
	h.authorize = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler.
// Kullanıcının İLK bağlantısıysa diğerlerine presence_join duyurulur;
// ikinci cihaz presence değiştirmez.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()

	firstConnection := len(h.clients[client.userID]) == 0
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s (total connections for user: %d)",
		client.userID, len(h.clients[client.userID]))

	h.mu.Unlock()

	// Yeni bağlantıya mevcut çevrimiçi listesi gönderilir — client
	// presence durumunu bu snapshot'tan kurar, sonrasını join/leave izler.
	client.sendEvent(Event{
		Op:   OpPresenceSync,
		Data: PresenceSyncData{OnlineUserIDs: h.GetOnlineUserIDs()},
		Seq:  h.seq.Add(1),
	})

	if firstConnection {
		h.broadcastToAllExcept(client.userID, Event{
			Op:   OpPresenceJoin,
			Data: PresenceData{UserID: client.userID},
		})
	}
}

// removeClient, bir client'ı Hub'dan çıkarır, thread aboneliklerini düşürür
// ve send channel'ını kapatır. Kullanıcının SON bağlantısıysa global
// presence_leave, thread'lerdeki son aboneliğiyse thread kapsamlı
// presence_leave duyurulur.
func (h *Hub) removeClient(client *Client) {
	type threadLeave struct {
		threadID string
		peers    []*Client
	}

	h.mu.Lock()

	lastConnection := false
	var leaves []threadLeave
	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			for threadID := range client.threads {
				if peers, userLeft := h.dropThreadSub(threadID, client); userLeft {
					leaves = append(leaves, threadLeave{threadID: threadID, peers: peers})
				}
			}

			if len(clients) == 0 {
				delete(h.clients, client.userID)
				lastConnection = true
				log.Printf("[ws] user fully disconnected: %s", client.userID)
			} else {
				log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
					client.userID, len(clients))
			}
		}
	}

	h.mu.Unlock()

	for _, leave := range leaves {
		h.sendToClients(leave.peers, Event{
			Op:   OpPresenceLeave,
			Data: PresenceData{ThreadID: leave.threadID, UserID: client.userID},
		})
	}

	if lastConnection {
		h.broadcastToAllExcept(client.userID, Event{
			Op:   OpPresenceLeave,
			Data: PresenceData{UserID: client.userID},
		})
	}
}

// subscribeThread, bağlantıyı thread'in abone setine ekler.
// Yetki kontrolü authorizer'a delegedir — taraf olmayan kullanıcı reddedilir.
//
// Başarılı abonelik thread kapsamlı presence üretir: abone thread'in mevcut
// izleyici listesini (presence_sync) alır, diğer aboneler de kullanıcının bu
// thread'deki İLK bağlantısıysa presence_join duyurusu alır.
func (h *Hub) subscribeThread(client *Client, threadID string) error {
	if h.authorize != nil {
		if err := h.authorize(client.userID, threadID); err != nil {
			return err
		}
	}

	h.mu.Lock()

	if _, ok := h.threadSubs[threadID]; !ok {
		h.threadSubs[threadID] = make(map[*Client]bool)
	}
	firstSub := !h.threadHasUserLocked(threadID, client.userID)
	h.threadSubs[threadID][client] = true
	client.threads[threadID] = true

	watcherIDs := h.threadWatcherIDsLocked(threadID)
	var peers []*Client
	if firstSub {
		peers = h.threadPeersLocked(threadID, client.userID)
	}

	h.mu.Unlock()

	client.sendEvent(Event{
		Op:   OpPresenceSync,
		Data: PresenceSyncData{ThreadID: threadID, OnlineUserIDs: watcherIDs},
		Seq:  h.seq.Add(1),
	})

	if firstSub {
		h.sendToClients(peers, Event{
			Op:   OpPresenceJoin,
			Data: PresenceData{ThreadID: threadID, UserID: client.userID},
		})
	}

	return nil
}

// unsubscribeThread, bağlantının thread aboneliğini iptal eder.
// Abone olunmamış thread için no-op'tur. Kullanıcının thread'deki SON
// bağlantısıysa kalan abonelere presence_leave duyurulur.
func (h *Hub) unsubscribeThread(client *Client, threadID string) {
	h.mu.Lock()
	peers, userLeft := h.dropThreadSub(threadID, client)
	delete(client.threads, threadID)
	h.mu.Unlock()

	if userLeft {
		h.sendToClients(peers, Event{
			Op:   OpPresenceLeave,
			Data: PresenceData{ThreadID: threadID, UserID: client.userID},
		})
	}
}

// dropThreadSub, abone setinden client'ı çıkarır. h.mu tutulmuş olmalıdır.
//
// Dönüş: kullanıcının thread'deki son aboneliği düştüyse (userLeft=true)
// presence_leave gönderilmesi gereken kalan aboneler. Aynı kullanıcının
// başka bir cihazı hâlâ abone ise leave duyurulmaz.
func (h *Hub) dropThreadSub(threadID string, client *Client) (peers []*Client, userLeft bool) {
	subs, ok := h.threadSubs[threadID]
	if !ok {
		return nil, false
	}
	if _, exists := subs[client]; !exists {
		return nil, false
	}

	delete(subs, client)
	if len(subs) == 0 {
		delete(h.threadSubs, threadID)
		return nil, true
	}

	for peer := range subs {
		if peer.userID == client.userID {
			return nil, false
		}
	}
	peers = make([]*Client, 0, len(subs))
	for peer := range subs {
		peers = append(peers, peer)
	}
	return peers, true
}

// threadHasUserLocked, kullanıcının thread'e abone bir bağlantısı var mı?
// h.mu tutulmuş olmalıdır.
func (h *Hub) threadHasUserLocked(threadID, userID string) bool {
	for client := range h.threadSubs[threadID] {
		if client.userID == userID {
			return true
		}
	}
	return false
}

// threadWatcherIDsLocked, thread'e abone kullanıcı ID'lerini tekilleştirip
// döner. h.mu tutulmuş olmalıdır.
func (h *Hub) threadWatcherIDsLocked(threadID string) []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(h.threadSubs[threadID]))
	for client := range h.threadSubs[threadID] {
		if !seen[client.userID] {
			seen[client.userID] = true
			ids = append(ids, client.userID)
		}
	}
	return ids
}

// threadPeersLocked, verilen kullanıcı dışındaki thread abonelerini döner.
// h.mu tutulmuş olmalıdır.
func (h *Hub) threadPeersLocked(threadID, excludeUserID string) []*Client {
	var peers []*Client
	for client := range h.threadSubs[threadID] {
		if client.userID == excludeUserID {
			continue
		}
		peers = append(peers, client)
	}
	return peers
}

// sendToClients, event'i verilen bağlantılara lock tutmadan iletir.
func (h *Hub) sendToClients(clients []*Client, event Event) {
	if len(clients) == 0 {
		return
	}
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal presence event: %v", err)
		return
	}

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// BroadcastToThread, thread'e abone tüm bağlantılara event gönderir.
// Aboneler zaten üyelik kontrolünden geçmiştir — ek filtre gerekmez.
func (h *Hub) BroadcastToThread(threadID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal thread event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.threadSubs[threadID] {
		select {
		case client.send <- data:
		default:
			// Buffer dolu — bu client yavaş, kapat
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// broadcastToThreadExcept, gönderen bağlantı hariç thread abonelerine event
// gönderir. Typing indicator'da kullanılır — yazan kişi kendi typing
// event'ini almaz (aynı kullanıcının diğer cihazları alır).
func (h *Hub) broadcastToThreadExcept(exclude *Client, threadID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal thread event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.threadSubs[threadID] {
		if client == exclude {
			continue
		}
		select {
		case client.send <- data:
		default:
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// BroadcastToUser, belirli bir kullanıcının tüm bağlantılarına event gönderir.
// Thread aboneliğinden bağımsızdır — thread listesi açık ama görünüm kapalı
// olan cihazlar da (unread sayacı için) event'i alır.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal user event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[userID]; ok {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// broadcastToAllExcept, belirli bir kullanıcı hariç tüm client'lara event
// gönderir. Presence duyurularında kullanılır — kullanıcı kendi join/leave
// event'ini almaz.
func (h *Hub) broadcastToAllExcept(excludeUserID string, event Event) {
	event.Seq = h.seq.Add(1)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] failed to marshal broadcast event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, clients := range h.clients {
		if userID == excludeUserID {
			continue
		}
		for client := range clients {
			select {
			case client.send <- data:
			default:
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
}

// IsUserOnline, kullanıcının en az bir açık bağlantısı olup olmadığını döner.
// Push servisi bunu dispatch kararında kullanır — çevrimiçi kullanıcıya
// push gönderilmez, event zaten WebSocket'ten ulaşır.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// GetOnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// SetUserUsername, kullanıcı bağlandığında username cache'ini günceller.
func (h *Hub) SetUserUsername(userID, username string) {
	h.userMu.Lock()
	defer h.userMu.Unlock()
	h.usernames[userID] = username
}

// getUserUsername, userID'den username döner (typing broadcast için).
func (h *Hub) getUserUsername(userID string) string {
	h.userMu.RLock()
	defer h.userMu.RUnlock()
	return h.usernames[userID]
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.threadSubs = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}

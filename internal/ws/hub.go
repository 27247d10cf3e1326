package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mkuleshov/gigmarket-backend/internal/goroutine"
	"github.com/mkuleshov/gigmarket-backend/internal/logger"
)

// NotificationSaver сохраняет отправленное событие как уведомление в БД.
type NotificationSaver interface {
	CreateNotification(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

type envelope struct {
	userID  uuid.UUID
	payload []byte
}

// Hub держит активные websocket-подключения, сгруппированные по пользователю.
// У одного пользователя может быть несколько подключений (вкладки, устройства).
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	saver   NotificationSaver

	outbox chan envelope
	ctx    context.Context
}

func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		outbox:  make(chan envelope, 64),
		ctx:     ctx,
	}
}

// SetNotificationSaver задаёт сервис персистентных уведомлений.
func (h *Hub) SetNotificationSaver(saver NotificationSaver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saver = saver
}

// Run доставляет события из очереди подключённым клиентам
// до отмены контекста хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case msg := <-h.outbox:
			h.deliver(msg.userID, msg.payload)
		}
	}
}

// Register добавляет подключение пользователя.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.userID] = conns
	}
	conns[client] = struct{}{}
}

// Unregister убирает подключение. Последнее подключение пользователя
// удаляет и его запись целиком.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
}

// BroadcastToUser шлёт событие во все подключения пользователя и
// параллельно сохраняет его как уведомление в БД.
// Формат кадра: {"type": <событие>, "data": <нагрузка>}.
func (h *Hub) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	raw, err := json.Marshal(map[string]any{"type": event, "data": data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать событие %s: %w", event, err)
	}

	h.mu.RLock()
	saver := h.saver
	h.mu.RUnlock()

	if saver != nil {
		goroutine.SafeGo(func() {
			if err := saver.CreateNotification(h.ctx, userID, event, data); err != nil {
				logger.Log.Errorf("ws: не удалось сохранить уведомление %s: %v", event, err)
			}
		})
	}

	select {
	case h.outbox <- envelope{userID: userID, payload: raw}:
	case <-h.ctx.Done():
	}
	return nil
}

func (h *Hub) deliver(userID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Переполненный буфер означает зависшее подключение.
			goroutine.SafeGo(client.Close)
		}
	}
}

package websocket

import (
	"bytes"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"riskcore/internal/models"
)

// ============ ОПТИМИЗАЦИЯ: sync.Pool для JSON буферов ============
// Убирает аллокации при каждом Broadcast

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512)) // начальный размер 512 байт
	},
}

// ============ Типизированные сообщения (без map[string]interface{}) ============
// Избегаем рефлексии при сериализации - Go оптимизирует для известных типов

// RiskAlertMessage - сообщение о новом риск-алерте
type RiskAlertMessage struct {
	Type string            `json:"type"`
	Data *models.RiskAlert `json:"data"`
}

// MetricsUpdateMessage - сообщение со снимком метрик риска
type MetricsUpdateMessage struct {
	Type string             `json:"type"`
	Data models.RiskMetrics `json:"data"`
}

// PositionUpdateMessage - сообщение об изменении позиции
type PositionUpdateMessage struct {
	Type   string      `json:"type"`
	Symbol string      `json:"symbol"`
	Side   string      `json:"side"`
	Data   interface{} `json:"data"`
}

// BalanceUpdateMessage - сообщение об обновлении баланса
type BalanceUpdateMessage struct {
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Центральный менеджер для broadcast сообщений всем подключенным клиентам.
// Обеспечивает real-time поток алертов и метрик риска без polling.
//
// Функции:
// - Регистрация новых WebSocket клиентов
// - Отмена регистрации отключенных клиентов
// - Broadcast сообщений всем активным клиентам
// - Маршрутизация сообщений по типам (riskAlert, metricsUpdate, positionUpdate)
// - Очистка отключенных и медленных соединений
// - Потокобезопасная работа с клиентами (sync.RWMutex)
//
// Типы сообщений:
// - riskAlert: новый алерт риск-движка
// - metricsUpdate: свежий снимок метрик риска
// - positionUpdate: изменение позиции (открытие, цена, закрытие)
// - balanceUpdate: обновление баланса
//
// Использование:
// 1. Создать hub: hub := NewHub()
// 2. Запустить в горутине: go hub.Run()
// 3. Отправлять сообщения: hub.Broadcast(message)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки главного цикла
	stop chan struct{}

	// Счетчик сообщений, отброшенных при переполнении broadcast канала
	dropped atomic.Int64

	// Mutex для потокобезопасного доступа к clients
	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Обрабатывает регистрацию, отмену регистрации и broadcast.
// Отправка идет без блокировки hub-а: список клиентов копируется
// под коротким RLock, медленные клиенты удаляются после рассылки.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Client connected. Total clients: %d", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Client disconnected. Total clients: %d", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			// Отправляем без блокировки (не блокируем register/unregister)
			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает обрабатывать сообщения
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				log.Printf("Removed %d slow clients. Total clients: %d", len(toRemove), len(h.clients))
			}
		}
	}
}

// Broadcast отправляет сообщение всем подключенным клиентам.
// Использует sync.Pool для буферов сериализации.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		jsonBufferPool.Put(buf)
		return
	}

	// Убираем trailing newline от Encode
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Копируем данные (буфер вернётся в пул)
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)

	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// BroadcastRaw отправляет уже сериализованные данные.
// Не блокируется: при переполнении канала сообщение отбрасывается.
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}

// Stop останавливает главный цикл Hub
func (h *Hub) Stop() {
	close(h.stop)
}

// Publish реализует risk.AlertSink: принятые алерты уходят в поток
func (h *Hub) Publish(alert *models.RiskAlert) {
	h.BroadcastRiskAlert(alert)
}

// BroadcastRiskAlert отправляет новый риск-алерт
func (h *Hub) BroadcastRiskAlert(alert *models.RiskAlert) {
	h.Broadcast(&RiskAlertMessage{
		Type: "riskAlert",
		Data: alert,
	})
}

// BroadcastMetrics отправляет снимок метрик риска
func (h *Hub) BroadcastMetrics(metrics models.RiskMetrics) {
	h.Broadcast(&MetricsUpdateMessage{
		Type: "metricsUpdate",
		Data: metrics,
	})
}

// BroadcastPositionUpdate отправляет изменение позиции
func (h *Hub) BroadcastPositionUpdate(symbol, side string, data interface{}) {
	h.Broadcast(&PositionUpdateMessage{
		Type:   "positionUpdate",
		Symbol: symbol,
		Side:   side,
		Data:   data,
	})
}

// BroadcastBalanceUpdate отправляет обновление баланса
func (h *Hub) BroadcastBalanceUpdate(balance float64) {
	h.Broadcast(&BalanceUpdateMessage{
		Type:    "balanceUpdate",
		Balance: balance,
	})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

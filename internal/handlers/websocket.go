package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/litemark/internal/common"
	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local interface only
	},
}

const writeTimeout = 5 * time.Second

// WSMessage is the envelope for every message sent to clients
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocketHandler pushes task progress and backup status to connected clients
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	progressInterval time.Duration
	limiters         map[string]*rate.Limiter // per task id
	limiterMu        sync.Mutex
	serverInstanceID string // clients use this to detect a server restart
}

// NewWebSocketHandler creates the handler and subscribes it to progress events when eventService is set
func NewWebSocketHandler(eventService interfaces.EventService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	interval := 250 * time.Millisecond
	if config != nil {
		interval = common.ParseDurationOr(config.ProgressInterval, interval)
	}

	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		progressInterval: interval,
		limiters:         make(map[string]*rate.Limiter),
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().
		Str("server_instance_id", h.serverInstanceID).
		Dur("progress_interval", interval).
		Msg("WebSocket handler initialized")

	if eventService != nil {
		h.subscribe()
	}

	return h
}

func (h *WebSocketHandler) subscribe() {
	if err := h.eventService.Subscribe(interfaces.EventTaskProgress, h.onTaskProgress); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to subscribe to task progress")
	}
	if err := h.eventService.Subscribe(interfaces.EventBackupStatus, h.onBackupStatus); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to subscribe to backup status")
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	mutex := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = mutex
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", total).Msg("WebSocket client connected")

	h.send(conn, mutex, WSMessage{
		Type: "connected",
		Payload: map[string]string{
			"server_instance_id": h.serverInstanceID,
			"version":            common.GetVersion(),
		},
	})

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	// Read until the client goes away; inbound messages are ignored
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) onTaskProgress(ctx context.Context, event interfaces.Event) error {
	progress, ok := event.Payload.(models.TaskProgress)
	if !ok {
		return nil
	}
	if !h.allowProgress(progress) {
		return nil
	}
	h.Broadcast(WSMessage{Type: string(interfaces.EventTaskProgress), Payload: progress.View()})
	return nil
}

func (h *WebSocketHandler) onBackupStatus(ctx context.Context, event interfaces.Event) error {
	h.Broadcast(WSMessage{Type: string(interfaces.EventBackupStatus), Payload: event.Payload})
	return nil
}

// allowProgress throttles intermediate snapshots per task. Terminal snapshots always pass
// and release the task's limiter.
func (h *WebSocketHandler) allowProgress(progress models.TaskProgress) bool {
	h.limiterMu.Lock()
	defer h.limiterMu.Unlock()

	if progress.Status.IsTerminal() {
		delete(h.limiters, progress.TaskID)
		return true
	}
	if h.progressInterval <= 0 {
		return true
	}

	limiter, ok := h.limiters[progress.TaskID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.progressInterval), 1)
		h.limiters[progress.TaskID] = limiter
	}
	return limiter.Allow()
}

// Broadcast sends msg to every connected client. Failed writes are logged and skipped.
func (h *WebSocketHandler) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mutex := range h.clients {
		conns = append(conns, conn)
		mutexes = append(mutexes, mutex)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		h.write(conn, mutexes[i], data)
	}
}

func (h *WebSocketHandler) send(conn *websocket.Conn, mutex *sync.Mutex, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}
	h.write(conn, mutex, data)
}

func (h *WebSocketHandler) write(conn *websocket.Conn, mutex *sync.Mutex, data []byte) {
	mutex.Lock()
	defer mutex.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send WebSocket message")
	}
}

package handlers

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

// envelope is the wire frame for every server-to-client event.
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub routes outbound events to the websocket connection owning each session.
// It implements evaluation.Emitter. Events for sessions with no registered
// connection are dropped; the orchestrator does not care whether anyone is
// listening.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]chan []byte)}
}

func (h *Hub) Register(sessionID string, send chan []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID] = send
}

// Unregister removes the session's outbound channel and closes it, which
// terminates the connection's write pump.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	send, ok := h.clients[sessionID]
	if ok {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()

	if ok {
		close(send)
	}
}

func (h *Hub) Emit(sessionID, event string, payload interface{}) {
	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		logger.Error("Failed to marshal event",
			zap.String("event", event),
			zap.Error(err),
		)
		return
	}

	// The send stays under the read lock so Unregister cannot close the
	// channel mid-send. The select never blocks, so holding the lock is fine.
	h.mu.RLock()
	defer h.mu.RUnlock()

	send, ok := h.clients[sessionID]
	if !ok {
		return
	}

	select {
	case send <- data:
	default:
		logger.Warn("Client send buffer full, dropping event",
			zap.String("session_id", sessionID),
			zap.String("event", event),
		)
	}
}

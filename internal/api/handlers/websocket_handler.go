package handlers

import (
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adolfdaniel/browser-genai-eval/internal/evaluation"
	"github.com/adolfdaniel/browser-genai-eval/internal/metrics"
	"github.com/adolfdaniel/browser-genai-eval/internal/session"
	"github.com/adolfdaniel/browser-genai-eval/pkg/logger"
)

const sendBufferSize = 256

// Client-to-server events.
const (
	eventSummarizationResult = "summarization_result"
	eventStatusUpdate        = "status_update"
	eventSummarizationAck    = "summarization_acknowledged"
)

type WebSocketHandler struct {
	store        *session.Store
	orchestrator *evaluation.Orchestrator
	hub          *Hub
}

func NewWebSocketHandler(store *session.Store, orchestrator *evaluation.Orchestrator, hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		store:        store,
		orchestrator: orchestrator,
		hub:          hub,
	}
}

// HandleConnection owns one browser connection: it creates the session on
// connect, pumps outbound events from the hub, feeds inbound summarization
// results to the orchestrator, and destroys the session on disconnect.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := uuid.NewString()

	sess, err := h.store.Create(sessionID)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		c.Close()
		return
	}

	logger.Info("Client connected", zap.String("session_id", sessionID))
	metrics.ConnectedSessions.Inc()

	send := make(chan []byte, sendBufferSize)
	h.hub.Register(sessionID, send)

	writeDone := make(chan struct{})
	go h.writePump(c, send, writeDone)

	h.hub.Emit(sessionID, eventStatusUpdate, sess.Snapshot())

	h.readLoop(c, sessionID)

	// Unregister closes the send channel, which stops the write pump; wait
	// for it before closing the socket.
	h.hub.Unregister(sessionID)
	<-writeDone

	h.store.Destroy(sessionID)
	metrics.ConnectedSessions.Dec()

	c.Close()
	logger.Info("Client disconnected", zap.String("session_id", sessionID))
}

func (h *WebSocketHandler) writePump(c *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	defer close(done)

	for data := range send {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("Failed to write websocket message", zap.Error(err))
			// Drain remaining events so Unregister's close unblocks cleanly.
			for range send {
			}
			return
		}
	}
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type summarizationResult struct {
	RequestID     string `json:"request_id"`
	ArticleID     int    `json:"article_id"`
	Configuration string `json:"configuration"`
	Summary       string `json:"summary"`
	Error         string `json:"error"`
}

func (h *WebSocketHandler) readLoop(c *websocket.Conn, sessionID string) {
	for {
		var msg inboundMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Websocket read ended", zap.String("session_id", sessionID), zap.Error(err))
			return
		}

		switch msg.Event {
		case eventSummarizationResult:
			h.handleResult(sessionID, msg.Data)
		default:
			logger.Debug("Ignoring unknown client event",
				zap.String("session_id", sessionID),
				zap.String("event", msg.Event),
			)
		}
	}
}

func (h *WebSocketHandler) handleResult(sessionID string, data json.RawMessage) {
	var result summarizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warn("Malformed summarization result",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return
	}

	err := h.orchestrator.HandleResponse(sessionID, result.RequestID, evaluation.Response{
		ArticleID:     result.ArticleID,
		Configuration: result.Configuration,
		Summary:       result.Summary,
		ErrorMessage:  result.Error,
	})
	if err != nil {
		logger.Warn("Failed to handle summarization result",
			zap.String("session_id", sessionID),
			zap.String("request_id", result.RequestID),
			zap.Error(err),
		)
		return
	}

	h.hub.Emit(sessionID, eventSummarizationAck, map[string]interface{}{
		"request_id": result.RequestID,
		"article_id": result.ArticleID,
	})
}

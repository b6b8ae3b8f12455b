// Package live streams score updates to connected browsers over
// WebSocket.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mventris/heartlens/internal/domain"
)

const writeTimeout = 5 * time.Second

// Event is one message pushed to subscribers.
type Event struct {
	Type       string                 `json:"type"` // "scores" or "report"
	SessionID  string                 `json:"sessionId,omitempty"`
	RiskScore  int                    `json:"riskScore,omitempty"`
	Categories *domain.CategoryScores `json:"categories,omitempty"`
	FlagCount  int                    `json:"flagCount,omitempty"`
	Analysis   *domain.RiskAnalysis   `json:"analysis,omitempty"`
}

// Hub tracks WebSocket subscribers per identity and fans events out to
// them. It implements session.Listener.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[*websocket.Conn]struct{}
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{active: make(map[string]map[*websocket.Conn]struct{})}
}

// Register adds a subscriber connection for an identity.
func (h *Hub) Register(identityID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[identityID]; !exists {
		h.active[identityID] = make(map[*websocket.Conn]struct{})
	}
	h.active[identityID][conn] = struct{}{}
	slog.Info("Score subscriber registered", "identity_id", identityID)
}

// Unregister removes a subscriber connection.
func (h *Hub) Unregister(identityID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.active[identityID]; ok {
		if _, exists := conns[conn]; exists {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.active, identityID)
			}
			slog.Info("Score subscriber unregistered", "identity_id", identityID)
		}
	}
}

// ScoresUpdated pushes the live scores after an accepted turn.
func (h *Hub) ScoresUpdated(identityID string, snapshot domain.Session) {
	categories := snapshot.Categories
	h.broadcast(identityID, Event{
		Type:       "scores",
		SessionID:  snapshot.ID,
		RiskScore:  snapshot.RiskScore,
		Categories: &categories,
		FlagCount:  len(snapshot.RedFlags),
	})
}

// SessionCompleted pushes the final report.
func (h *Hub) SessionCompleted(identityID string, report domain.RiskAnalysis) {
	h.broadcast(identityID, Event{
		Type:      "report",
		RiskScore: report.OverallScore,
		Analysis:  &report,
	})
}

func (h *Hub) broadcast(identityID string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal live event", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.active[identityID]))
	for conn := range h.active[identityID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			// Dead subscriber; the read loop will unregister it.
			slog.Debug("Failed to push live event", "identity_id", identityID, "error", err)
		}
		cancel()
	}
}

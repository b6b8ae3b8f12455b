package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/mventris/heartlens/internal/domain"
	"github.com/mventris/heartlens/internal/identity"
)

const testAnonID = "anon_0123456789abcdef0123456789abcdef"

func dialSubscriber(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	handler := NewWebSocketHandler(hub, "", true)
	mux := http.NewServeMux()
	mux.Handle("/ws/scores", identity.Middleware(true)(handler))
	srv := httptest.NewServer(mux)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

	header := http.Header{}
	header.Set("Cookie", identity.AnonCookieName+"="+testAnonID)
	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws/scores", &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		cancel()
		srv.Close()
		t.Fatalf("failed to dial websocket: %v", err)
	}

	cleanup := func() {
		_ = conn.Close(websocket.StatusNormalClosure, "done")
		cancel()
		srv.Close()
	}
	return conn, cleanup
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return event
}

func waitForSubscriber(t *testing.T, hub *Hub) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		n := len(hub.active[testAnonID])
		hub.mu.RUnlock()
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("subscriber never registered")
}

func TestHubPushesScoreUpdates(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	conn, cleanup := dialSubscriber(t, hub)
	defer cleanup()
	waitForSubscriber(t, hub)

	hub.ScoresUpdated(testAnonID, domain.Session{
		ID:        "sess-1",
		RiskScore: 41,
		Categories: domain.CategoryScores{
			Communication: 30,
			Trust:         90,
		},
		RedFlags: []domain.RedFlag{{ID: "f1"}, {ID: "f2"}},
	})

	event := readEvent(t, conn)
	if event.Type != "scores" {
		t.Errorf("expected scores event, got %q", event.Type)
	}
	if event.RiskScore != 41 || event.FlagCount != 2 {
		t.Errorf("unexpected event payload: %+v", event)
	}
	if event.Categories == nil || event.Categories.Trust != 90 {
		t.Errorf("unexpected categories: %+v", event.Categories)
	}
}

func TestHubPushesFinalReport(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	conn, cleanup := dialSubscriber(t, hub)
	defer cleanup()
	waitForSubscriber(t, hub)

	hub.SessionCompleted(testAnonID, domain.RiskAnalysis{
		OverallScore:     77,
		InvestmentAdvice: domain.AdviceCriticalRisk,
	})

	event := readEvent(t, conn)
	if event.Type != "report" {
		t.Errorf("expected report event, got %q", event.Type)
	}
	if event.Analysis == nil || event.Analysis.OverallScore != 77 {
		t.Errorf("unexpected analysis payload: %+v", event.Analysis)
	}
}

func TestHubIsolatesIdentities(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	conn, cleanup := dialSubscriber(t, hub)
	defer cleanup()
	waitForSubscriber(t, hub)

	// An update for a different identity never reaches this subscriber.
	hub.ScoresUpdated("anon_ffffffffffffffffffffffffffffffff", domain.Session{RiskScore: 99})
	hub.ScoresUpdated(testAnonID, domain.Session{ID: "mine", RiskScore: 12})

	event := readEvent(t, conn)
	if event.SessionID != "mine" || event.RiskScore != 12 {
		t.Errorf("received an event for the wrong identity: %+v", event)
	}
}

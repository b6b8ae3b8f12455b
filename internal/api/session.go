package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mventris/heartlens/internal/domain"
	"github.com/mventris/heartlens/internal/identity"
	"github.com/mventris/heartlens/internal/session"
	"github.com/mventris/heartlens/internal/therapist"
)

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/", h.GetSession)
		r.Delete("/", h.ResetSession)
		r.Post("/message", h.SendMessage)
		r.Post("/complete", h.CompleteSession)
	})
}

// sessionView is the snapshot shape consumed by the presentation layer.
type sessionView struct {
	SessionID   string                `json:"sessionId"`
	Messages    []domain.Message      `json:"messages"`
	RedFlags    []domain.RedFlag      `json:"redFlags"`
	RiskScore   int                   `json:"riskScore"`
	Categories  domain.CategoryScores `json:"categories"`
	IsComplete  bool                  `json:"isComplete"`
	StartedAt   string                `json:"startedAt"`
	CompletedAt *string               `json:"completedAt,omitempty"`
	Analysis    *domain.RiskAnalysis  `json:"analysis,omitempty"`
}

func viewOf(sess *domain.Session, analysis *domain.RiskAnalysis) sessionView {
	v := sessionView{
		SessionID:  sess.ID,
		Messages:   sess.Messages,
		RedFlags:   sess.RedFlags,
		RiskScore:  sess.RiskScore,
		Categories: sess.Categories,
		IsComplete: sess.IsComplete(),
		StartedAt:  sess.StartedAt.Format(time.RFC3339),
		Analysis:   analysis,
	}
	if sess.CompletedAt != nil {
		s := sess.CompletedAt.Format(time.RFC3339)
		v.CompletedAt = &s
	}
	return v
}

// StartSession begins a new therapy session for the caller's identity.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	identityID := identity.IdentityIDFromContext(r.Context())
	if identityID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sess, err := h.svc.Start(r.Context(), identityID)
	if err != nil {
		if errors.Is(err, session.ErrSessionActive) {
			Error(w, http.StatusConflict, "a session is already in progress")
			return
		}
		slog.Error("Failed to start session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	JSON(w, http.StatusCreated, viewOf(sess, nil))
}

// GetSession returns the current session snapshot for live display.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	identityID := identity.IdentityIDFromContext(r.Context())
	if identityID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sess, analysis := h.svc.Snapshot(identityID)
	if sess == nil {
		Error(w, http.StatusNotFound, "no session started")
		return
	}
	JSON(w, http.StatusOK, viewOf(sess, analysis))
}

type sendMessageRequest struct {
	Content      string `json:"content"`
	OpenAIAPIKey string `json:"openaiApiKey,omitempty"`
}

// SendMessage submits one user turn.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identityID := identity.IdentityIDFromContext(r.Context())
	if identityID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		Error(w, http.StatusBadRequest, "content is required")
		return
	}

	sess, err := h.svc.SendMessage(r.Context(), identityID, req.Content, req.OpenAIAPIKey)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotActive):
			Error(w, http.StatusNotFound, "no active session")
		case errors.Is(err, session.ErrTurnInFlight):
			Error(w, http.StatusConflict, "a message is already being processed")
		case errors.Is(err, therapist.ErrMissingAPIKey):
			Error(w, http.StatusBadRequest, "OpenAI API key not configured: please provide an OpenAI API key to use the therapy chat")
		default:
			slog.Error("Turn failed", "error", err)
			Error(w, http.StatusBadGateway, "failed to get a response, please try again")
		}
		return
	}

	JSON(w, http.StatusOK, viewOf(sess, nil))
}

// CompleteSession finalizes the session and returns the risk analysis.
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	identityID := identity.IdentityIDFromContext(r.Context())
	if identityID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.svc.Complete(r.Context(), identityID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotActive):
			Error(w, http.StatusNotFound, "no active session")
		case errors.Is(err, session.ErrTurnInFlight):
			Error(w, http.StatusConflict, "a message is still being processed")
		case errors.Is(err, session.ErrTooFewExchanges):
			Error(w, http.StatusBadRequest, "keep talking a little longer before completing the session")
		default:
			slog.Error("Failed to complete session", "error", err)
			Error(w, http.StatusInternalServerError, "failed to complete session")
		}
		return
	}

	JSON(w, http.StatusOK, report)
}

// ResetSession discards the caller's in-memory session state.
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	identityID := identity.IdentityIDFromContext(r.Context())
	if identityID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.svc.Reset(identityID)
	JSON(w, http.StatusOK, map[string]bool{"reset": true})
}

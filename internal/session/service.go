// Package session implements the therapy session orchestrator: the
// NotStarted -> Active -> Completed state machine, turn handling against
// the chat collaborator, and live score recomputation.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mventris/heartlens/internal/domain"
	"github.com/mventris/heartlens/internal/scoring"
	"github.com/mventris/heartlens/internal/store"
	"github.com/mventris/heartlens/internal/therapist"
)

var (
	// ErrSessionActive is returned when starting while a session exists.
	ErrSessionActive = errors.New("a session is already in progress")
	// ErrSessionNotActive is returned for turns against a missing or
	// completed session.
	ErrSessionNotActive = errors.New("no active session")
	// ErrTurnInFlight is returned when a turn is submitted while the
	// previous one has not finished.
	ErrTurnInFlight = errors.New("a message is already being processed")
	// ErrTooFewExchanges is returned when completion is requested before
	// the minimum-exchange gate.
	ErrTooFewExchanges = errors.New("not enough exchanges to complete the session")
)

// Listener receives live updates for presentation. Calls are made
// synchronously on the turn that produced them.
type Listener interface {
	// ScoresUpdated fires after every accepted turn with a snapshot of
	// the session, including recomputed scores.
	ScoresUpdated(identityID string, snapshot domain.Session)
	// SessionCompleted fires once with the final report.
	SessionCompleted(identityID string, report domain.RiskAnalysis)
}

// state is the in-memory record for one identity's session.
type state struct {
	session  domain.Session
	analysis *domain.RiskAnalysis
	inFlight bool
}

// Service orchestrates therapy sessions, one per identity.
type Service struct {
	repo         store.Repository
	exchanger    therapist.Exchanger
	listener     Listener
	minExchanges int

	mu       sync.Mutex
	sessions map[string]*state
}

// NewService creates a session orchestrator.
func NewService(repo store.Repository, exchanger therapist.Exchanger, minExchanges int) *Service {
	return &Service{
		repo:         repo,
		exchanger:    exchanger,
		minExchanges: minExchanges,
		sessions:     make(map[string]*state),
	}
}

// SetListener registers the live-update listener. Must be called before
// the service starts handling requests.
func (s *Service) SetListener(l Listener) {
	s.listener = l
}

// Start transitions NotStarted -> Active: it creates the session record
// and the initial assistant greeting.
func (s *Service) Start(ctx context.Context, identityID string) (*domain.Session, error) {
	s.mu.Lock()
	if st, ok := s.sessions[identityID]; ok && !st.session.IsComplete() {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	s.mu.Unlock()

	now := time.Now().UTC()
	greeting := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   therapist.Greeting,
		Timestamp: now,
	}
	sess := domain.Session{
		ID:        uuid.NewString(),
		Phase:     domain.PhaseActive,
		Messages:  []domain.Message{greeting},
		RedFlags:  []domain.RedFlag{},
		StartedAt: now,
	}

	if err := s.repo.CreateSession(ctx, &sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if err := s.repo.AppendMessage(ctx, sess.ID, greeting); err != nil {
		return nil, fmt.Errorf("persist greeting: %w", err)
	}

	s.mu.Lock()
	if st, ok := s.sessions[identityID]; ok && !st.session.IsComplete() {
		// Lost a race with a concurrent start; the persisted row for
		// this attempt is harmless in the append-only log.
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	s.sessions[identityID] = &state{session: sess}
	s.mu.Unlock()

	slog.Info("Session started", "session_id", sess.ID)
	snapshot := copySession(&sess)
	return &snapshot, nil
}

// SendMessage handles one user turn: round-trip to the therapist,
// validation and accumulation of extracted flags, full score
// recomputation. On any failure the in-memory state is left untouched so
// the user can retry the same action.
func (s *Service) SendMessage(ctx context.Context, identityID, content, apiKeyOverride string) (*domain.Session, error) {
	s.mu.Lock()
	st, ok := s.sessions[identityID]
	if !ok || st.session.IsComplete() {
		s.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	if st.inFlight {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	st.inFlight = true
	history := append(copyMessages(st.session.Messages), domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	sessionID := st.session.ID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		st.inFlight = false
		s.mu.Unlock()
	}()

	exchange, err := s.exchanger.Exchange(ctx, history, apiKeyOverride)
	if err != nil {
		return nil, fmt.Errorf("chat collaborator: %w", err)
	}

	userMsg := history[len(history)-1]
	assistantMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   exchange.Message,
		Timestamp: time.Now().UTC(),
	}

	if err := s.repo.AppendMessage(ctx, sessionID, userMsg); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	if err := s.repo.AppendMessage(ctx, sessionID, assistantMsg); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	accepted := s.acceptFlags(ctx, sessionID, exchange.RedFlags)

	s.mu.Lock()
	st.session.Messages = append(st.session.Messages, userMsg, assistantMsg)
	st.session.RedFlags = append(st.session.RedFlags, accepted...)
	// Full recomputation from the complete accumulated collection,
	// never an incremental patch.
	st.session.Categories = scoring.CategoryScores(st.session.RedFlags)
	st.session.RiskScore = scoring.OverallScore(st.session.Categories)
	snapshot := copySession(&st.session)
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.ScoresUpdated(identityID, snapshot)
	}
	return &snapshot, nil
}

// acceptFlags validates raw records against the closed vocabulary,
// persists the accepted ones, and returns them. Records with unknown
// labels are dropped; the turn itself is not failed.
func (s *Service) acceptFlags(ctx context.Context, sessionID string, raw []therapist.RawFlag) []domain.RedFlag {
	accepted := make([]domain.RedFlag, 0, len(raw))
	for _, rf := range raw {
		category, err := domain.ParseCategory(rf.Category)
		if err != nil {
			slog.Warn("Dropping red flag with unknown category", "category", rf.Category, "session_id", sessionID)
			continue
		}
		severity, err := domain.ParseSeverity(rf.Severity)
		if err != nil {
			slog.Warn("Dropping red flag with unknown severity", "severity", rf.Severity, "session_id", sessionID)
			continue
		}

		flag := domain.RedFlag{
			ID:          uuid.NewString(),
			Category:    category,
			Severity:    severity,
			Description: rf.Description,
			Weight:      rf.Weight,
			DetectedAt:  time.Now().UTC(),
		}
		if err := s.repo.AppendRedFlag(ctx, sessionID, flag); err != nil {
			slog.Error("Failed to persist red flag", "session_id", sessionID, "error", err)
			continue
		}
		accepted = append(accepted, flag)
	}
	return accepted
}

// Complete transitions Active -> Completed: it runs the full analysis
// pipeline once over the accumulated flags and freezes the report. The
// minimum-exchange gate must be satisfied, and a session with no user
// messages can never be completed.
func (s *Service) Complete(ctx context.Context, identityID string) (*domain.RiskAnalysis, error) {
	s.mu.Lock()
	st, ok := s.sessions[identityID]
	if !ok || st.session.IsComplete() {
		s.mu.Unlock()
		return nil, ErrSessionNotActive
	}
	if st.inFlight {
		s.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	userMessages := st.session.UserMessageCount()
	if userMessages == 0 || userMessages < s.minExchanges {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: have %d of %d user messages", ErrTooFewExchanges, userMessages, s.minExchanges)
	}

	analysis := scoring.Analyze(st.session.RedFlags)
	now := time.Now().UTC()
	st.session.Phase = domain.PhaseCompleted
	st.session.CompletedAt = &now
	st.session.RiskScore = analysis.OverallScore
	st.session.Categories = analysis.Categories
	st.analysis = &analysis
	persistCopy := copySession(&st.session)
	s.mu.Unlock()

	if err := s.repo.CompleteSession(ctx, &persistCopy); err != nil {
		// Roll back so the user can retry completion.
		s.mu.Lock()
		st.session.Phase = domain.PhaseActive
		st.session.CompletedAt = nil
		st.analysis = nil
		s.mu.Unlock()
		return nil, fmt.Errorf("persist completion: %w", err)
	}

	if s.listener != nil {
		s.listener.SessionCompleted(identityID, analysis)
	}
	slog.Info("Session completed", "session_id", persistCopy.ID, "risk_score", analysis.OverallScore)
	return &analysis, nil
}

// Reset discards all in-memory state for an identity. Persisted history
// is retained.
func (s *Service) Reset(identityID string) {
	s.mu.Lock()
	delete(s.sessions, identityID)
	s.mu.Unlock()
}

// Snapshot returns a copy of the identity's session and, once complete,
// its final report. Returns nil when no session has been started.
func (s *Service) Snapshot(identityID string) (*domain.Session, *domain.RiskAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[identityID]
	if !ok {
		return nil, nil
	}
	snapshot := copySession(&st.session)
	return &snapshot, st.analysis
}

func copyMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

func copySession(sess *domain.Session) domain.Session {
	out := *sess
	out.Messages = copyMessages(sess.Messages)
	out.RedFlags = make([]domain.RedFlag, len(sess.RedFlags))
	copy(out.RedFlags, sess.RedFlags)
	return out
}

package domain

import (
	"time"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseActive     Phase = "active"
	PhaseCompleted  Phase = "completed"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single chat message in a session.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the live state of one therapy conversation.
type Session struct {
	ID          string         `json:"sessionId"`
	Phase       Phase          `json:"phase"`
	Messages    []Message      `json:"messages"`
	RedFlags    []RedFlag      `json:"redFlags"`
	RiskScore   int            `json:"riskScore"`
	Categories  CategoryScores `json:"categories"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// UserMessageCount returns the number of user-authored messages.
func (s *Session) UserMessageCount() int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// IsComplete reports whether the session has been finalized.
func (s *Session) IsComplete() bool {
	return s.Phase == PhaseCompleted
}

// Package therapist implements the chat collaborator: the OpenAI-backed
// conversational therapist that extracts red-flag observations from each
// exchange.
package therapist

import (
	"context"
	"errors"

	"github.com/mventris/heartlens/internal/domain"
)

// ErrMissingAPIKey is returned before any model call is attempted when
// no API key is configured and none was supplied with the request.
var ErrMissingAPIKey = errors.New("OpenAI API key not configured: provide one to use the therapy chat")

// RawFlag is a red-flag record as emitted by the model, prior to
// validation against the closed category/severity vocabulary.
type RawFlag struct {
	Category    string  `json:"category"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Exchange is the result of one assistant turn: the user-visible reply
// plus zero or more extracted red-flag records.
type Exchange struct {
	Message  string
	RedFlags []RawFlag
}

// Exchanger is the boundary the session orchestrator talks to.
type Exchanger interface {
	// Exchange sends the full conversation history and returns the
	// assistant's reply with any extracted red flags. apiKeyOverride, if
	// non-empty, takes precedence over the configured key for this call.
	Exchange(ctx context.Context, history []domain.Message, apiKeyOverride string) (*Exchange, error)
}

package therapist

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

var redFlagBlock = regexp.MustCompile(`(?s)\[RED_FLAGS\](.*?)\[/RED_FLAGS\]`)

type flagsPayload struct {
	Flags []RawFlag `json:"flags"`
}

// extractRedFlags splits an assistant reply into the user-visible
// message and any red-flag records embedded in a [RED_FLAGS] block.
// A missing block means zero flags; a block that fails to parse also
// degrades to zero flags rather than failing the turn, and the block is
// stripped from the message either way.
func extractRedFlags(reply string) (message string, flags []RawFlag) {
	match := redFlagBlock.FindStringSubmatch(reply)
	if match == nil {
		return strings.TrimSpace(reply), nil
	}

	message = strings.TrimSpace(redFlagBlock.ReplaceAllString(reply, ""))

	var payload flagsPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &payload); err != nil {
		slog.Warn("Failed to parse red flags block, treating as empty", "error", err)
		return message, nil
	}
	return message, payload.Flags
}

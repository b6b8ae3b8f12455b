package domain

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"Communication", CategoryCommunication, false},
		{"Trust", CategoryTrust, false},
		{"Emotional Intelligence", CategoryEmotionalIntelligence, false},
		{"emotionalintelligence", CategoryEmotionalIntelligence, false},
		{"Future Alignment", CategoryFutureAlignment, false},
		{"futurealignment", CategoryFutureAlignment, false},
		{"  FUTURE   ALIGNMENT ", CategoryFutureAlignment, false},
		{"Finances", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCategory(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCategory(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCategory(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"low", "Medium", " HIGH ", "critical"} {
		if _, err := ParseSeverity(in); err != nil {
			t.Errorf("ParseSeverity(%q) failed: %v", in, err)
		}
	}
	if _, err := ParseSeverity("catastrophic"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestCategoryMatches(t *testing.T) {
	t.Parallel()

	if !CategoryFutureAlignment.Matches("futurealignment") {
		t.Error("matching should ignore case and whitespace")
	}
	if CategoryTrust.Matches("communication") {
		t.Error("distinct categories must not match")
	}
}

func TestUserMessageCount(t *testing.T) {
	t.Parallel()

	s := Session{Messages: []Message{
		{Role: RoleAssistant},
		{Role: RoleUser},
		{Role: RoleAssistant},
		{Role: RoleUser},
	}}
	if got := s.UserMessageCount(); got != 2 {
		t.Errorf("expected 2 user messages, got %d", got)
	}
}

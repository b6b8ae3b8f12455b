// Package domain contains core domain types for the HeartLens application.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category is one of the four fixed relationship dimensions red flags
// are grouped under.
type Category string

const (
	CategoryCommunication         Category = "Communication"
	CategoryTrust                 Category = "Trust"
	CategoryEmotionalIntelligence Category = "Emotional Intelligence"
	CategoryFutureAlignment       Category = "Future Alignment"
)

// Categories lists all categories in their canonical order. The order is
// significant: next-step suggestions are emitted in this order.
var Categories = []Category{
	CategoryCommunication,
	CategoryTrust,
	CategoryEmotionalIntelligence,
	CategoryFutureAlignment,
}

// NormalizeCategory folds case and strips all whitespace so that
// "Future Alignment" and "futurealignment" compare equal.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// ParseCategory resolves a free-form category label to its canonical
// Category. Matching is case- and whitespace-insensitive.
func ParseCategory(s string) (Category, error) {
	norm := NormalizeCategory(s)
	for _, c := range Categories {
		if NormalizeCategory(string(c)) == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Matches reports whether a free-form label refers to this category.
func (c Category) Matches(label string) bool {
	return NormalizeCategory(string(c)) == NormalizeCategory(label)
}

// Severity is the ordinal seriousness rating of a red flag.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity resolves a severity label, tolerating case and
// surrounding whitespace.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, nil
	case SeverityMedium:
		return SeverityMedium, nil
	case SeverityHigh:
		return SeverityHigh, nil
	case SeverityCritical:
		return SeverityCritical, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// RedFlag is a single categorized, severity-rated observation extracted
// from the conversation. Immutable once created.
type RedFlag struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Weight      float64   `json:"weight"`
	DetectedAt  time.Time `json:"detectedAt"`
}

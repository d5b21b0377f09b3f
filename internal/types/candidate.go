package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Candidate is one profile result scraped from a search page.
// ProfileURL is the uniqueness key; JSON tags match the shape sent to the ranking oracle.
type Candidate struct {
	Title      string `json:"title"`
	ProfileURL string `json:"link"`
	Snippet    string `json:"snippet"`
}

// Confidence is the oracle's self-reported certainty for a match.
type Confidence string

// Confidence levels accepted from the oracle.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence maps a case-insensitive level onto the enum.
// The second return value is false for anything outside High/Medium/Low.
func ParseConfidence(s string) (Confidence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return ConfidenceHigh, true
	case "medium":
		return ConfidenceMedium, true
	case "low":
		return ConfidenceLow, true
	default:
		return "", false
	}
}

// RankedMatch is the oracle's pick among the candidates for a company.
type RankedMatch struct {
	Name       string     `json:"name" validate:"required"`
	JobTitle   string     `json:"title"`
	ProfileURL string     `json:"link"`
	Confidence Confidence `json:"confidence" validate:"required,oneof=High Medium Low"`
	Reasoning  string     `json:"reasoning"`
}

// Validate checks required fields and the confidence enum.
func (m *RankedMatch) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}

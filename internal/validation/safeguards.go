// Package validation guards the ranking prompt against instructions planted in scraped text.
package validation

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/types"
)

// Redacted replaces text that matched an injection pattern.
const Redacted = "[REDACTED]"

// InjectionCheckResult holds the result of a basic injection heuristic check.
type InjectionCheckResult struct {
	IsSafe           bool     // Whether the content passed the basic heuristic check
	DetectedKeywords []string // Any suspicious keywords found
	Reason           string   // Human-readable explanation
}

// BasicInjectionKeywords are phrases that rarely appear in a search-result title
// or snippet unless someone is addressing the model directly.
var BasicInjectionKeywords = []string{
	"ignore previous",
	"ignore all",
	"disregard above",
	"forget everything",
	"system prompt",
	"new instructions",
	"act as if you",
	"you are now",
	"roleplay",
	"respond with",
	"output json",
}

// CheckBasicHeuristics performs a keyword check for obvious injection attempts.
func CheckBasicHeuristics(text string) *InjectionCheckResult {
	lowerText := strings.ToLower(text)
	var detectedKeywords []string

	for _, keyword := range BasicInjectionKeywords {
		if strings.Contains(lowerText, keyword) {
			detectedKeywords = append(detectedKeywords, keyword)
		}
	}

	if len(detectedKeywords) > 0 {
		return &InjectionCheckResult{
			IsSafe:           false,
			DetectedKeywords: detectedKeywords,
			Reason:           "detected potential injection keywords: " + strings.Join(detectedKeywords, ", "),
		}
	}

	return &InjectionCheckResult{IsSafe: true}
}

// commonInjectionPatterns are regex patterns for obvious injection attempts.
var commonInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)(\s+instructions?)?`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|everything)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+an?\b`),
	regexp.MustCompile(`(?i)act\s+as\s+if\s+you\s+(are|were)\s+an?\b`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)(set|mark)\s+(the\s+)?(confidence|accuracy)\s+(to\s+)?high`),
}

// StripInjectionAttempts replaces common injection patterns in text.
func StripInjectionAttempts(text string) string {
	result := text
	for _, pattern := range commonInjectionPatterns {
		result = pattern.ReplaceAllString(result, Redacted)
	}
	return result
}

// SanitizeCandidates returns a copy of candidates with injection patterns removed
// from titles and snippets. Links are left untouched so a chosen link can still be
// matched against the originals. Suspicious candidates are logged, never dropped.
func SanitizeCandidates(company string, candidates []types.Candidate) []types.Candidate {
	out := make([]types.Candidate, len(candidates))
	for i, c := range candidates {
		if check := CheckBasicHeuristics(c.Title + "\n" + c.Snippet); !check.IsSafe {
			zap.L().Warn("suspicious candidate text",
				zap.String("company", company),
				zap.String("link", c.ProfileURL),
				zap.Strings("keywords", check.DetectedKeywords),
			)
		}
		out[i] = types.Candidate{
			Title:      StripInjectionAttempts(c.Title),
			ProfileURL: c.ProfileURL,
			Snippet:    StripInjectionAttempts(c.Snippet),
		}
	}
	return out
}

// Package types provides type definitions for structured data used throughout the talent-scout system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Sentinel values written into degraded result rows.
const (
	DomainUnknown = "N/A"
	ValueError    = "Error"
	Placeholder   = "-"

	NameNotFound  = "Not Found"
	NameNoResults = "No Results"

	ReasonMismatch  = "AI Mismatch"
	ReasonNoResults = "No Google Results"
	ReasonCancelled = "Cancelled"
)

// CompanyTask is a single company queued for processing.
// Position is 1-based and matches the company's place in the input list.
type CompanyTask struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// NewTasks builds the ordered task list for a run.
func NewTasks(companies []string) []CompanyTask {
	tasks := make([]CompanyTask, len(companies))
	for i, name := range companies {
		tasks[i] = CompanyTask{Name: name, Position: i + 1}
	}
	return tasks
}

// CompanyResult is the output row for one company. Exactly one is produced per
// CompanyTask, in input order, even when every step for that company failed.
type CompanyResult struct {
	Company    string     `json:"company" csv:"Company"`
	Domain     string     `json:"domain" csv:"Domain"`
	Name       string     `json:"name" csv:"Name"`
	JobTitle   string     `json:"title" csv:"Job Title"`
	ProfileURL string     `json:"link" csv:"LinkedIn Profile"`
	Confidence Confidence `json:"accuracy" csv:"AI Confidence"`
	Reasoning  string     `json:"reasoning" csv:"AI Reasoning"`
}

// MatchedResult builds the row for a company where the oracle picked a contact.
func MatchedResult(company, domain string, match *RankedMatch) CompanyResult {
	return CompanyResult{
		Company:    company,
		Domain:     domain,
		Name:       match.Name,
		JobTitle:   orPlaceholder(match.JobTitle),
		ProfileURL: orPlaceholder(match.ProfileURL),
		Confidence: match.Confidence,
		Reasoning:  match.Reasoning,
	}
}

// NotFoundResult is recorded when candidates existed but the oracle gave no usable match.
func NotFoundResult(company, domain string) CompanyResult {
	return CompanyResult{
		Company:    company,
		Domain:     domain,
		Name:       NameNotFound,
		JobTitle:   Placeholder,
		ProfileURL: Placeholder,
		Confidence: ConfidenceLow,
		Reasoning:  ReasonMismatch,
	}
}

// NoResultsResult is recorded when the search page yielded no profile candidates.
func NoResultsResult(company, domain string) CompanyResult {
	return CompanyResult{
		Company:    company,
		Domain:     domain,
		Name:       NameNoResults,
		JobTitle:   Placeholder,
		ProfileURL: Placeholder,
		Confidence: ConfidenceLow,
		Reasoning:  ReasonNoResults,
	}
}

// ErrorResult is recorded when processing the company failed outright.
func ErrorResult(company, reason string) CompanyResult {
	return CompanyResult{
		Company:    company,
		Domain:     ValueError,
		Name:       ValueError,
		JobTitle:   Placeholder,
		ProfileURL: Placeholder,
		Confidence: ConfidenceLow,
		Reasoning:  reason,
	}
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

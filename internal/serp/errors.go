// Package serp extracts structured data from rendered search-engine result pages.
package serp

import "fmt"

// ExtractionError represents a failure to read a result page.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// DomainError represents a failure to turn a result link into a hostname.
type DomainError struct {
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("domain error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("domain error: %s", e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

package fetch

import "fmt"

// Error represents a failed browser operation.
type Error struct {
	Op      string
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	target := e.Op
	if e.URL != "" {
		target = fmt.Sprintf("%s %s", e.Op, e.URL)
	}
	if e.Cause != nil {
		return fmt.Sprintf("browser error during %s: %s: %v", target, e.Message, e.Cause)
	}
	return fmt.Sprintf("browser error during %s: %s", target, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

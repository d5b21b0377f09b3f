// Package observability provides formatted console output for CLI runs.
package observability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/pipeline"
	"github.com/jonathan/talent-scout/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted console output. Writes are serialized so events and
// result rows from different goroutines do not interleave.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintEvent writes one progress line as the run advances.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case events.KindCaptcha:
		fmt.Fprintf(p.out, "⚠ %s\n", ev.Message)
	case events.KindError:
		fmt.Fprintf(p.out, "✗ %s\n", ev.Message)
	default:
		fmt.Fprintf(p.out, "  %s\n", ev.Message)
	}
}

// PrintResult writes the row recorded for one company. Its signature matches
// pipeline.ResultCallback.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResult(task types.CompanyTask, r types.CompanyResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case pipeline.IsCancelled(r):
		fmt.Fprintf(p.out, "  [%d] %s: cancelled\n", task.Position, task.Name)
	case r.Domain == types.ValueError:
		fmt.Fprintf(p.out, "  [%d] %s: error\n", task.Position, task.Name)
	case r.Name == types.NameNotFound || r.Name == types.NameNoResults:
		fmt.Fprintf(p.out, "  [%d] %s: %s\n", task.Position, task.Name, r.Name)
	default:
		fmt.Fprintf(p.out, "  [%d] %s: %s, %s (%s)\n", task.Position, task.Name, r.Name, r.JobTitle, r.Confidence)
	}
}

// PrintSummary outputs the outcome counts and where the results were written.
func (p *Printer) PrintSummary(s pipeline.Summary, output string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Companies:   %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("Matched:     %d\n", s.Matched))
	sb.WriteString(fmt.Sprintf("Not found:   %d\n", s.NotFound))
	sb.WriteString(fmt.Sprintf("No results:  %d\n", s.NoResults))
	sb.WriteString(fmt.Sprintf("Errors:      %d", s.Errors))
	if s.Cancelled > 0 {
		sb.WriteString(fmt.Sprintf("\nCancelled:   %d", s.Cancelled))
	}
	if output != "" {
		sb.WriteString(fmt.Sprintf("\n\nSaved to: %s", output))
	}

	p.printBox("RUN SUMMARY", sb.String())
}

// PrintMatches outputs the first matched contacts.
func (p *Printer) PrintMatches(results []types.CompanyResult) {
	matched := make([]types.CompanyResult, 0, len(results))
	for _, r := range results {
		if r.Domain == types.ValueError || r.Name == types.NameNotFound || r.Name == types.NameNoResults {
			continue
		}
		matched = append(matched, r)
	}
	if len(matched) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(matched), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := matched[i]
		sb.WriteString(fmt.Sprintf("%s (%s)\n", r.Company, r.Domain))
		sb.WriteString(fmt.Sprintf("  %s", r.Name))
		if r.JobTitle != types.Placeholder {
			sb.WriteString(fmt.Sprintf(", %s", r.JobTitle))
		}
		sb.WriteString(fmt.Sprintf(" [%s]\n", r.Confidence))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(matched) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more matches", len(matched)-maxItemsToShow))
	}

	p.printBox("MATCHED CONTACTS", strings.TrimSuffix(sb.String(), "\n"))
}

// truncate shortens s to limit runes, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

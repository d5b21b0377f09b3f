//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTasks_PreservesOrderAndPositions(t *testing.T) {
	tasks := NewTasks([]string{"A", "B", "C"})

	require.Len(t, tasks, 3)
	for i, name := range []string{"A", "B", "C"} {
		assert.Equal(t, name, tasks[i].Name)
		assert.Equal(t, i+1, tasks[i].Position)
	}
}

func TestMatchedResult_FillsPlaceholders(t *testing.T) {
	result := MatchedResult("Acme Corp", "acme.com", &RankedMatch{
		Name:       "Jane Doe",
		Confidence: ConfidenceMedium,
		Reasoning:  "Title mentions Acme",
	})

	assert.Equal(t, "Jane Doe", result.Name)
	assert.Equal(t, Placeholder, result.JobTitle)
	assert.Equal(t, Placeholder, result.ProfileURL)
	assert.Equal(t, ConfidenceMedium, result.Confidence)
}

func TestDegradedResults(t *testing.T) {
	tests := []struct {
		name       string
		result     CompanyResult
		wantDomain string
		wantName   string
		wantReason string
	}{
		{"not found", NotFoundResult("Acme", "acme.com"), "acme.com", NameNotFound, ReasonMismatch},
		{"no results", NoResultsResult("Acme", DomainUnknown), DomainUnknown, NameNoResults, ReasonNoResults},
		{"error", ErrorResult("Acme", "navigation failed"), ValueError, ValueError, "navigation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "Acme", tt.result.Company)
			assert.Equal(t, tt.wantDomain, tt.result.Domain)
			assert.Equal(t, tt.wantName, tt.result.Name)
			assert.Equal(t, ConfidenceLow, tt.result.Confidence)
			assert.Equal(t, tt.wantReason, tt.result.Reasoning)
		})
	}
}

func TestCompanyResult_JSONShape(t *testing.T) {
	data, err := json.Marshal(NoResultsResult("Acme", "acme.com"))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"company":"Acme"`)
	assert.Contains(t, string(data), `"accuracy":"Low"`)
	assert.Contains(t, string(data), `"link":"-"`)
}

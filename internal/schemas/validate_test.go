package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankedMatchSchema_IsValidJSON(t *testing.T) {
	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(rankedMatchSchema), &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestValidateRankedMatch(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    bool
		wantFields []string
	}{
		{
			name:  "complete answer",
			input: `{"name":"Jane Doe","title":"VP People","link":"https://www.linkedin.com/in/jane","confidence":"High","reasoning":"Title matches"}`,
		},
		{
			name:  "lower-case confidence",
			input: `{"name":"Jane Doe","confidence":"medium"}`,
		},
		{
			name:  "null optional fields",
			input: `{"name":"Jane Doe","title":null,"link":null,"confidence":"Low","reasoning":null}`,
		},
		{
			name:       "missing name",
			input:      `{"confidence":"High"}`,
			wantErr:    true,
			wantFields: []string{"(root)"},
		},
		{
			name:       "confidence outside the set",
			input:      `{"name":"Jane Doe","confidence":"Certain"}`,
			wantErr:    true,
			wantFields: []string{"confidence"},
		},
		{
			name:       "wrong type",
			input:      `{"name":42,"confidence":"High"}`,
			wantErr:    true,
			wantFields: []string{"name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRankedMatch(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			var fields []string
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidateRankedMatch_NotJSON(t *testing.T) {
	err := ValidateRankedMatch("I could not decide")
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Errors: []FieldError{{Field: "name", Message: "is required"}}}
	assert.Equal(t, "validation failed:\n  1. name: is required\n", err.Error())
}

package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_RankingPrompts(t *testing.T) {
	system, err := Get(RankingFile, KeySystem)
	require.NoError(t, err)
	assert.Contains(t, system, "JSON only")

	user, err := Get(RankingFile, KeySelectHRLead)
	require.NoError(t, err)
	assert.Contains(t, user, "{{.Company}}")
	assert.Contains(t, user, "{{.Candidates}}")
	assert.Contains(t, user, "CHRO > VP People > Director HR > Manager > Talent Acquisition")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(RankingFile, "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	assert.Panics(t, func() { MustGet("nonexistent.json", "some-key") })
	assert.NotPanics(t, func() { assert.NotEmpty(t, MustGet(RankingFile, KeySystem)) })
}

func TestFormat(t *testing.T) {
	result := Format("Contact at {{.Company}} ({{.Company}}): {{.Candidates}}", map[string]string{
		"Company":    "Acme Corp",
		"Candidates": "[]",
	})
	assert.Equal(t, "Contact at Acme Corp (Acme Corp): []", result)
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	result := Format("{{.Company}} / {{.Candidates}}", map[string]string{
		"Company":    "{{.Candidates}}",
		"Candidates": "x",
	})
	assert.Equal(t, "{{.Candidates}} / x", result)
}

func TestFormat_MissingData(t *testing.T) {
	assert.Equal(t, "Hello {{.Company}}", Format("Hello {{.Company}}", nil))
	assert.Equal(t, "No placeholders", Format("No placeholders", map[string]string{"Company": "x"}))
}

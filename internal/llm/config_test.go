package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.Equal(t, DefaultTemperature, config.Temperature)
}

func TestDefaultConfigFor(t *testing.T) {
	assert.Equal(t, "gpt-4o", DefaultConfigFor(ProviderOpenAI).GetModel(TierStandard))
	assert.Equal(t, "claude-sonnet-4-5-20250929", DefaultConfigFor(ProviderAnthropic).GetModel(TierStandard))
	assert.Equal(t, ProviderGemini, DefaultConfigFor("other").Provider)
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		input    string
		expected Provider
		wantErr  bool
	}{
		{"", ProviderGemini, false},
		{"gemini", ProviderGemini, false},
		{" OpenAI ", ProviderOpenAI, false},
		{"anthropic", ProviderAnthropic, false},
		{"mistral", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{Provider: ProviderGemini, Models: map[ModelTier]string{}}
	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierStandard, "custom-model")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))

	assert.Equal(t, "custom-model", newConfig.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
	assert.Equal(t, config.Temperature, newConfig.Temperature)
}

func TestNewClient_RequiresKey(t *testing.T) {
	for _, provider := range []Provider{ProviderOpenAI, ProviderAnthropic} {
		_, err := NewClient(t.Context(), DefaultConfigFor(provider), "")
		assert.Error(t, err, string(provider))
	}

	_, err := NewClient(t.Context(), &Config{Provider: "bogus"}, "key")
	assert.Error(t, err)
}

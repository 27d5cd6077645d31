package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsCmd_Show(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "[Chunking]")
	assert.Contains(t, out, fmt.Sprintf("Size: %d characters", domain.DefaultChunkSize))
	assert.Contains(t, out, "[Storage]")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_List(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "", "settings", "list")

	require.NoError(t, err)
	for _, key := range env.settings.Keys() {
		assert.Contains(t, out, key)
	}
}

func TestSettingsCmd_GetAndSet(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings", "get", "retrieval.k")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(domain.DefaultRetrievalK), strings.TrimSpace(out))

	out, err = execute(t, "", "settings", "set", "retrieval.k", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "retrieval.k set to 7")

	out, err = execute(t, "", "settings", "get", "retrieval.k")
	require.NoError(t, err)
	assert.Equal(t, "7", strings.TrimSpace(out))
}

func TestSettingsCmd_SecretsMasked(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "settings", "set", "generation.api_key", "sk-abcdefghijkl")
	require.NoError(t, err)
	assert.Contains(t, out, "sk-a...ijkl")
	assert.NotContains(t, out, "sk-abcdefghijkl")

	out, err = execute(t, "", "settings", "get", "generation.api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-a...ijkl", strings.TrimSpace(out))
}

func TestSettingsCmd_UnknownKey(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "settings", "get", "nope.nothing")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = execute(t, "", "settings", "set", "nope.nothing", "1")
	assert.Error(t, err)
}

func TestSettingsCmd_SetRejectsBadValue(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "settings", "set", "chunking.size", "lots")

	assert.Error(t, err)
}

func TestSettingsCmd_EmbeddingInteractive(t *testing.T) {
	env := setupTestServices(t)

	out, err := execute(t, "1\n\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Embedding provider configured")
	settings, err := env.settings.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
}

func TestSettingsCmd_NotConfigured(t *testing.T) {
	setupTestServices(t)
	SetServices(Services{})

	_, err := execute(t, "", "settings", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestValueOr(t *testing.T) {
	assert.Equal(t, "x", valueOr("x", "y"))
	assert.Equal(t, "y", valueOr("", "y"))
}

func TestDisplayKey(t *testing.T) {
	assert.Equal(t, "(not set)", displayKey(""))
	assert.Equal(t, "****", displayKey("short"))
}

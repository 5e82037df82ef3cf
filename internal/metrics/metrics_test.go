package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Exact routes (no normalization needed)
		{"/", "/"},
		{"/healthz", "/healthz"},
		{"/metrics", "/metrics"},

		// API routes
		{"/api/feed", "/api/feed"},
		{"/api/feed/", "/api/feed"},
		{"/api/thread", "/api/thread"},

		// Internal routes collapse to their first segment
		{"/internal/notifications/drain", "/internal/notifications"},
		{"/internal/stats", "/internal/stats"},

		// Unknown API paths stay as-is
		{"/api/unknown", "/api/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePath(tt.input))
		})
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "before after", SanitizeInput("before <script>alert(1)</script>after"))
	assert.Equal(t, "a&lt;b&gt;", SanitizeInput("a<b>"))
	assert.Equal(t, "line\nbreak", SanitizeInput("line\nbreak\x00"))
}

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  Worker@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", email)

	for _, bad := range []string{"", "no-at-sign", "a@b", "a b@example.com"} {
		_, err := SanitizeEmail(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseObjectID(t *testing.T) {
	id, err := ParseObjectID(" 64b7f0c2e4b0a1a2b3c4d5e6 ")
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2e4b0a1a2b3c4d5e6", id.Hex())

	_, err = ParseObjectID("xyz")
	assert.Error(t, err)
}

package checkin

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewToken()
		require.NoError(t, err)
		raw, err := hex.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, tokenBytes)
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestParseScan(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"bare token", "abc123", "abc123", true},
		{"bare token with whitespace", "  abc123\n", "abc123", true},
		{"full url", "https://example.com/checkin?token=abc123", "abc123", true},
		{"url with extra params", "https://example.com/checkin?utm=qr&token=abc123", "abc123", true},
		{"relative url", "/checkin?token=abc123", "abc123", true},
		{"escaped token", "https://example.com/checkin?token=a%2Bb", "a+b", true},
		{"empty", "", "", false},
		{"blank", "   ", "", false},
		{"url with empty token", "https://example.com/checkin?token=", "", false},
		{"url without token", "https://example.com/checkin?id=5", "", false},
		{"broken url", "http://[::1/checkin?token=abc", "", false},
		{"inner whitespace", "abc 123", "", false},
		{"too long", strings.Repeat("a", maxTokenLength+1), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseScan(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScan_URLMatchesBare(t *testing.T) {
	fromURL, ok := ParseScan("https://checkin.example.org/checkin?token=abc123")
	require.True(t, ok)
	bare, ok := ParseScan("abc123")
	require.True(t, ok)
	assert.Equal(t, bare, fromURL)
}

func TestCheckinURL(t *testing.T) {
	assert.Equal(t, "https://example.com/checkin?token=abc", CheckinURL("https://example.com/", "abc"))
	assert.Equal(t, "http://localhost:3000/checkin?token=abc", CheckinURL("http://localhost:3000", "abc"))

	tok, ok := ParseScan(CheckinURL("https://example.com", "a+b/c"))
	require.True(t, ok)
	assert.Equal(t, "a+b/c", tok)
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "abcdefgh...", tokenPrefix("abcdefghijkl"))
	assert.Equal(t, "abc", tokenPrefix("abc"))
}

package checkin

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

const (
	tokenBytes     = 32
	maxTokenLength = 512
)

// NewToken returns 256 bits of crypto/rand entropy, hex encoded.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ParseScan extracts the token from a raw scan: either a bare token or a URL
// carrying a token query parameter (".../checkin?token=<value>").
// ok is false when no token can be extracted.
func ParseScan(raw string) (token string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxTokenLength {
		return "", false
	}

	if strings.Contains(raw, "token=") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		token = strings.TrimSpace(u.Query().Get("token"))
	} else if strings.ContainsAny(raw, "?&=/") {
		// a URL without a token parameter
		return "", false
	} else {
		token = raw
	}

	if token == "" || strings.IndexFunc(token, notTokenRune) >= 0 {
		return "", false
	}
	return token, true
}

func notTokenRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}

// CheckinURL is the value a display surface encodes into the QR image.
func CheckinURL(publicURL, token string) string {
	return strings.TrimRight(publicURL, "/") + "/checkin?token=" + url.QueryEscape(token)
}

// tokenPrefix is safe to log.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "..."
}

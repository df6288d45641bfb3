package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// SessionTokenBytes is the entropy of a session token before encoding
const SessionTokenBytes = 32

// GenerateSessionToken returns an opaque, URL-safe session token with 256
// bits of entropy.
func GenerateSessionToken() (string, error) {
	raw := make([]byte, SessionTokenBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

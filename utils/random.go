package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns n random bytes hex encoded in upper case.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// RequestID returns a correlation id for outgoing backend calls.
// It never fails; an unreadable entropy source yields a fixed marker.
func RequestID() string {
	code, err := GenerateCode(8)
	if err != nil {
		return "req-unavailable"
	}
	return "req-" + strings.ToLower(code)
}

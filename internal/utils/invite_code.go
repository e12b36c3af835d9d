package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateInviteCode returns a random organization invite code shaped xxxx-xxxx-xxxx.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	h := hex.EncodeToString(buf)
	return h[0:4] + "-" + h[4:8] + "-" + h[8:12], nil
}

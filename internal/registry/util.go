package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

func lockContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), lockTimeout)
}

// randomID returns a random lowercase hex string of the given byte length,
// used to name installation debug artifacts uniquely without a counter
// that would need cross-process coordination.
func randomID(numBytes int) (string, error) {
	buf := make([]byte, numBytes)

	_, err := rand.Read(buf)
	if err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

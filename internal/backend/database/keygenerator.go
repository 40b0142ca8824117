package database

import (
	"crypto/rand"
	"fmt"
	"time"
)

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateSessionID builds a record ID from a millisecond clock reading and a
// six character random suffix. Collisions are treated as negligible, not
// impossible; the primary key rejects the unlucky case.
func GenerateSessionID() (string, error) {
	var raw [6]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}

	suffix := make([]byte, len(raw))
	for i, b := range raw {
		suffix[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}

	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix), nil
}

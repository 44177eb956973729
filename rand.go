package dogbutler

import (
	"crypto/rand"
)

const randomKeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomKeyPrefix returns an n-character random string drawn from
// randomKeyAlphabet, used as a Session's default key prefix when the caller
// doesn't supply one.
func randomKeyPrefix(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		GetLogger().Warn("failed to read random bytes for session key prefix, falling back to a fixed prefix")
		return "dogbutler-default"
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = randomKeyAlphabet[int(b)%len(randomKeyAlphabet)]
	}
	return string(out)
}

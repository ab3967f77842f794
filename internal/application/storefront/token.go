package storefront

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// TokenGenerator produces opaque password reset tokens
type TokenGenerator interface {
	Generate() (string, error)
}

// SHA256TokenGenerator hashes a random salt and the current time with SHA-256
type SHA256TokenGenerator struct {
	now func() time.Time
}

// NewSHA256TokenGenerator creates a SHA256TokenGenerator
func NewSHA256TokenGenerator() *SHA256TokenGenerator {
	return &SHA256TokenGenerator{now: time.Now}
}

// Generate returns a 64 character hex token
func (g *SHA256TokenGenerator) Generate() (string, error) {
	buf := make([]byte, 32+8)
	if _, err := rand.Read(buf[:32]); err != nil {
		return "", fmt.Errorf("failed to read random salt: %w", err)
	}
	binary.BigEndian.PutUint64(buf[32:], uint64(g.now().UnixNano()))
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

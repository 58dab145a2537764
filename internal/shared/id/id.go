// Package id provides centralized ID generation for the backend.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: Enables efficient time-based queries
//   - Prefixed types: Type-specific prefixes for debugging (acct_*, key_*, req_*)
//   - Type safety: Separate types prevent ID misuse
//
// Correlation ids for in-flight proxied calls are deliberately NOT minted
// here: they are random UUIDs owned by the proxy dispatcher, since they need
// collision resistance rather than sortability.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// AccountID identifies an API client account
type AccountID string

// APIKey identifies an issued API credential
type APIKey string

// RequestID identifies an API request
type RequestID string

// SessionID identifies a cached browser session snapshot
type SessionID string

const (
	AccountPrefix = "acct"
	KeyPrefix     = "key"
	RequestPrefix = "req"
	SessionPrefix = "sess"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewAccountID generates a new account ID
func NewAccountID() AccountID {
	return AccountID(Default().GenerateWithPrefix(AccountPrefix))
}

// NewAPIKey generates a new API key
func NewAPIKey() APIKey {
	return APIKey(Default().GenerateWithPrefix(KeyPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSessionID generates a new session snapshot ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

func (id AccountID) String() string { return string(id) }
func (id APIKey) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id SessionID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

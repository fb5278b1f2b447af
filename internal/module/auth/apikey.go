package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

const (
	// APIKeyHeader carries the caller's key.
	APIKeyHeader = "X-API-Key"
	// APIKeyPrefix is the prefix for generated keys.
	APIKeyPrefix = "om-"
	// APIKeyRandomLength is the length of the random part of the key.
	APIKeyRandomLength = 40
	// APIKeyPrefixDisplayLength is the length of the key prefix to display.
	APIKeyPrefixDisplayLength = 10
)

// GenerateAPIKey generates a new key and returns it with its display prefix.
func GenerateAPIKey() (key string, prefix string, err error) {
	randomBytes := make([]byte, APIKeyRandomLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("generate random bytes: %w", err)
	}
	key = APIKeyPrefix + hex.EncodeToString(randomBytes)[:APIKeyRandomLength]
	return key, GetAPIKeyPrefix(key), nil
}

// HashAPIKey returns the SHA-256 hash of an API key.
func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// GetAPIKeyPrefix returns the display prefix of an API key.
func GetAPIKeyPrefix(key string) string {
	if len(key) <= APIKeyPrefixDisplayLength {
		return key
	}
	return key[:APIKeyPrefixDisplayLength]
}

// APIKeyConfig configures key verification.
type APIKeyConfig struct {
	Keys        []string `mapstructure:"keys"`
	RequireKeys bool     `mapstructure:"require_keys"`
}

// APIKeyAuth verifies the X-API-Key header against configured keys.
// Only key hashes are kept in memory.
type APIKeyAuth struct {
	hashes      [][sha256.Size]byte
	requireKeys bool
}

// NewAPIKeyAuth creates a verifier. Blank keys are ignored.
func NewAPIKeyAuth(cfg *APIKeyConfig) *APIKeyAuth {
	a := &APIKeyAuth{}
	if cfg == nil {
		return a
	}
	a.requireKeys = cfg.RequireKeys
	for _, k := range cfg.Keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		a.hashes = append(a.hashes, sha256.Sum256([]byte(k)))
	}
	return a
}

// Enabled reports whether any keys are configured.
func (a *APIKeyAuth) Enabled() bool {
	return len(a.hashes) > 0
}

// KeyCount returns the number of configured keys.
func (a *APIKeyAuth) KeyCount() int {
	return len(a.hashes)
}

// Mode describes the auth policy for diagnostics.
func (a *APIKeyAuth) Mode() string {
	switch {
	case a.Enabled():
		return "api_key"
	case a.requireKeys:
		return "locked"
	default:
		return "anonymous"
	}
}

// Verify checks the request headers. It returns the presented key, or ""
// when anonymous access is allowed.
func (a *APIKeyAuth) Verify(headers http.Header) (string, error) {
	if !a.Enabled() {
		if a.requireKeys {
			return "", ErrKeysRequired
		}
		return "", nil
	}

	key := strings.TrimSpace(headers.Get(APIKeyHeader))
	if key == "" {
		return "", ErrMissingKey
	}

	sum := sha256.Sum256([]byte(key))
	match := 0
	for _, h := range a.hashes {
		match |= subtle.ConstantTimeCompare(sum[:], h[:])
	}
	if match != 1 {
		return "", ErrInvalidKey
	}
	return key, nil
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Store persists serialized triage reports keyed by content hash.
type Store interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Set(ctx context.Context, key string, value any) error
	Clear(ctx context.Context) error
}

// Key hashes the parts into a stable cache key. Parts are separated by a NUL
// byte so that ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// Nop is a Store that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (json.RawMessage, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, any) error { return nil }
func (Nop) Clear(context.Context) error { return nil }

// Package storage persists the session state castlectl keeps between runs.
package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/dokzlo13/castleos/internal/storage/kv"
)

// TokenBucket is the kv bucket session tokens are stored in.
const TokenBucket = "session_tokens"

// StoredToken is a persisted session token.
type StoredToken struct {
	Host       string
	Username   string
	Token      string
	ObtainedAt time.Time
}

// TokenStore keeps the living session token per controller host and user.
// Tokens are never expired here: a stale token fails at the controller and
// is replaced by the next successful authentication.
type TokenStore struct {
	bucket kv.Bucket
}

// NewTokenStore creates a token store on top of a bucket.
func NewTokenStore(bucket kv.Bucket) *TokenStore {
	return &TokenStore{bucket: bucket}
}

func tokenKey(host, username string) string {
	return host + "|" + username
}

// Save stores the token for host and username.
func (s *TokenStore) Save(host, username, token string) error {
	if token == "" {
		return fmt.Errorf("refusing to store empty token for %s", tokenKey(host, username))
	}
	return s.bucket.Store(tokenKey(host, username), map[string]any{
		"token":       token,
		"obtained_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// Load returns the stored token, or nil when none is stored.
func (s *TokenStore) Load(host, username string) (*StoredToken, error) {
	raw, err := s.bucket.Get(tokenKey(host, username))
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected token record %T", raw)
	}
	token, _ := m["token"].(string)
	if token == "" {
		return nil, nil
	}

	stored := &StoredToken{Host: host, Username: username, Token: token}
	if ts, ok := m["obtained_at"].(string); ok {
		stored.ObtainedAt, _ = time.Parse(time.RFC3339, ts)
	}
	return stored, nil
}

// Forget removes the stored token. Returns true if one existed.
func (s *TokenStore) Forget(host, username string) (bool, error) {
	return s.bucket.Delete(tokenKey(host, username))
}

// Sessions lists the stored sessions without their tokens.
func (s *TokenStore) Sessions() ([]StoredToken, error) {
	keys, err := s.bucket.Keys()
	if err != nil {
		return nil, err
	}

	sessions := make([]StoredToken, 0, len(keys))
	for _, key := range keys {
		host, username, ok := strings.Cut(key, "|")
		if !ok {
			continue
		}
		stored, err := s.Load(host, username)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			continue
		}
		stored.Token = ""
		sessions = append(sessions, *stored)
	}
	return sessions, nil
}

// Package identity keeps the client's persisted identity: the fingerprint
// the backend uses to attribute requests, the terms acceptance flag and the
// agent's local API token.
package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// Keys in the config table.
const (
	KeyFingerprint        = "fingerprint"
	KeyFingerprintExpires = "fingerprint_expires_at"
	KeyInstallSalt        = "install_salt"
	KeyTermsAccepted      = "terms_accepted"
	KeyAPIToken           = "api_token"
)

// ErrTermsNotAccepted is returned by RequireTerms before accept-terms has run.
var ErrTermsNotAccepted = errors.New("terms of use have not been accepted; run `ephemvid accept-terms` first")

// Store is a small key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type SQLiteStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get returns "" for a missing key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
	`, key, value)
	return err
}

// AcceptTerms records that the user accepted the terms of use.
func AcceptTerms(ctx context.Context, store Store) error {
	return store.Set(ctx, KeyTermsAccepted, "true")
}

func TermsAccepted(ctx context.Context, store Store) (bool, error) {
	v, err := store.Get(ctx, KeyTermsAccepted)
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

// RequireTerms returns ErrTermsNotAccepted unless AcceptTerms has run.
func RequireTerms(ctx context.Context, store Store) error {
	ok, err := TermsAccepted(ctx, store)
	if err != nil {
		return fmt.Errorf("read terms flag: %w", err)
	}
	if !ok {
		return ErrTermsNotAccepted
	}
	return nil
}

// EnsureAPIToken returns the agent's bearer token, generating and storing
// one on first use.
func EnsureAPIToken(ctx context.Context, store Store) (string, error) {
	existing, err := store.Get(ctx, KeyAPIToken)
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.Set(ctx, KeyAPIToken, token); err != nil {
		return "", err
	}
	return token, nil
}

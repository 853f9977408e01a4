// Package tokenstore persists the client's auth tokens between runs, the way
// the browser app keeps them in local storage. Values are sealed with
// secretbox under a key derived from the configured storage secret.
package tokenstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// Storage keys. The legacy keys are read as fallbacks only.
const (
	AccessTokenKey        = "labManagementAccessToken"
	RefreshTokenKey       = "labManagementRefreshToken"
	LegacyAccessTokenKey  = "accessToken"
	LegacyRefreshTokenKey = "refreshToken"
)

const nonceSize = 24

// ErrCorrupt is returned when a stored value cannot be opened with the
// current secret.
var ErrCorrupt = errors.New("tokenstore: value cannot be decrypted")

// Store is a key/value "local storage" backed by the local_storage table.
type Store struct {
	db  *sql.DB
	key [32]byte
}

// New derives the sealing key from secret. The table is created by store.Migrate.
func New(db *sql.DB, secret string) (*Store, error) {
	s := &Store{db: db}
	r := hkdf.New(sha256.New, []byte(secret), []byte("labdesk-local-storage"), []byte("tokens"))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive storage key: %w", err)
	}
	return s, nil
}

func (s *Store) seal(plain string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key), nil
}

func (s *Store) open(box []byte) (string, error) {
	if len(box) < nonceSize+secretbox.Overhead {
		return "", ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	out, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(out), nil
}

// Get returns the value stored under key; ok is false when absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var box []byte
	err = s.db.QueryRowContext(ctx, "SELECT value FROM local_storage WHERE key = ?", key).Scan(&box)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	value, err = s.open(box)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	box, err := s.seal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, box)
	return err
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM local_storage WHERE key = ?", key)
	return err
}

// Clear wipes all local storage, not only the token keys.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM local_storage")
	return err
}

func (s *Store) firstOf(ctx context.Context, keys ...string) (string, error) {
	for _, k := range keys {
		v, ok, err := s.Get(ctx, k)
		if err != nil {
			return "", err
		}
		if ok && v != "" {
			return v, nil
		}
	}
	return "", nil
}

// AccessToken returns the current access token, falling back to the legacy key.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.firstOf(ctx, AccessTokenKey, LegacyAccessTokenKey)
}

// RefreshToken returns the current refresh token, falling back to the legacy key.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.firstOf(ctx, RefreshTokenKey, LegacyRefreshTokenKey)
}

// SetTokens stores a token pair under the current keys. An empty refresh
// token keeps the previous one.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	if err := s.Set(ctx, AccessTokenKey, access); err != nil {
		return err
	}
	if refresh == "" {
		return nil
	}
	return s.Set(ctx, RefreshTokenKey, refresh)
}

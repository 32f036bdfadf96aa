// Package sealed encrypts the values of another session storage area, so
// tokens at rest are unreadable without the configured secret.
package sealed

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// ErrCorrupt is returned by Get when a stored value cannot be decrypted.
// It wraps domain.ErrCorrupt.
var ErrCorrupt = fmt.Errorf("sealed: value cannot be opened: %w", domain.ErrCorrupt)

const keyInfo = "caseobserver session storage v1"

// Area is the storage being wrapped.
type Area interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store encrypts with XChaCha20-Poly1305. The storage key is bound as
// additional data so a value copied under another key does not open.
type Store struct {
	inner Area
	aead  cipher.AEAD
}

// New derives the encryption key from secret with HKDF-SHA256.
func New(inner Area, secret []byte) (*Store, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("sealed.New: empty secret")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("sealed.New: derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("sealed.New: %w", err)
	}
	return &Store{inner: inner, aead: aead}, nil
}

// Get returns the errors of the wrapped area unchanged, including
// domain.ErrNotFound, and ErrCorrupt for values that fail authentication.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	ns := s.aead.NonceSize()
	if len(raw) < ns+s.aead.Overhead() {
		return nil, ErrCorrupt
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], []byte(key))
	if err != nil {
		return nil, ErrCorrupt
	}
	return plain, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("sealed.Set: nonce: %w", err)
	}
	return s.inner.Set(ctx, key, s.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Package credential holds the token pair of one session and mirrors it into
// a persistent area so it survives process restarts.
package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// DefaultKey is the key the token pair is persisted under.
const DefaultKey = "auth_tokens"

// ErrPersist marks a failure to write or erase the persisted copy. The
// in-memory pair has already been updated when it is returned.
var ErrPersist = errors.New("credential: persist tokens")

// area is a key/value store scoped to one session.
type area interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ChangeKind says what happened to the stored pair.
type ChangeKind int

const (
	ChangeSet ChangeKind = iota + 1
	ChangeCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Kind ChangeKind
	// HadTokens reports whether a complete pair was held before the change.
	HadTokens bool
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// Store is the credential store of one session. It is safe for concurrent use.
type Store struct {
	log  *slog.Logger
	area area
	key  string

	// writeMu orders mutations so the persisted copy follows memory.
	writeMu sync.Mutex
	mu      sync.RWMutex
	tokens  domain.TokenPair

	subMu  sync.Mutex
	subs   map[uint64]func(Change)
	nextID uint64
}

// NewStore creates a Store and hydrates it from the area. A missing,
// unreadable, corrupt or partial persisted value yields an anonymous store.
// Corrupt and partial values are removed; a value that could not be read is
// left in place for the next start.
func NewStore(ctx context.Context, logger *slog.Logger, a area, opts ...Option) *Store {
	s := &Store{
		log:  logger.With("component", "credential"),
		area: a,
		key:  DefaultKey,
		subs: make(map[uint64]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	raw, err := s.area.Get(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		return
	}
	if errors.Is(err, domain.ErrCorrupt) {
		s.log.WarnContext(ctx, "stored tokens corrupt, starting anonymous", slog.String("error", err.Error()))
		s.discard(ctx)
		return
	}
	if err != nil {
		s.log.WarnContext(ctx, "stored tokens unreadable, starting anonymous", slog.String("error", err.Error()))
		return
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		s.log.WarnContext(ctx, "stored tokens corrupt, starting anonymous", slog.String("error", err.Error()))
		s.discard(ctx)
		return
	}
	if !pair.IsComplete() {
		s.log.WarnContext(ctx, "stored tokens incomplete, starting anonymous")
		s.discard(ctx)
		return
	}

	s.tokens = pair.WithDefaults()
	s.log.DebugContext(ctx, "tokens restored")
}

func (s *Store) discard(ctx context.Context) {
	if err := s.area.Delete(ctx, s.key); err != nil {
		s.log.WarnContext(ctx, "remove stored tokens", slog.String("error", err.Error()))
	}
}

// SetTokens replaces the whole pair. A partial pair is rejected with a
// *domain.ValidationError and nothing changes. A persistence failure is
// returned wrapped in ErrPersist but the new pair is already in effect.
func (s *Store) SetTokens(ctx context.Context, pair domain.TokenPair) error {
	if err := pair.Validate(); err != nil {
		return fmt.Errorf("credential.SetTokens: %w", err)
	}
	pair = pair.WithDefaults()

	raw, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("credential.SetTokens: encode: %w", err)
	}

	s.writeMu.Lock()
	s.mu.Lock()
	had := s.tokens.IsComplete()
	s.tokens = pair
	s.mu.Unlock()
	persistErr := s.area.Set(ctx, s.key, raw)
	s.writeMu.Unlock()

	s.notify(Change{Kind: ChangeSet, HadTokens: had})

	if persistErr != nil {
		s.log.WarnContext(ctx, "tokens kept in memory only", slog.String("error", persistErr.Error()))
		return fmt.Errorf("credential.SetTokens: %w: %w", ErrPersist, persistErr)
	}
	return nil
}

// ClearTokens erases the pair from memory and from the persistent area.
// Clearing an anonymous store is a no-op apart from the persisted delete.
func (s *Store) ClearTokens(ctx context.Context) error {
	s.writeMu.Lock()
	s.mu.Lock()
	had := s.tokens.IsComplete()
	s.tokens = domain.TokenPair{}
	s.mu.Unlock()
	persistErr := s.area.Delete(ctx, s.key)
	s.writeMu.Unlock()

	if had {
		s.notify(Change{Kind: ChangeCleared, HadTokens: true})
	}

	if persistErr != nil {
		s.log.WarnContext(ctx, "persisted tokens not removed", slog.String("error", persistErr.Error()))
		return fmt.Errorf("credential.ClearTokens: %w: %w", ErrPersist, persistErr)
	}
	return nil
}

// AuthHeader returns the Authorization header value, or false when there is
// no access token.
func (s *Store) AuthHeader() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tokens.AccessToken == "" {
		return "", false
	}
	tokenType := s.tokens.TokenType
	if tokenType == "" {
		tokenType = domain.DefaultTokenType
	}
	return tokenType + " " + s.tokens.AccessToken, true
}

// HasTokens reports whether both tokens are held.
func (s *Store) HasTokens() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.IsComplete()
}

// Tokens returns a copy of the current pair.
func (s *Store) Tokens() (domain.TokenPair, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens, s.tokens.IsComplete()
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

func (s *Store) TokenType() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.TokenType
}

// Subscribe registers fn to be called after every mutation. fn runs on the
// mutating goroutine with no store lock held. The returned func unregisters it.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

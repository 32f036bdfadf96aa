// Package session owns the authentication state of one client session. It
// drives login, registration, logout and token refresh, keeps the user's
// profile, and publishes every change of domain.SessionState to watchers.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/signsofter/caseobserver-dashboard/internal/config"
	"github.com/signsofter/caseobserver-dashboard/internal/credential"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// MsgSessionExpired is the state error after the backend rejected the session's token.
const MsgSessionExpired = "session expired"

// ErrSuperseded is returned when a logout or a newer login replaced the
// session while an operation was in flight. Its result has been discarded.
var ErrSuperseded = errors.New("session: superseded by a newer session action")

// authAPI defines the credential exchange endpoints needed by the manager.
type authAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (string, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.RefreshResult, error)
}

// profileAPI defines the profile endpoint needed by the manager.
type profileAPI interface {
	Me(ctx context.Context) (*domain.UserProfile, error)
}

// tokenStore defines the credential store operations needed by the manager.
type tokenStore interface {
	HasTokens() bool
	RefreshToken() string
	SetTokens(ctx context.Context, pair domain.TokenPair) error
	ClearTokens(ctx context.Context) error
	AccessTokenExpiry() (time.Time, bool)
	Subscribe(fn func(credential.Change)) (cancel func())
}

type watcher struct {
	id uint64
	fn func(domain.SessionState)
}

// Manager is the session manager. Create one per session id with NewManager
// and release it with Close.
type Manager struct {
	log      *slog.Logger
	auth     authAPI
	profiles profileAPI
	store    tokenStore
	cfg      config.SessionConfig
	now      func() time.Time

	mu    sync.Mutex
	state domain.SessionState
	// gen changes on every login, logout and forced expiry. Work started
	// under an older generation must not touch state.
	gen      uint64
	bgCancel context.CancelFunc

	watchMu     sync.Mutex
	watchers    []watcher
	nextWatchID uint64

	refreshGroup singleflight.Group
	bg           sync.WaitGroup
	unsubscribe  func()
}

// NewManager creates a Manager in the initial loading state. Call Start to
// restore a persisted session.
func NewManager(
	logger *slog.Logger,
	auth authAPI,
	profiles profileAPI,
	store tokenStore,
	cfg config.SessionConfig,
) *Manager {
	m := &Manager{
		log:      logger.With("service", "session"),
		auth:     auth,
		profiles: profiles,
		store:    store,
		cfg:      cfg,
		now:      time.Now,
		state: domain.SessionState{
			Phase:     domain.PhaseUnauthenticated,
			IsLoading: true,
		},
	}
	m.unsubscribe = store.Subscribe(m.onStoreChange)
	return m
}

// State returns a copy of the current session state.
func (m *Manager) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Watch registers fn to receive every published state. Watchers run
// synchronously on the goroutine that changed the state, in registration
// order, with no manager lock held. The returned func unregisters fn.
func (m *Manager) Watch(fn func(domain.SessionState)) (stop func()) {
	m.watchMu.Lock()
	id := m.nextWatchID
	m.nextWatchID++
	m.watchers = append(m.watchers, watcher{id: id, fn: fn})
	m.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.watchMu.Lock()
			defer m.watchMu.Unlock()
			for i, w := range m.watchers {
				if w.id == id {
					m.watchers = append(m.watchers[:i:i], m.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// Close stops background work and detaches from the credential store.
// The persisted session is left as is.
func (m *Manager) Close() {
	m.unsubscribe()

	m.mu.Lock()
	m.cancelBackgroundLocked()
	m.mu.Unlock()

	m.bg.Wait()
}

// update applies fn to the state under the lock and publishes the result.
// fn reports whether anything changed.
func (m *Manager) update(fn func(s *domain.SessionState) bool) {
	m.mu.Lock()
	changed := fn(&m.state)
	snapshot := m.state.Clone()
	m.mu.Unlock()

	if changed {
		m.publish(snapshot)
	}
}

func (m *Manager) publish(s domain.SessionState) {
	m.watchMu.Lock()
	ws := make([]watcher, len(m.watchers))
	copy(ws, m.watchers)
	m.watchMu.Unlock()

	for _, w := range ws {
		w.fn(s.Clone())
	}
}

// beginLocked starts a new generation and cancels work of the previous one.
func (m *Manager) beginLocked() uint64 {
	m.gen++
	m.cancelBackgroundLocked()
	return m.gen
}

func (m *Manager) cancelBackgroundLocked() {
	if m.bgCancel != nil {
		m.bgCancel()
		m.bgCancel = nil
	}
}

// onStoreChange ends an established session whose tokens were cleared by
// someone else, i.e. the HTTP layer after a 401. Clears made by the manager
// itself happen after it has already left the authenticated phases.
func (m *Manager) onStoreChange(c credential.Change) {
	if c.Kind != credential.ChangeCleared {
		return
	}

	var ended bool
	m.update(func(s *domain.SessionState) bool {
		if s.Phase != domain.PhaseAuthenticated && s.Phase != domain.PhaseRefreshing {
			return false
		}
		m.beginLocked()
		*s = domain.SessionState{
			Phase: domain.PhaseUnauthenticated,
			Error: MsgSessionExpired,
		}
		ended = true
		return true
	})
	if ended {
		m.log.Info("session ended by backend rejection")
	}
}

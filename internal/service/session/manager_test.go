package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/sessionstorage/memstore"
	"github.com/signsofter/caseobserver-dashboard/internal/config"
	"github.com/signsofter/caseobserver-dashboard/internal/credential"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

//go:generate moq -out auth_api_mock_test.go -pkg session . authAPI
//go:generate moq -out profile_api_mock_test.go -pkg session . profileAPI

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// defaultCfg returns a config suitable for most tests.
func defaultCfg() config.SessionConfig {
	return config.SessionConfig{
		ID:               "test",
		Storage:          config.StorageMemory,
		Key:              credential.DefaultKey,
		ProfileRetries:   3,
		ProfileRetryBase: time.Millisecond,
		RefreshSkew:      30 * time.Second,
	}
}

func newStore(t *testing.T, pair *domain.TokenPair) *credential.Store {
	t.Helper()
	s := credential.NewStore(context.Background(), newTestLogger(), memstore.New())
	if pair != nil {
		require.NoError(t, s.SetTokens(context.Background(), *pair))
	}
	return s
}

func newManager(t *testing.T, auth *authAPIMock, profiles *profileAPIMock, store *credential.Store, cfg config.SessionConfig) *Manager {
	t.Helper()
	if auth == nil {
		auth = &authAPIMock{}
	}
	if profiles == nil {
		profiles = &profileAPIMock{}
	}
	m := NewManager(newTestLogger(), auth, profiles, store, cfg)
	t.Cleanup(m.Close)
	return m
}

func apiError(status int, msg string) *domain.APIError {
	return &domain.APIError{Message: msg, Status: status, StatusText: http.StatusText(status)}
}

func storedPair() *domain.TokenPair {
	return &domain.TokenPair{AccessToken: "A", RefreshToken: "R", TokenType: "Bearer"}
}

func aliceProfile() *domain.UserProfile {
	return &domain.UserProfile{ID: 1, Username: "alice", Email: "alice@example.com", Role: "USER"}
}

func loginOK(role string) func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
	return func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
		return &domain.LoginResult{
			Tokens: domain.TokenPair{AccessToken: "A", RefreshToken: "R", TokenType: "Bearer"},
			Role:   role,
		}, nil
	}
}

// recorder collects published states.
type recorder struct {
	mu     sync.Mutex
	states []domain.SessionState
}

func (r *recorder) record(s domain.SessionState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) phases() []domain.SessionPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionPhase, len(r.states))
	for i, s := range r.states {
		out[i] = s.Phase
	}
	return out
}

// ---------------------------------------------------------------------------
// Construction & Start
// ---------------------------------------------------------------------------

func TestNewManager_InitialState(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil, nil, newStore(t, nil), defaultCfg())

	s := m.State()
	assert.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
}

func TestManager_Start_NoTokens(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{}
	m := newManager(t, nil, profiles, newStore(t, nil), defaultCfg())

	s := m.Start(context.Background())
	assert.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	assert.False(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Empty(t, profiles.MeCalls())
}

func TestManager_Start_RestoresSession(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	m := newManager(t, nil, profiles, newStore(t, storedPair()), defaultCfg())

	rec := &recorder{}
	m.Watch(rec.record)

	s := m.Start(context.Background())
	assert.Equal(t, domain.PhaseAuthenticated, s.Phase)
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.User)
	assert.Equal(t, "alice", s.User.Username)

	// Optimistic state is published before the profile arrives.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.states, 2)
	assert.True(t, rec.states[0].IsAuthenticated)
	assert.True(t, rec.states[0].IsLoading)
	assert.Nil(t, rec.states[0].User)
}

func TestManager_Start_ProfileFailureKeepsSession(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			if calls.Add(1) == 1 {
				return nil, apiError(http.StatusInternalServerError, "boom")
			}
			return aliceProfile(), nil
		},
	}
	store := newStore(t, storedPair())
	m := newManager(t, nil, profiles, store, defaultCfg())

	s := m.Start(context.Background())
	assert.True(t, s.IsAuthenticated, "a flaky profile call must not log out")
	assert.Equal(t, domain.PhaseAuthenticated, s.Phase)
	assert.False(t, s.IsLoading)
	assert.Nil(t, s.User)
	assert.True(t, store.HasTokens())

	require.Eventually(t, func() bool {
		return m.State().User != nil
	}, 2*time.Second, 5*time.Millisecond, "profile re-fetched in background")
	assert.Equal(t, "alice", m.State().User.Username)
}

func TestManager_Start_NetworkErrorKeepsSession(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return nil, domain.NewNetworkError(errors.New("connection refused"))
		},
	}
	cfg := defaultCfg()
	cfg.ProfileRetries = 0
	m := newManager(t, nil, profiles, newStore(t, storedPair()), cfg)

	s := m.Start(context.Background())
	assert.True(t, s.IsAuthenticated)
	assert.Len(t, profiles.MeCalls(), 1, "no background re-fetch when retries are disabled")
}

func TestManager_Start_BackgroundRefetchIsBounded(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return nil, apiError(http.StatusBadGateway, "down")
		},
	}
	cfg := defaultCfg()
	cfg.ProfileRetries = 2
	m := newManager(t, nil, profiles, newStore(t, storedPair()), cfg)

	m.Start(context.Background())

	// One foreground attempt plus cfg.ProfileRetries background attempts.
	require.Eventually(t, func() bool {
		return len(profiles.MeCalls()) == 3
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	m.Close()
	assert.Len(t, profiles.MeCalls(), 3)
	assert.True(t, m.State().IsAuthenticated)
	assert.Nil(t, m.State().User)
}

func TestManager_Start_Unauthorized(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return nil, apiError(http.StatusUnauthorized, "Token expired")
		},
	}
	store := newStore(t, storedPair())
	m := newManager(t, nil, profiles, store, defaultCfg())

	s := m.Start(context.Background())
	assert.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, MsgSessionExpired, s.Error)
	assert.False(t, store.HasTokens())
}

func TestManager_Logout_CancelsBackgroundRefetch(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			if calls.Add(1) == 1 {
				return nil, apiError(http.StatusServiceUnavailable, "busy")
			}
			return aliceProfile(), nil
		},
	}
	cfg := defaultCfg()
	cfg.ProfileRetryBase = time.Hour
	m := newManager(t, nil, profiles, newStore(t, storedPair()), cfg)

	m.Start(context.Background())
	m.Logout(context.Background())
	m.Close()

	assert.Equal(t, int32(1), calls.Load())
	assert.Nil(t, m.State().User, "late profile must not resurrect the session")
	assert.False(t, m.State().IsAuthenticated)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestManager_Login_Success(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{LoginFunc: loginOK("ADMIN")}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: 1, Username: "alice", Email: "alice@example.com"}, nil
		},
	}
	store := newStore(t, nil)
	m := newManager(t, auth, profiles, store, defaultCfg())
	m.Start(context.Background())

	rec := &recorder{}
	m.Watch(rec.record)

	require.NoError(t, m.Login(context.Background(), "alice", "secret"))

	s := m.State()
	assert.Equal(t, domain.PhaseAuthenticated, s.Phase)
	assert.True(t, s.IsAuthenticated)
	assert.Empty(t, s.Error)
	require.NotNil(t, s.User)
	assert.Equal(t, "alice", s.User.Username)
	assert.Equal(t, "ADMIN", s.User.Role, "role falls back to the login response")

	header, ok := store.AuthHeader()
	require.True(t, ok)
	assert.Equal(t, "Bearer A", header)

	assert.Equal(t, []domain.SessionPhase{domain.PhaseAuthenticating, domain.PhaseAuthenticated}, rec.phases())

	require.Len(t, auth.LoginCalls(), 1)
	assert.Equal(t, domain.Credentials{Username: "alice", Password: "secret"}, auth.LoginCalls()[0].Creds)
}

func TestManager_Login_ProfileRoleWins(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{LoginFunc: loginOK("USER")}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{Username: "alice", Role: "ADMIN"}, nil
		},
	}
	m := newManager(t, auth, profiles, newStore(t, nil), defaultCfg())

	require.NoError(t, m.Login(context.Background(), "alice", "secret"))
	assert.Equal(t, "ADMIN", m.State().User.Role)
}

func TestManager_Login_BadCredentials(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		LoginFunc: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
			return nil, apiError(http.StatusUnauthorized, "Invalid username or password")
		},
	}
	profiles := &profileAPIMock{}
	store := newStore(t, nil)
	m := newManager(t, auth, profiles, store, defaultCfg())

	err := m.Login(context.Background(), "u", "bad")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	s := m.State()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	assert.False(t, s.IsLoading)
	assert.Equal(t, "Invalid username or password", s.Error)

	assert.False(t, store.HasTokens())
	assert.Len(t, auth.LoginCalls(), 1, "no automatic retry")
	assert.Empty(t, profiles.MeCalls())
}

func TestManager_Login_FailureDoesNotTouchExistingTokens(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		LoginFunc: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
			return nil, domain.NewNetworkError(errors.New("dial tcp: connection refused"))
		},
	}
	store := newStore(t, &domain.TokenPair{AccessToken: "old-A", RefreshToken: "old-R", TokenType: "Bearer"})
	m := newManager(t, auth, nil, store, defaultCfg())

	err := m.Login(context.Background(), "u", "p")
	assert.ErrorIs(t, err, domain.ErrNetwork)

	pair, ok := store.Tokens()
	require.True(t, ok)
	assert.Equal(t, "old-A", pair.AccessToken)
	assert.Equal(t, "dial tcp: connection refused", m.State().Error)
}

func TestManager_Login_ValidationNeverCallsBackend(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())
	before := m.State()

	err := m.Login(context.Background(), "", "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)

	assert.Empty(t, auth.LoginCalls())
	assert.Equal(t, before, m.State())
}

func TestManager_Login_ProfileFailureKeepsPartialProfile(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	auth := &authAPIMock{LoginFunc: loginOK("USER")}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			if calls.Add(1) == 1 {
				return nil, apiError(http.StatusInternalServerError, "boom")
			}
			return aliceProfile(), nil
		},
	}
	m := newManager(t, auth, profiles, newStore(t, nil), defaultCfg())

	require.NoError(t, m.Login(context.Background(), "alice", "secret"))

	s := m.State()
	assert.True(t, s.IsAuthenticated)
	require.NotNil(t, s.User)
	assert.Equal(t, "alice", s.User.Username)
	assert.Equal(t, "USER", s.User.Role)

	require.Eventually(t, func() bool {
		u := m.State().User
		return u != nil && u.Email == "alice@example.com"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestManager_Login_ProfileUnauthorized(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{LoginFunc: loginOK("USER")}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return nil, apiError(http.StatusUnauthorized, "Unauthorized")
		},
	}
	store := newStore(t, nil)
	m := newManager(t, auth, profiles, store, defaultCfg())

	err := m.Login(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, m.State().IsAuthenticated)
	assert.False(t, store.HasTokens())
}

func TestManager_Login_ClearsPreviousError(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	auth := &authAPIMock{
		LoginFunc: func(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
			if fail.Load() {
				return nil, apiError(http.StatusUnauthorized, "Bad credentials")
			}
			return loginOK("USER")(ctx, c)
		},
	}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	m := newManager(t, auth, profiles, newStore(t, nil), defaultCfg())

	require.Error(t, m.Login(context.Background(), "alice", "bad"))
	assert.Equal(t, "Bad credentials", m.State().Error)

	fail.Store(false)
	require.NoError(t, m.Login(context.Background(), "alice", "good"))
	assert.Empty(t, m.State().Error)
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestManager_Register_AutoLogin(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RegisterFunc: func(context.Context, domain.Registration) (string, error) {
			return "User registered successfully", nil
		},
		LoginFunc: loginOK("USER"),
	}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			return &domain.UserProfile{ID: 5, Username: "bob", Email: "bob@example.com"}, nil
		},
	}
	m := newManager(t, auth, profiles, newStore(t, nil), defaultCfg())

	require.NoError(t, m.Register(context.Background(), "bob", "bob@example.com", "secret"))

	s := m.State()
	assert.True(t, s.IsAuthenticated)
	require.NotNil(t, s.User)
	assert.Equal(t, "bob", s.User.Username)

	require.Len(t, auth.RegisterCalls(), 1)
	require.Len(t, auth.LoginCalls(), 1)
	assert.Equal(t, domain.Credentials{Username: "bob", Password: "secret"}, auth.LoginCalls()[0].Creds)
}

func TestManager_Register_AutoLoginFails(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RegisterFunc: func(context.Context, domain.Registration) (string, error) { return "ok", nil },
		LoginFunc: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
			return nil, apiError(http.StatusServiceUnavailable, "Login temporarily disabled")
		},
	}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())

	err := m.Register(context.Background(), "bob", "bob@example.com", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAutoLoginFailed)
	assert.ErrorIs(t, err, domain.ErrRequestFailed)
	assert.Equal(t, "Login temporarily disabled", domain.Message(err))

	s := m.State()
	assert.False(t, s.IsAuthenticated)
	assert.Equal(t, "Login temporarily disabled", s.Error)
}

func TestManager_Register_Rejected(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RegisterFunc: func(context.Context, domain.Registration) (string, error) {
			return "", apiError(http.StatusBadRequest, "Username is already taken")
		},
	}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())

	err := m.Register(context.Background(), "bob", "bob@example.com", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAutoLoginFailed)
	assert.Empty(t, auth.LoginCalls())
	assert.Equal(t, "Username is already taken", m.State().Error)
}

func TestManager_Register_Validation(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())

	err := m.Register(context.Background(), "bob", "not-an-email", "secret")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, auth.RegisterCalls())
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestManager_Logout(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	store := newStore(t, storedPair())
	m := newManager(t, nil, profiles, store, defaultCfg())
	m.Start(context.Background())

	rec := &recorder{}
	m.Watch(rec.record)

	m.Logout(context.Background())

	s := m.State()
	assert.Equal(t, domain.SessionState{Phase: domain.PhaseUnauthenticated}, s)
	assert.False(t, store.HasTokens())
	// The manager's own clear is not reported as an expiry.
	assert.Equal(t, []domain.SessionPhase{domain.PhaseUnauthenticated}, rec.phases())
}

func TestManager_Logout_WhenAnonymous(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil, nil, newStore(t, nil), defaultCfg())
	m.Logout(context.Background())
	m.Logout(context.Background())

	assert.Equal(t, domain.SessionState{Phase: domain.PhaseUnauthenticated}, m.State())
}

func TestManager_Logout_ClearsError(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		LoginFunc: func(context.Context, domain.Credentials) (*domain.LoginResult, error) {
			return nil, apiError(http.StatusUnauthorized, "Bad credentials")
		},
	}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())

	require.Error(t, m.Login(context.Background(), "u", "p"))
	m.Logout(context.Background())
	assert.Empty(t, m.State().Error)
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestManager_RefreshToken_KeepsRefreshToken(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RefreshFunc: func(_ context.Context, rt string) (*domain.RefreshResult, error) {
			assert.Equal(t, "R", rt)
			return &domain.RefreshResult{AccessToken: "A2", TokenType: "Bearer"}, nil
		},
	}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	store := newStore(t, storedPair())
	m := newManager(t, auth, profiles, store, defaultCfg())
	m.Start(context.Background())

	before := store.RefreshToken()
	require.NoError(t, m.RefreshToken(context.Background()))

	header, ok := store.AuthHeader()
	require.True(t, ok)
	assert.Equal(t, "Bearer A2", header)
	assert.Equal(t, before, store.RefreshToken())
	assert.Equal(t, "R", store.RefreshToken())

	s := m.State()
	assert.Equal(t, domain.PhaseAuthenticated, s.Phase)
	assert.True(t, s.IsAuthenticated)
	require.NotNil(t, s.User, "profile survives a refresh")
}

func TestManager_RefreshToken_FailureLogsOut(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RefreshFunc: func(context.Context, string) (*domain.RefreshResult, error) {
			return nil, apiError(http.StatusUnauthorized, "Refresh token expired")
		},
	}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	store := newStore(t, storedPair())
	m := newManager(t, auth, profiles, store, defaultCfg())
	m.Start(context.Background())

	err := m.RefreshToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.False(t, store.HasTokens())
	s := m.State()
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, "Refresh token expired", s.Error)
}

func TestManager_RefreshToken_NoRefreshToken(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())

	err := m.RefreshToken(context.Background())
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.Empty(t, auth.RefreshCalls())
	assert.False(t, m.State().IsAuthenticated)
}

func TestManager_RefreshToken_Coalesced(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	auth := &authAPIMock{
		RefreshFunc: func(context.Context, string) (*domain.RefreshResult, error) {
			started <- struct{}{}
			<-release
			return &domain.RefreshResult{AccessToken: "A2", TokenType: "Bearer"}, nil
		},
	}
	m := newManager(t, auth, nil, newStore(t, storedPair()), defaultCfg())

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- m.RefreshToken(context.Background())
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- m.RefreshToken(context.Background())
	}()
	// Give the second caller time to join the in-flight refresh.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, auth.RefreshCalls(), 1)
}

func TestManager_RefreshToken_CallerCancelDoesNotEndSession(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	auth := &authAPIMock{
		RefreshFunc: func(ctx context.Context, _ string) (*domain.RefreshResult, error) {
			started <- struct{}{}
			select {
			case <-release:
				return &domain.RefreshResult{AccessToken: "A2", TokenType: "Bearer"}, nil
			case <-ctx.Done():
				return nil, &domain.APIError{Message: ctx.Err().Error(), StatusText: domain.NetworkErrorStatusText}
			}
		},
	}
	store := newStore(t, storedPair())
	m := newManager(t, auth, nil, store, defaultCfg())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- m.RefreshToken(ctxA) }()
	<-started

	errB := make(chan error, 1)
	go func() { errB <- m.RefreshToken(context.Background()) }()
	// Let B join the in-flight refresh before A gives up.
	time.Sleep(20 * time.Millisecond)

	cancelA()
	err := <-errA
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrRefreshFailed)
	assert.True(t, store.HasTokens(), "a local cancel is not a backend rejection")

	close(release)
	require.NoError(t, <-errB)

	header, ok := store.AuthHeader()
	require.True(t, ok)
	assert.Equal(t, "Bearer A2", header)
	assert.Equal(t, "R", store.RefreshToken())
	assert.Len(t, auth.RefreshCalls(), 1)
}

func TestManager_RefreshToken_BeforeStartEndsLoading(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RefreshFunc: func(context.Context, string) (*domain.RefreshResult, error) {
			return &domain.RefreshResult{AccessToken: "A2", TokenType: "Bearer"}, nil
		},
	}
	m := newManager(t, auth, nil, newStore(t, storedPair()), defaultCfg())
	require.True(t, m.State().IsLoading)

	require.NoError(t, m.RefreshToken(context.Background()))

	s := m.State()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, domain.PhaseAuthenticated, s.Phase)
}

func TestManager_RefreshToken_PhaseTransitions(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{
		RefreshFunc: func(context.Context, string) (*domain.RefreshResult, error) {
			return &domain.RefreshResult{AccessToken: "A2", TokenType: "Bearer"}, nil
		},
	}
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	m := newManager(t, auth, profiles, newStore(t, storedPair()), defaultCfg())
	m.Start(context.Background())

	rec := &recorder{}
	m.Watch(rec.record)
	require.NoError(t, m.RefreshToken(context.Background()))

	assert.Equal(t, []domain.SessionPhase{domain.PhaseRefreshing, domain.PhaseAuthenticated}, rec.phases())
}

func signedAccessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestManager_EnsureFresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		access      string
		wantRefresh bool
	}{
		{"expires within skew", signedAccessToken(t, now.Add(10*time.Second)), true},
		{"already expired", signedAccessToken(t, now.Add(-time.Minute)), true},
		{"plenty of time", signedAccessToken(t, now.Add(time.Hour)), false},
		{"opaque token", "opaque-token", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			auth := &authAPIMock{
				RefreshFunc: func(context.Context, string) (*domain.RefreshResult, error) {
					return &domain.RefreshResult{AccessToken: "fresh", TokenType: "Bearer"}, nil
				},
			}
			store := newStore(t, &domain.TokenPair{AccessToken: tt.access, RefreshToken: "R"})
			m := newManager(t, auth, nil, store, defaultCfg())
			m.now = func() time.Time { return now }

			require.NoError(t, m.EnsureFresh(context.Background()))

			if tt.wantRefresh {
				assert.Len(t, auth.RefreshCalls(), 1)
				assert.Equal(t, "fresh", store.AccessToken())
			} else {
				assert.Empty(t, auth.RefreshCalls())
				assert.Equal(t, tt.access, store.AccessToken())
			}
		})
	}
}

func TestManager_EnsureFresh_Anonymous(t *testing.T) {
	t.Parallel()

	auth := &authAPIMock{}
	m := newManager(t, auth, nil, newStore(t, nil), defaultCfg())
	assert.NoError(t, m.EnsureFresh(context.Background()))
	assert.Empty(t, auth.RefreshCalls())
}

// ---------------------------------------------------------------------------
// Store observation, watchers, profile
// ---------------------------------------------------------------------------

func TestManager_ExternalClearEndsSession(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	store := newStore(t, storedPair())
	m := newManager(t, nil, profiles, store, defaultCfg())
	m.Start(context.Background())

	// What the HTTP layer does on a 401.
	require.NoError(t, store.ClearTokens(context.Background()))

	s := m.State()
	assert.Equal(t, domain.PhaseUnauthenticated, s.Phase)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, MsgSessionExpired, s.Error)
}

func TestManager_CloseDetachesFromStore(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	store := newStore(t, storedPair())
	m := NewManager(newTestLogger(), &authAPIMock{}, profiles, store, defaultCfg())
	m.Start(context.Background())
	m.Close()

	require.NoError(t, store.ClearTokens(context.Background()))
	assert.True(t, m.State().IsAuthenticated)
}

func TestManager_Watch_OrderAndStop(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil, nil, newStore(t, nil), defaultCfg())

	var (
		mu    sync.Mutex
		order []string
	)
	stopA := m.Watch(func(domain.SessionState) {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
	})
	m.Watch(func(s domain.SessionState) {
		// Reading state from a watcher must not deadlock.
		_ = m.State()
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
	})

	m.Logout(context.Background())
	stopA()
	stopA()
	m.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestManager_UpdateUser(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	m := newManager(t, nil, profiles, newStore(t, storedPair()), defaultCfg())
	m.Start(context.Background())

	m.UpdateUser(domain.UserProfile{ID: 1, Username: "alice", Email: "new@example.com"})

	u := m.State().User
	require.NotNil(t, u)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, "USER", u.Role, "role kept when the update has none")
}

func TestManager_UpdateUser_Anonymous(t *testing.T) {
	t.Parallel()

	m := newManager(t, nil, nil, newStore(t, nil), defaultCfg())
	m.Start(context.Background())
	m.UpdateUser(*aliceProfile())
	assert.Nil(t, m.State().User)
}

func TestManager_ReloadProfile(t *testing.T) {
	t.Parallel()

	var email atomic.Value
	email.Store("alice@example.com")
	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) {
			p := aliceProfile()
			p.Email = email.Load().(string)
			return p, nil
		},
	}
	m := newManager(t, nil, profiles, newStore(t, storedPair()), defaultCfg())
	m.Start(context.Background())

	email.Store("changed@example.com")
	require.NoError(t, m.ReloadProfile(context.Background()))
	assert.Equal(t, "changed@example.com", m.State().User.Email)
}

func TestManager_ReloadProfile_Anonymous(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{}
	m := newManager(t, nil, profiles, newStore(t, nil), defaultCfg())

	err := m.ReloadProfile(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, profiles.MeCalls())
}

func TestManager_StateIsACopy(t *testing.T) {
	t.Parallel()

	profiles := &profileAPIMock{
		MeFunc: func(context.Context) (*domain.UserProfile, error) { return aliceProfile(), nil },
	}
	m := newManager(t, nil, profiles, newStore(t, storedPair()), defaultCfg())
	s := m.Start(context.Background())

	s.User.Username = "mallory"
	assert.Equal(t, "alice", m.State().User.Username)
}

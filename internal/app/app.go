package app

import (
	"context"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi"
	authapi "github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi/auth"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi/courtcase"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi/notification"
	userapi "github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi/user"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/sessionstorage/filestore"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/sessionstorage/memstore"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/sessionstorage/redisstore"
	"github.com/signsofter/caseobserver-dashboard/internal/adapter/sessionstorage/sealed"
	"github.com/signsofter/caseobserver-dashboard/internal/config"
	"github.com/signsofter/caseobserver-dashboard/internal/credential"
	"github.com/signsofter/caseobserver-dashboard/internal/service/session"
)

// App is one wired client session: credential store, HTTP access, endpoint
// clients and the session manager, all bound to cfg.Session.ID.
type App struct {
	Config *config.Config
	Log    *slog.Logger

	Tokens        *credential.Store
	Session       *session.Manager
	Users         *userapi.Client
	Cases         *courtcase.Client
	Notifications *notification.Client

	redis *redis.Client
}

// New builds the App. It does not restore the session; call Session.Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: logger}

	area, err := a.openArea(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Tokens = credential.NewStore(ctx, logger, area, credential.WithKey(cfg.Session.Key))

	api := httpapi.New(cfg.API.BaseURL, a.Tokens, logger,
		httpapi.WithTimeout(cfg.API.Timeout),
		httpapi.WithUserAgent(cfg.API.UserAgent),
	)

	a.Users = userapi.New(api)
	a.Cases = courtcase.New(api)
	a.Notifications = notification.New(api)
	a.Session = session.NewManager(logger, authapi.New(api), a.Users, a.Tokens, cfg.Session)

	logger.Debug("session wired",
		slog.String("session_id", cfg.Session.ID),
		slog.String("storage", cfg.Session.Storage),
		slog.Bool("sealed", cfg.Session.EncryptionKey != ""),
		slog.String("api", cfg.API.BaseURL),
	)
	return a, nil
}

// openArea returns the persistent area of the session, sealed when an
// encryption key is configured.
func (a *App) openArea(ctx context.Context) (sealed.Area, error) {
	sc := a.Config.Session

	var base sealed.Area
	switch sc.Storage {
	case config.StorageMemory:
		base = memstore.New()
	case config.StorageFile:
		fs, err := filestore.New(sc.Dir, sc.ID)
		if err != nil {
			return nil, fmt.Errorf("app: file storage: %w", err)
		}
		base = fs
	case config.StorageRedis:
		client, err := redisstore.NewClient(ctx, a.Config.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: redis storage: %w", err)
		}
		a.redis = client
		rs, err := redisstore.New(client, a.Config.Redis.KeyPrefix, sc.ID, sc.TTL)
		if err != nil {
			return nil, fmt.Errorf("app: redis storage: %w", err)
		}
		base = rs
	default:
		return nil, fmt.Errorf("app: unknown session storage %q", sc.Storage)
	}

	if sc.EncryptionKey == "" {
		return base, nil
	}
	s, err := sealed.New(base, []byte(sc.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("app: sealed storage: %w", err)
	}
	return s, nil
}

// Close stops background work and releases connections. The persisted
// session is kept.
func (a *App) Close() {
	if a.Session != nil {
		a.Session.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("close redis", slog.String("error", err.Error()))
		}
		a.redis = nil
	}
}

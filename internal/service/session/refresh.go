package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/signsofter/caseobserver-dashboard/internal/credential"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

var errNoRefreshToken = errors.New("no refresh token available")

// RefreshToken mints a new access token with the stored refresh token. Only
// the access token and its type change. Any failure ends the session and
// returns an error wrapping domain.ErrRefreshFailed.
//
// Concurrent calls share one request, detached from the callers'
// cancellation. A caller whose ctx ends gets ctx.Err(); the request still
// completes and only its own outcome can end the session.
func (m *Manager) RefreshToken(ctx context.Context) error {
	ch := m.refreshGroup.DoChan("refresh", func() (any, error) {
		return nil, m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("session.RefreshToken: %w", ctx.Err())
	}
}

func (m *Manager) refresh(ctx context.Context) error {
	refreshToken := m.store.RefreshToken()
	if refreshToken == "" {
		m.Logout(ctx)
		return fmt.Errorf("session.RefreshToken: %w: %w", domain.ErrRefreshFailed, errNoRefreshToken)
	}

	var gen uint64
	m.update(func(s *domain.SessionState) bool {
		gen = m.gen
		s.Phase = domain.PhaseRefreshing
		return true
	})

	res, err := m.auth.Refresh(ctx, refreshToken)
	if err != nil {
		m.log.InfoContext(ctx, "token refresh rejected, logging out", slog.String("error", domain.Message(err)))
		m.Logout(ctx)
		m.update(func(s *domain.SessionState) bool {
			s.Error = domain.Message(err)
			return true
		})
		return fmt.Errorf("session.RefreshToken: %w: %w", domain.ErrRefreshFailed, err)
	}

	if m.superseded(gen) {
		return fmt.Errorf("session.RefreshToken: %w: %w", domain.ErrRefreshFailed, ErrSuperseded)
	}

	pair := domain.TokenPair{
		AccessToken:  res.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    res.TokenType,
	}
	if err := m.store.SetTokens(ctx, pair); err != nil && !errors.Is(err, credential.ErrPersist) {
		m.Logout(ctx)
		return fmt.Errorf("session.RefreshToken: %w: %w", domain.ErrRefreshFailed, err)
	}

	m.update(func(s *domain.SessionState) bool {
		if m.gen != gen {
			return false
		}
		s.Phase = domain.PhaseAuthenticated
		s.IsAuthenticated = true
		s.IsLoading = false
		s.Error = ""
		return true
	})

	m.log.DebugContext(ctx, "access token refreshed")
	return nil
}

// EnsureFresh refreshes the access token when its exp claim falls within
// cfg.RefreshSkew. Opaque tokens and anonymous sessions are left alone.
func (m *Manager) EnsureFresh(ctx context.Context) error {
	if !m.store.HasTokens() {
		return nil
	}
	exp, ok := m.store.AccessTokenExpiry()
	if !ok {
		return nil
	}
	if m.now().Add(m.cfg.RefreshSkew).Before(exp) {
		return nil
	}

	m.log.DebugContext(ctx, "access token about to expire, refreshing", slog.Time("exp", exp))
	return m.RefreshToken(ctx)
}

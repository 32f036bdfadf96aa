package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const defaultProfileRetryBase = 500 * time.Millisecond

// ReloadProfile fetches the profile again, e.g. after it was changed.
func (m *Manager) ReloadProfile(ctx context.Context) error {
	m.mu.Lock()
	gen := m.gen
	authenticated := m.state.IsAuthenticated
	m.mu.Unlock()

	if !authenticated {
		return fmt.Errorf("session.ReloadProfile: %w", domain.ErrUnauthorized)
	}

	profile, err := m.profiles.Me(ctx)
	if err != nil {
		return fmt.Errorf("session.ReloadProfile: %w", err)
	}

	if !m.applyProfile(gen, profile) {
		return fmt.Errorf("session.ReloadProfile: %w", ErrSuperseded)
	}
	return nil
}

// UpdateUser replaces the cached profile of an authenticated session.
// A profile without a role keeps the role already known.
func (m *Manager) UpdateUser(profile domain.UserProfile) {
	m.update(func(s *domain.SessionState) bool {
		if !s.IsAuthenticated {
			return false
		}
		if profile.Role == "" && s.User != nil {
			profile.Role = s.User.Role
		}
		s.User = &profile
		return true
	})
}

// applyProfile stores profile if the session generation is still gen.
func (m *Manager) applyProfile(gen uint64, profile *domain.UserProfile) bool {
	applied := false
	m.update(func(s *domain.SessionState) bool {
		if m.gen != gen || !s.IsAuthenticated {
			return false
		}
		p := *profile
		if p.Role == "" && s.User != nil {
			p.Role = s.User.Role
		}
		s.User = &p
		applied = true
		return true
	})
	return applied
}

// scheduleProfileRefetchLocked starts a background profile fetch with
// exponential backoff. It stops on success, on a 401, after
// cfg.ProfileRetries retries, or when the generation ends.
func (m *Manager) scheduleProfileRefetchLocked(gen uint64) {
	if m.cfg.ProfileRetries <= 0 {
		return
	}
	m.cancelBackgroundLocked()

	ctx, cancel := context.WithCancel(context.Background())
	m.bgCancel = cancel

	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		defer cancel()
		m.refetchProfile(ctx, gen)
	}()
}

func (m *Manager) refetchProfile(ctx context.Context, gen uint64) {
	base := m.cfg.ProfileRetryBase
	if base <= 0 {
		base = defaultProfileRetryBase
	}
	backoff := retry.WithMaxRetries(uint64(m.cfg.ProfileRetries), retry.NewExponential(base))

	// The first attempt already failed in the caller; wait before retrying.
	if delay, ok := backoff.Next(); ok {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}

	profile, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*domain.UserProfile, error) {
		p, err := m.profiles.Me(ctx)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
		m.log.DebugContext(ctx, "profile re-fetch failed", slog.String("error", err.Error()))
		return nil, retry.RetryableError(err)
	})
	if err != nil {
		if ctx.Err() == nil {
			m.log.WarnContext(ctx, "profile re-fetch gave up", slog.String("error", err.Error()))
		}
		return
	}

	if m.applyProfile(gen, profile) {
		m.log.DebugContext(ctx, "profile restored in background")
	}
}

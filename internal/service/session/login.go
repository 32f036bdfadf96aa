package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/signsofter/caseobserver-dashboard/internal/credential"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// Login exchanges credentials for tokens, stores them and loads the profile.
// Invalid input fails with a *domain.ValidationError before any request.
// A rejected login leaves the stored tokens untouched and records the
// backend's message in the state. Nothing is retried.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	creds := domain.Credentials{Username: username, Password: password}
	if err := domain.ValidateStruct(creds); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}

	gen := m.beginAuthenticating()
	if err := m.login(ctx, gen, creds); err != nil {
		return fmt.Errorf("session.Login: %w", err)
	}
	return nil
}

func (m *Manager) beginAuthenticating() uint64 {
	var gen uint64
	m.update(func(s *domain.SessionState) bool {
		gen = m.beginLocked()
		*s = domain.SessionState{
			Phase:     domain.PhaseAuthenticating,
			IsLoading: true,
		}
		return true
	})
	return gen
}

// fail returns the session of generation gen to anonymous with err's message.
func (m *Manager) fail(gen uint64, err error) {
	m.update(func(s *domain.SessionState) bool {
		if m.gen != gen {
			return false
		}
		*s = domain.SessionState{
			Phase: domain.PhaseUnauthenticated,
			Error: domain.Message(err),
		}
		return true
	})
}

func (m *Manager) login(ctx context.Context, gen uint64, creds domain.Credentials) error {
	res, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.log.InfoContext(ctx, "login rejected", slog.String("username", creds.Username), slog.String("error", domain.Message(err)))
		m.fail(gen, err)
		return err
	}

	if m.superseded(gen) {
		return ErrSuperseded
	}

	if err := m.store.SetTokens(ctx, res.Tokens); err != nil {
		if !errors.Is(err, credential.ErrPersist) {
			m.fail(gen, err)
			return err
		}
		// The session works for this process; it just will not survive a restart.
		m.log.WarnContext(ctx, "session not persisted", slog.String("error", err.Error()))
	}

	profile, err := m.profiles.Me(ctx)
	if errors.Is(err, domain.ErrUnauthorized) {
		m.fail(gen, err)
		m.clearStore(ctx)
		return err
	}
	if err != nil {
		m.log.WarnContext(ctx, "profile unavailable after login", slog.String("error", err.Error()))
		profile = &domain.UserProfile{Username: creds.Username}
	}
	if profile.Role == "" {
		profile.Role = res.Role
	}

	applied := false
	m.update(func(s *domain.SessionState) bool {
		if m.gen != gen {
			return false
		}
		*s = domain.SessionState{
			Phase:           domain.PhaseAuthenticated,
			User:            profile,
			IsAuthenticated: true,
		}
		if err != nil {
			m.scheduleProfileRefetchLocked(gen)
		}
		applied = true
		return true
	})
	if !applied {
		return ErrSuperseded
	}

	m.log.InfoContext(ctx, "logged in", slog.String("username", profile.Username))
	return nil
}

func (m *Manager) superseded(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen != gen
}

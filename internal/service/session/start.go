package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// Start restores a persisted session. With stored tokens the session is
// considered authenticated right away and the profile is fetched. Only a 401
// ends it; any other profile failure keeps the session with an unknown
// profile and schedules a bounded background re-fetch. The returned state has
// IsLoading false.
func (m *Manager) Start(ctx context.Context) domain.SessionState {
	m.mu.Lock()
	gen := m.beginLocked()
	if !m.store.HasTokens() {
		m.state = domain.SessionState{Phase: domain.PhaseUnauthenticated}
		snapshot := m.state.Clone()
		m.mu.Unlock()
		m.publish(snapshot)
		return snapshot
	}
	m.state = domain.SessionState{
		Phase:           domain.PhaseAuthenticated,
		IsAuthenticated: true,
		IsLoading:       true,
	}
	snapshot := m.state.Clone()
	m.mu.Unlock()
	m.publish(snapshot)

	profile, err := m.profiles.Me(ctx)

	var expired bool
	m.update(func(s *domain.SessionState) bool {
		if m.gen != gen {
			// A 401 already ended the session through the store.
			return false
		}
		s.IsLoading = false

		switch {
		case err == nil:
			s.User = profile
		case errors.Is(err, domain.ErrUnauthorized):
			m.beginLocked()
			*s = domain.SessionState{Phase: domain.PhaseUnauthenticated, Error: MsgSessionExpired}
			expired = true
		default:
			m.log.WarnContext(ctx, "profile unavailable, keeping session", slog.String("error", err.Error()))
			m.scheduleProfileRefetchLocked(gen)
		}
		return true
	})

	if expired {
		m.clearStore(ctx)
	}
	return m.State()
}

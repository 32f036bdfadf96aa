package session

import (
	"context"
	"log/slog"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// Logout ends the session: state first, then the stored tokens. It never
// fails and is a no-op apart from the store clear when already anonymous.
// Background work of the ended session is cancelled; requests issued by
// callers are not.
func (m *Manager) Logout(ctx context.Context) {
	m.update(func(s *domain.SessionState) bool {
		m.beginLocked()
		*s = domain.SessionState{Phase: domain.PhaseUnauthenticated}
		return true
	})

	m.clearStore(ctx)
	m.log.InfoContext(ctx, "logged out")
}

func (m *Manager) clearStore(ctx context.Context) {
	if err := m.store.ClearTokens(context.WithoutCancel(ctx)); err != nil {
		m.log.WarnContext(ctx, "clear stored tokens", slog.String("error", err.Error()))
	}
}

package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

// Register creates the account and then logs in with the same credentials.
// If the account is created but the login fails, the error wraps both
// domain.ErrAutoLoginFailed and the login failure.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	reg := domain.Registration{Username: username, Email: email, Password: password}
	if err := domain.ValidateStruct(reg); err != nil {
		return fmt.Errorf("session.Register: %w", err)
	}

	gen := m.beginAuthenticating()

	msg, err := m.auth.Register(ctx, reg)
	if err != nil {
		m.fail(gen, err)
		return fmt.Errorf("session.Register: %w", err)
	}
	m.log.InfoContext(ctx, "account registered", slog.String("username", username), slog.String("message", msg))

	if m.superseded(gen) {
		return fmt.Errorf("session.Register: %w: %w", domain.ErrAutoLoginFailed, ErrSuperseded)
	}

	if err := m.login(ctx, gen, domain.Credentials{Username: username, Password: password}); err != nil {
		return fmt.Errorf("session.Register: %w: %w", domain.ErrAutoLoginFailed, err)
	}
	return nil
}

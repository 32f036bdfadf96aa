// Package notification calls the monitoring notification endpoints.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const pathMonitoring = "/api/monitoring"

// Client is the notification endpoint client.
type Client struct {
	api *httpapi.Client
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

// List returns all notifications of the user.
func (c *Client) List(ctx context.Context) ([]domain.Notification, error) {
	items, err := c.list(ctx, pathMonitoring+"/notifications", "Failed to fetch notifications")
	if err != nil {
		return nil, fmt.Errorf("notification.List: %w", err)
	}
	return items, nil
}

// ListForCase returns the notifications raised for one case.
func (c *Client) ListForCase(ctx context.Context, caseID int64) ([]domain.Notification, error) {
	items, err := c.list(ctx, pathMonitoring+"/notifications/cases/"+id(caseID), "Failed to fetch case notifications")
	if err != nil {
		return nil, fmt.Errorf("notification.ListForCase: %w", err)
	}
	return items, nil
}

func (c *Client) list(ctx context.Context, path, fallback string) ([]domain.Notification, error) {
	var env httpapi.Envelope[[]domain.Notification]
	if err := c.api.Get(ctx, path, &env); err != nil {
		return nil, err
	}
	if err := env.Check(fallback); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []domain.Notification{}, nil
	}
	return env.Data, nil
}

func (c *Client) MarkRead(ctx context.Context, notificationID int64) error {
	var env httpapi.Envelope[string]
	if err := c.api.Post(ctx, pathMonitoring+"/notifications/"+id(notificationID)+"/read", nil, &env); err != nil {
		return fmt.Errorf("notification.MarkRead: %w", err)
	}
	if err := env.Check("Failed to mark notification as read"); err != nil {
		return fmt.Errorf("notification.MarkRead: %w", err)
	}
	return nil
}

// CaseSettings returns the notification settings of a case. A backend that
// does not know the case's settings (404) yields DefaultNotificationSettings.
func (c *Client) CaseSettings(ctx context.Context, caseID int64) (domain.NotificationSettings, error) {
	var env httpapi.Envelope[domain.NotificationSettings]
	err := c.api.Get(ctx, settingsPath(caseID), &env)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return domain.NotificationSettings{}, fmt.Errorf("notification.CaseSettings: %w", err)
	}
	if err := env.Check("Failed to fetch notification settings"); err != nil {
		return domain.NotificationSettings{}, fmt.Errorf("notification.CaseSettings: %w", err)
	}
	return env.Data, nil
}

func (c *Client) UpdateCaseSettings(ctx context.Context, caseID int64, settings domain.NotificationSettings) error {
	if err := domain.ValidateStruct(settings); err != nil {
		return fmt.Errorf("notification.UpdateCaseSettings: %w", err)
	}

	var env httpapi.Envelope[string]
	if err := c.api.Put(ctx, settingsPath(caseID), settings, &env); err != nil {
		return fmt.Errorf("notification.UpdateCaseSettings: %w", err)
	}
	if err := env.Check("Failed to update notification settings"); err != nil {
		return fmt.Errorf("notification.UpdateCaseSettings: %w", err)
	}
	return nil
}

func settingsPath(caseID int64) string {
	return pathMonitoring + "/cases/" + id(caseID) + "/settings"
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

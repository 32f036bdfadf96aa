// Package user calls the profile endpoints of the authenticated user.
package user

import (
	"context"
	"fmt"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const (
	pathMe       = "/api/users/me"
	pathPassword = "/api/users/me/password"
)

type messageResponse struct {
	Message string `json:"message"`
}

// Client is the user endpoint client.
type Client struct {
	api *httpapi.Client
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

// Me returns the profile of the session's user.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.api.Get(ctx, pathMe, &profile); err != nil {
		return nil, fmt.Errorf("user.Me: %w", err)
	}
	return &profile, nil
}

// UpdateProfile changes the mutable profile fields and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd domain.ProfileUpdate) (*domain.UserProfile, error) {
	if err := domain.ValidateStruct(upd); err != nil {
		return nil, fmt.Errorf("user.UpdateProfile: %w", err)
	}

	var profile domain.UserProfile
	if err := c.api.Put(ctx, pathMe, upd, &profile); err != nil {
		return nil, fmt.Errorf("user.UpdateProfile: %w", err)
	}
	return &profile, nil
}

// ChangePassword returns the backend's confirmation message.
func (c *Client) ChangePassword(ctx context.Context, change domain.PasswordChange) (string, error) {
	if err := domain.ValidateStruct(change); err != nil {
		return "", fmt.Errorf("user.ChangePassword: %w", err)
	}

	var resp messageResponse
	if err := c.api.Put(ctx, pathPassword, change, &resp); err != nil {
		return "", fmt.Errorf("user.ChangePassword: %w", err)
	}
	return resp.Message, nil
}

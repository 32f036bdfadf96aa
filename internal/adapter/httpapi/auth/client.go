// Package auth calls the credential exchange endpoints. None of them send or
// clear the stored session; the session manager decides what to keep.
package auth

import (
	"context"
	"fmt"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathRefresh  = "/auth/refresh"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	Role         string `json:"role"`
}

type registerResponse struct {
	Message string `json:"message"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// Client is the auth endpoint client.
type Client struct {
	api *httpapi.Client
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var resp loginResponse
	if err := c.api.Post(ctx, pathLogin, creds, &resp, httpapi.Public()); err != nil {
		return nil, fmt.Errorf("auth.Login: %w", err)
	}

	pair := domain.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
	}
	if err := pair.Validate(); err != nil {
		return nil, fmt.Errorf("auth.Login: incomplete token pair in response: %w", err)
	}

	return &domain.LoginResult{Tokens: pair.WithDefaults(), Role: resp.Role}, nil
}

// Register creates an account and returns the backend's confirmation message.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (string, error) {
	var resp registerResponse
	if err := c.api.Post(ctx, pathRegister, reg, &resp, httpapi.Public()); err != nil {
		return "", fmt.Errorf("auth.Register: %w", err)
	}
	return resp.Message, nil
}

// Refresh mints a new access token. The refresh token itself is not rotated.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.RefreshResult, error) {
	var resp refreshResponse
	err := c.api.Post(ctx, pathRefresh, refreshRequest{RefreshToken: refreshToken}, &resp, httpapi.Public())
	if err != nil {
		return nil, fmt.Errorf("auth.Refresh: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("auth.Refresh: response has no access token")
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = domain.DefaultTokenType
	}
	return &domain.RefreshResult{AccessToken: resp.AccessToken, TokenType: tokenType}, nil
}

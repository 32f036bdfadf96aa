package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.API.validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Session.validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if c.Session.Storage == StorageRedis && strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("redis.addr is required when session.storage is %q", StorageRedis)
	}
	return nil
}

func (a *APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be an absolute http(s) URL (got %q)", a.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url has no host (got %q)", a.BaseURL)
	}
	a.BaseURL = strings.TrimRight(a.BaseURL, "/")

	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", a.Timeout)
	}
	return nil
}

func (s *SessionConfig) validate() error {
	switch s.Storage {
	case StorageMemory, StorageFile, StorageRedis:
	default:
		return fmt.Errorf("storage must be one of memory, file, redis (got %q)", s.Storage)
	}

	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("id must not be empty")
	}
	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("key must not be empty")
	}
	if s.EncryptionKey != "" && len(s.EncryptionKey) < 16 {
		return fmt.Errorf("encryption_key must be at least 16 characters (got %d)", len(s.EncryptionKey))
	}
	if s.ProfileRetries < 0 || s.ProfileRetries > 10 {
		return fmt.Errorf("profile_retries must be within [0, 10] (got %d)", s.ProfileRetries)
	}
	if s.ProfileRetryBase <= 0 {
		return fmt.Errorf("profile_retry_base must be > 0 (got %s)", s.ProfileRetryBase)
	}
	if s.RefreshSkew < 0 {
		return fmt.Errorf("refresh_skew must be >= 0 (got %s)", s.RefreshSkew)
	}
	if s.TTL < 0 {
		return fmt.Errorf("ttl must be >= 0 (got %s)", s.TTL)
	}

	if s.Storage == StorageFile && s.Dir == "" {
		dir, err := DefaultSessionDir()
		if err != nil {
			return fmt.Errorf("dir: %w", err)
		}
		s.Dir = dir
	}
	return nil
}

// DefaultSessionDir returns the per-user directory for persisted sessions.
func DefaultSessionDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "caseobserver", "sessions"), nil
}

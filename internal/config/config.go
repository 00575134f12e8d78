// Package config loads process settings from the environment, after
// merging in a .env file when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	DBPath   string
	Env      string
	LogLevel slog.Level

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Requests per minute per client IP on /login and /register.
	LoginRatePerMinute int
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP. Only
	// safe behind a proxy that overwrites those headers.
	TrustProxy bool

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Production reports whether cookies must be marked Secure.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads .env (if present) without overriding variables already set in
// the environment, then builds a Config. Every problem is reported at once.
// There is no fallback for JWT_SECRET.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Split from Load so tests can pass a map.
func FromEnv(getenv func(string) string) (*Config, error) {
	var errs []error
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		DBPath:             get("DB_PATH", "data/cookbook.db"),
		Env:                get("APP_ENV", "development"),
		JWTSecret:          getenv("JWT_SECRET"),
		GitHubClientID:     get("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: get("GITHUB_CLIENT_SECRET", ""),
	}

	var err error
	if cfg.Port, err = atoiRange(get("PORT", "8080"), 1, 65535); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %w", err))
	}
	if cfg.BcryptCost, err = atoiRange(get("BCRYPT_COST", "12"), 4, 31); err != nil {
		errs = append(errs, fmt.Errorf("BCRYPT_COST: %w", err))
	}
	if cfg.LoginRatePerMinute, err = atoiRange(get("LOGIN_RATE_PER_MINUTE", "10"), 1, 10000); err != nil {
		errs = append(errs, fmt.Errorf("LOGIN_RATE_PER_MINUTE: %w", err))
	}
	if cfg.TrustProxy, err = strconv.ParseBool(get("TRUST_PROXY", "false")); err != nil {
		errs = append(errs, fmt.Errorf("TRUST_PROXY: %q is not a boolean", get("TRUST_PROXY", "")))
	}
	if cfg.TokenTTL, err = ParseDuration(get("JWT_EXPIRES_IN", "7d")); err != nil {
		errs = append(errs, fmt.Errorf("JWT_EXPIRES_IN: %w", err))
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(cfg.JWTSecret) < 16:
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}

	cfg.GitHubCallbackURL = get("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func atoiRange(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi)
	}
	return n, nil
}

// ParseDuration accepts the "7d" / "2w" forms used for token lifetimes as
// well as anything time.ParseDuration understands ("12h", "90m").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty duration")
	}

	unit := time.Duration(0)
	switch s[len(s)-1] {
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	}

	var d time.Duration
	if unit != 0 {
		n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		if n > math.MaxInt64/int64(unit) || n < math.MinInt64/int64(unit) {
			return 0, fmt.Errorf("duration %q is too large", s)
		}
		d = time.Duration(n) * unit
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

package tokenauth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// TTL is a duration configured from compact strings like "15m", "7d",
// "30s", "2h". Unit suffixes: s/sec, m/min, h/hr, d/day, case-insensitive,
// surrounding whitespace ignored. Invalid values fail at load time.
type TTL time.Duration

var ttlPattern = regexp.MustCompile(`^(\d+)\s*([a-z]+)$`)

var ttlUnits = map[string]time.Duration{
	"s":   time.Second,
	"sec": time.Second,
	"m":   time.Minute,
	"min": time.Minute,
	"h":   time.Hour,
	"hr":  time.Hour,
	"d":   24 * time.Hour,
	"day": 24 * time.Hour,
}

// ParseTTL parses the compact duration grammar used across configuration.
func ParseTTL(s string) (time.Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	match := ttlPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, fmt.Errorf("invalid duration %q: want <number><s|sec|m|min|h|hr|d|day>", s)
	}

	amount, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	unit, ok := ttlUnits[match[2]]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: unknown unit %q", s, match[2])
	}
	if amount <= 0 {
		return 0, fmt.Errorf("invalid duration %q: must be positive", s)
	}

	return time.Duration(amount) * unit, nil
}

// SetValue implements cleanenv's setter so TTL fields load straight from
// environment variables and env-default tags.
func (t *TTL) SetValue(s string) error {
	d, err := ParseTTL(s)
	if err != nil {
		return err
	}
	*t = TTL(d)
	return nil
}

// Duration returns the parsed value as a time.Duration.
func (t TTL) Duration() time.Duration { return time.Duration(t) }

// Config holds the environment-sourced settings of the authentication
// core. Loaded once at startup; treated as immutable afterwards.
type Config struct {
	// Secret signs every issued token. One shared symmetric secret per
	// deployment; rotating it invalidates everything outstanding.
	Secret string `env:"TOKENAUTH_SECRET" env-required:"true"`
	// AccessTTL bounds how long an access token verifies.
	AccessTTL TTL `env:"TOKENAUTH_ACCESS_TTL" env-default:"15m"`
	// RefreshTTL bounds how long a refresh token can mint new pairs.
	RefreshTTL TTL `env:"TOKENAUTH_REFRESH_TTL" env-default:"7d"`
	// RotationWindow is the interval before refresh expiry during which a
	// refresh exchange also rotates the refresh token itself.
	RotationWindow TTL `env:"TOKENAUTH_ROTATION_WINDOW" env-default:"1d"`
	// RedisPrefix namespaces revocation keys.
	RedisPrefix string `env:"TOKENAUTH_REDIS_PREFIX" env-default:"ta"`
}

// LoadConfig reads configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("tokenauth: load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would issue unverifiable or
// perpetually rotating tokens.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("tokenauth: signing secret must not be empty")
	}
	if c.AccessTTL <= 0 {
		return errors.New("tokenauth: access TTL must be positive")
	}
	if c.RefreshTTL <= 0 {
		return errors.New("tokenauth: refresh TTL must be positive")
	}
	if c.RotationWindow < 0 {
		return errors.New("tokenauth: rotation window must not be negative")
	}
	if c.RotationWindow.Duration() >= c.RefreshTTL.Duration() {
		return errors.New("tokenauth: rotation window must be shorter than refresh TTL")
	}
	return nil
}

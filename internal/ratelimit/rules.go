package ratelimit

import (
	"errors"
	"slices"
	"time"

	"github.com/Proton-105/oficina-bot/pkg/config"
)

// Scope names a family of limited actions.
type Scope string

const (
	// ScopeMessage covers every Telegram text message.
	ScopeMessage Scope = "msg"
	// ScopeQuery covers free-form questions, which may call the completion service.
	ScopeQuery Scope = "query"
	ScopeHTTP  Scope = "http"
)

var errNoWindow = errors.New("window duration is not set")

// Rules maps scopes to configured limits.
type Rules struct {
	config config.RateLimitConfig
}

func NewRules(cfg config.RateLimitConfig) *Rules {
	return &Rules{config: cfg}
}

func (r *Rules) Enabled() bool {
	return r != nil && r.config.Enabled
}

// IsWhitelisted returns true if the Telegram user bypasses rate limits.
func (r *Rules) IsWhitelisted(userID int64) bool {
	return slices.Contains(r.config.Whitelist, userID)
}

// Limit returns the limit and window configured for scope.
func (r *Rules) Limit(scope Scope) (int, time.Duration, error) {
	switch scope {
	case ScopeMessage:
		return parseRule(r.config.Messages)
	case ScopeQuery:
		return parseRule(r.config.Queries)
	case ScopeHTTP:
		return parseRule(r.config.HTTP)
	default:
		return 0, 0, errors.New("unsupported rate limit scope")
	}
}

// Key builds the limiter key for subject within scope.
func Key(scope Scope, subject string) string {
	return string(scope) + ":" + subject
}

func parseRule(rule config.RateLimitRule) (int, time.Duration, error) {
	if rule.Window == "" {
		return rule.Limit, 0, errNoWindow
	}
	window, err := time.ParseDuration(rule.Window)
	if err != nil {
		return 0, 0, err
	}
	return rule.Limit, window, nil
}

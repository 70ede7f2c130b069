// Package mailer renders and delivers transactional email for lifecycle
// events: templating, environment gating, verified-domain policy, and bounded
// retry on transient provider failures.
package mailer

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a pre-templated message.
type Kind string

const (
	KindWelcome                 Kind = "welcome"
	KindApplicationConfirmation Kind = "application-confirmation"
	KindStatusUpdate            Kind = "status-update"
	KindPasswordReset           Kind = "password-reset"
	KindEmployerNewApplication  Kind = "employer-new-application"
)

// Outcome classifies what happened to a dispatch attempt.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeDevLogged Outcome = "dev-logged"
	OutcomeBlocked   Outcome = "blocked-unverified"
	OutcomeFailed    Outcome = "failed"
	// OutcomeQueued is reported by the stream publisher; delivery happens in
	// the worker pool.
	OutcomeQueued Outcome = "queued"
)

// Message is the shape handed to the mail-sending collaborator.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Headers map[string]string
}

// Sender is the external mail-sending collaborator.
type Sender interface {
	Send(ctx context.Context, m *Message) (messageID string, err error)
}

// Result is the delivery outcome returned to callers. Lifecycle callers may
// log it but must not treat it as authoritative for their own success.
type Result struct {
	Success   bool    `json:"success"`
	MessageID string  `json:"message_id,omitempty"`
	Outcome   Outcome `json:"outcome"`
}

// Config holds delivery policy. Defaults match the platform conventions:
// 3 retries with a 1000ms base delay.
type Config struct {
	Env       string // development|production
	From      string
	BrandName string
	BaseURL   string

	VerifiedDomains []string
	// ProductionEnabled permits sending to unverified domains in production.
	ProductionEnabled bool

	MaxRetries int
	RetryDelay time.Duration
}

// DevMode reports whether delivery is log-only.
func (c Config) DevMode() bool { return c.Env != "production" }

// ConfigFromEnv loads mail policy from the environment.
func ConfigFromEnv() Config {
	cfg := Config{
		Env:               strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))),
		From:              os.Getenv("EMAIL_FROM"),
		BrandName:         os.Getenv("EMAIL_BRAND"),
		BaseURL:           os.Getenv("FRONTEND_URL"),
		ProductionEnabled: os.Getenv("EMAIL_PRODUCTION_ENABLED") == "true",
		MaxRetries:        3,
		RetryDelay:        1000 * time.Millisecond,
	}
	if cfg.From == "" {
		cfg.From = "JobBoard <noreply@jobboard.dev>"
	}
	if cfg.BrandName == "" {
		cfg.BrandName = "JobBoard"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5173"
	}

	cfg.VerifiedDomains = []string{"resend.dev", "jobboard.dev"}
	if extra := os.Getenv("EMAIL_VERIFIED_DOMAINS"); extra != "" {
		for _, d := range strings.Split(extra, ",") {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" {
				cfg.VerifiedDomains = append(cfg.VerifiedDomains, d)
			}
		}
	}

	if v := os.Getenv("EMAIL_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("EMAIL_RETRY_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetryDelay = time.Duration(n) * time.Millisecond
		}
	}
	return cfg
}

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether addr is a syntactically well-formed address.
func ValidEmail(addr string) bool {
	return emailRx.MatchString(addr)
}

// transient signatures in provider errors that warrant a retry.
var transientSignatures = []string{"network", "timeout", "econnreset", "rate limit", "connection reset"}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/openhire/jobboard/internal/metrics"
	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
)

// Dispatcher turns lifecycle events into rendered messages and attempts
// delivery through the configured Sender.
type Dispatcher struct {
	cfg    Config
	sender Sender
	log    *logrus.Logger
	stats  *metrics.Collector

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

func NewDispatcher(cfg Config, sender Sender, log *logrus.Logger) *Dispatcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1000 * time.Millisecond
	}
	if log == nil {
		log = logrus.New()
	}
	return &Dispatcher{cfg: cfg, sender: sender, log: log, sleep: time.Sleep}
}

// WithMetrics attaches a metrics collector. Safe to skip in tests.
func (d *Dispatcher) WithMetrics(c *metrics.Collector) *Dispatcher {
	d.stats = c
	return d
}

func (d *Dispatcher) Welcome(ctx context.Context, email, name string) (*Result, error) {
	const op = "Dispatcher.Welcome"

	if email == "" || name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email and name are required", nil)
	}

	content, err := render(welcomeTmpl, struct {
		Name, Brand, BaseURL string
	}{name, d.cfg.BrandName, d.cfg.BaseURL})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render template", err)
	}

	subject := fmt.Sprintf("Welcome to %s - Your Career Journey Starts Now!", d.cfg.BrandName)
	return d.deliver(ctx, op, KindWelcome, email, subject, "Welcome to Your Career Journey!", "#4299e1", content)
}

func (d *Dispatcher) ApplicationConfirmation(ctx context.Context, email, candidateName, jobTitle, companyName, applicationID string) (*Result, error) {
	const op = "Dispatcher.ApplicationConfirmation"

	if email == "" || candidateName == "" || jobTitle == "" || companyName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email, candidate name, job title, and company name are required", nil)
	}

	content, err := render(applicationConfirmationTmpl, struct {
		Name, JobTitle, CompanyName, ApplicationID, Brand, BaseURL string
	}{candidateName, jobTitle, companyName, applicationID, d.cfg.BrandName, d.cfg.BaseURL})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render template", err)
	}

	subject := fmt.Sprintf("Application Confirmed: %s at %s", jobTitle, companyName)
	return d.deliver(ctx, op, KindApplicationConfirmation, email, subject, "Application Submitted Successfully!", "#48bb78", content)
}

func (d *Dispatcher) StatusUpdate(ctx context.Context, email, candidateName, jobTitle, companyName string, status models.Status, notes string) (*Result, error) {
	const op = "Dispatcher.StatusUpdate"

	if email == "" || candidateName == "" || jobTitle == "" || companyName == "" || status == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email, candidate name, job title, company name, and status are required", nil)
	}

	c := copyFor(status)
	content, err := render(statusUpdateTmpl, struct {
		Name, JobTitle, CompanyName, Notes string
		Copy                               statusCopy
		StatusLabel                        string
		Brand, BaseURL                     string
	}{candidateName, jobTitle, companyName, notes, c, statusLabel(status), d.cfg.BrandName, d.cfg.BaseURL})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render template", err)
	}

	subject := fmt.Sprintf("%s %s at %s", statusSubjectPrefix(status), jobTitle, companyName)
	return d.deliver(ctx, op, KindStatusUpdate, email, subject, c.Title, c.Color, content)
}

func (d *Dispatcher) PasswordReset(ctx context.Context, email, name, resetToken string) (*Result, error) {
	const op = "Dispatcher.PasswordReset"

	if email == "" || name == "" || resetToken == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email, name, and reset token are required", nil)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", d.cfg.BaseURL, url.QueryEscape(resetToken))
	content, err := render(passwordResetTmpl, struct {
		Name, ResetURL, Brand string
		ExpiryHours           int
	}{name, resetURL, d.cfg.BrandName, 1})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render template", err)
	}

	subject := fmt.Sprintf("Reset Your %s Password", d.cfg.BrandName)
	return d.deliver(ctx, op, KindPasswordReset, email, subject, "Password Reset Request", "#f56565", content)
}

func (d *Dispatcher) EmployerNewApplication(ctx context.Context, email, employerName, candidateName, jobTitle, applicationID string) (*Result, error) {
	const op = "Dispatcher.EmployerNewApplication"

	if email == "" || employerName == "" || candidateName == "" || jobTitle == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email, employer name, candidate name, and job title are required", nil)
	}

	content, err := render(employerNewApplicationTmpl, struct {
		EmployerName, CandidateName, JobTitle, ApplicationID, Received, Brand, BaseURL string
	}{employerName, candidateName, jobTitle, applicationID, time.Now().UTC().Format("2006-01-02"), d.cfg.BrandName, d.cfg.BaseURL})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render template", err)
	}

	subject := fmt.Sprintf("New Application: %s - %s", jobTitle, candidateName)
	return d.deliver(ctx, op, KindEmployerNewApplication, email, subject, "New Application Received", "#4299e1", content)
}

// deliver applies validation, environment gating, the verified-domain policy,
// and bounded retry around a single message.
func (d *Dispatcher) deliver(ctx context.Context, op string, kind Kind, to, subject, title, color, content string) (*Result, error) {
	if !ValidEmail(to) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "valid recipient email address is required", nil)
	}
	if strings.TrimSpace(subject) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email subject is required", nil)
	}
	if strings.TrimSpace(content) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email content is required", nil)
	}

	html, err := renderLayout(d.cfg.BrandName, d.cfg.BaseURL, title, color, content)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to render layout", err)
	}

	entry := d.log.WithFields(logrus.Fields{
		"kind":    kind,
		"to":      to,
		"subject": subject,
	})

	if d.cfg.DevMode() {
		entry.WithFields(logrus.Fields{
			"outcome":        OutcomeDevLogged,
			"content_length": len(html),
		}).Info("email logged instead of sent")
		d.record(kind, OutcomeDevLogged)
		return &Result{
			Success:   true,
			MessageID: fmt.Sprintf("dev_%d", time.Now().UnixMilli()),
			Outcome:   OutcomeDevLogged,
		}, nil
	}

	if !d.domainVerified(to) && !d.cfg.ProductionEnabled {
		entry.WithFields(logrus.Fields{
			"outcome": OutcomeBlocked,
			"reason":  "unverified domain in production",
		}).Warn("email blocked")
		d.record(kind, OutcomeBlocked)
		return &Result{Outcome: OutcomeBlocked},
			utils.E(utils.CodeBlockedUnverifiedDomain, op, "email domain not verified for production sending", nil)
	}

	msg := &Message{
		From:    d.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    html,
		Headers: map[string]string{
			"X-Entity-Ref-ID":  fmt.Sprintf("jobboard-%d", time.Now().UnixMilli()),
			"List-Unsubscribe": fmt.Sprintf("<%s/unsubscribe>", d.cfg.BaseURL),
		},
	}

	var lastErr error
	retries := 0
	for {
		id, err := d.sender.Send(ctx, msg)
		if err == nil {
			entry.WithFields(logrus.Fields{
				"outcome":    OutcomeSent,
				"message_id": id,
			}).Info("email sent")
			d.record(kind, OutcomeSent)
			return &Result{Success: true, MessageID: id, Outcome: OutcomeSent}, nil
		}

		lastErr = err
		if retries >= d.cfg.MaxRetries || !isTransient(err) {
			break
		}
		retries++
		entry.WithFields(logrus.Fields{
			"attempt": retries,
			"max":     d.cfg.MaxRetries,
		}).WithError(err).Warn("email send retry")
		d.sleep(time.Duration(retries) * d.cfg.RetryDelay)
	}

	entry.WithFields(logrus.Fields{
		"outcome": OutcomeFailed,
		"retries": retries,
	}).WithError(lastErr).Error("email send failed")
	d.record(kind, OutcomeFailed)
	return &Result{Outcome: OutcomeFailed},
		utils.E(utils.CodeDeliveryFailed, op, "failed to send email", lastErr)
}

func (d *Dispatcher) domainVerified(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	for _, v := range d.cfg.VerifiedDomains {
		if domain == v {
			return true
		}
	}
	return false
}

func (d *Dispatcher) record(kind Kind, outcome Outcome) {
	if d.stats != nil {
		d.stats.RecordEmail(string(kind), string(outcome))
	}
}

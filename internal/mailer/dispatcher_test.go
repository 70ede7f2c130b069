package mailer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
)

type fakeSender struct {
	calls []*Message
	// errs is consumed one per Send call; nil means success.
	errs []error
	id   string
}

func (f *fakeSender) Send(ctx context.Context, m *Message) (string, error) {
	f.calls = append(f.calls, m)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if f.id == "" {
		return "msg_123", nil
	}
	return f.id, nil
}

func testConfig() Config {
	return Config{
		Env:             "production",
		From:            "JobBoard <noreply@jobboard.dev>",
		BrandName:       "JobBoard",
		BaseURL:         "https://jobs.example.com",
		VerifiedDomains: []string{"resend.dev", "jobboard.dev"},
		MaxRetries:      3,
		RetryDelay:      1000 * time.Millisecond,
	}
}

func newTestDispatcher(cfg Config, sender Sender) (*Dispatcher, *[]time.Duration) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	d := NewDispatcher(cfg, sender, log)
	var slept []time.Duration
	d.sleep = func(dur time.Duration) { slept = append(slept, dur) }
	return d, &slept
}

func TestDeliverDevMode(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "development"
	sender := &fakeSender{}
	d, _ := newTestDispatcher(cfg, sender)

	res, err := d.Welcome(context.Background(), "anyone@gmail.com", "Dana")
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if !res.Success || res.Outcome != OutcomeDevLogged {
		t.Errorf("result = %+v, want dev-logged success", res)
	}
	if !strings.HasPrefix(res.MessageID, "dev_") {
		t.Errorf("MessageID = %q, want dev_ prefix", res.MessageID)
	}
	if len(sender.calls) != 0 {
		t.Errorf("sender was contacted %d times in dev mode", len(sender.calls))
	}
}

func TestDeliverBlocksUnverifiedDomain(t *testing.T) {
	sender := &fakeSender{}
	d, _ := newTestDispatcher(testConfig(), sender)

	res, err := d.Welcome(context.Background(), "someone@gmail.com", "Dana")
	if !utils.IsCode(err, utils.CodeBlockedUnverifiedDomain) {
		t.Fatalf("err = %v, want BLOCKED_UNVERIFIED_DOMAIN", err)
	}
	if res == nil || res.Outcome != OutcomeBlocked {
		t.Errorf("result = %+v, want blocked outcome", res)
	}
	if len(sender.calls) != 0 {
		t.Errorf("sender was contacted %d times for a blocked domain", len(sender.calls))
	}
}

func TestDeliverProductionEnabledBypassesDomainPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.ProductionEnabled = true
	sender := &fakeSender{}
	d, _ := newTestDispatcher(cfg, sender)

	res, err := d.Welcome(context.Background(), "someone@gmail.com", "Dana")
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if res.Outcome != OutcomeSent || res.MessageID != "msg_123" {
		t.Errorf("result = %+v, want sent msg_123", res)
	}
}

func TestDeliverRetriesTransientErrors(t *testing.T) {
	sender := &fakeSender{errs: []error{
		errors.New("network error contacting provider"),
		errors.New("request timeout"),
		nil,
	}}
	d, slept := newTestDispatcher(testConfig(), sender)

	res, err := d.Welcome(context.Background(), "dana@jobboard.dev", "Dana")
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if res.Outcome != OutcomeSent {
		t.Errorf("outcome = %q, want sent", res.Outcome)
	}
	if len(sender.calls) != 3 {
		t.Errorf("sender called %d times, want 3", len(sender.calls))
	}
	// Linear backoff: base delay scaled by the retry number.
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i, dur := range want {
		if (*slept)[i] != dur {
			t.Errorf("sleep[%d] = %v, want %v", i, (*slept)[i], dur)
		}
	}
}

func TestDeliverExhaustsRetries(t *testing.T) {
	sender := &fakeSender{errs: []error{
		errors.New("rate limit exceeded"),
		errors.New("rate limit exceeded"),
		errors.New("rate limit exceeded"),
		errors.New("rate limit exceeded"),
	}}
	d, slept := newTestDispatcher(testConfig(), sender)

	res, err := d.Welcome(context.Background(), "dana@jobboard.dev", "Dana")
	if !utils.IsCode(err, utils.CodeDeliveryFailed) {
		t.Fatalf("err = %v, want DELIVERY_FAILED", err)
	}
	if res == nil || res.Outcome != OutcomeFailed {
		t.Errorf("result = %+v, want failed outcome", res)
	}
	// Initial attempt plus three retries.
	if len(sender.calls) != 4 {
		t.Errorf("sender called %d times, want 4", len(sender.calls))
	}
	if len(*slept) != 3 {
		t.Errorf("slept %d times, want 3", len(*slept))
	}
}

func TestDeliverDoesNotRetryPermanentErrors(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("invalid api key")}}
	d, slept := newTestDispatcher(testConfig(), sender)

	_, err := d.Welcome(context.Background(), "dana@jobboard.dev", "Dana")
	if !utils.IsCode(err, utils.CodeDeliveryFailed) {
		t.Fatalf("err = %v, want DELIVERY_FAILED", err)
	}
	if len(sender.calls) != 1 {
		t.Errorf("sender called %d times, want 1", len(sender.calls))
	}
	if len(*slept) != 0 {
		t.Errorf("slept %d times, want 0", len(*slept))
	}
}

func TestDeliverValidation(t *testing.T) {
	d, _ := newTestDispatcher(testConfig(), &fakeSender{})
	ctx := context.Background()

	cases := []struct {
		name string
		call func() (*Result, error)
	}{
		{"missing email", func() (*Result, error) { return d.Welcome(ctx, "", "Dana") }},
		{"malformed email", func() (*Result, error) { return d.Welcome(ctx, "not-an-email", "Dana") }},
		{"missing name", func() (*Result, error) { return d.Welcome(ctx, "dana@jobboard.dev", "") }},
		{"missing job title", func() (*Result, error) {
			return d.ApplicationConfirmation(ctx, "dana@jobboard.dev", "Dana", "", "Acme", "abc")
		}},
		{"missing status", func() (*Result, error) {
			return d.StatusUpdate(ctx, "dana@jobboard.dev", "Dana", "Engineer", "Acme", "", "")
		}},
		{"missing token", func() (*Result, error) {
			return d.PasswordReset(ctx, "dana@jobboard.dev", "Dana", "")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.call(); !utils.IsCode(err, utils.CodeInvalidArgument) {
				t.Errorf("err = %v, want INVALID_ARGUMENT", err)
			}
		})
	}
}

func TestDeliverEscapesUserContent(t *testing.T) {
	cfg := testConfig()
	cfg.ProductionEnabled = true
	sender := &fakeSender{}
	d, _ := newTestDispatcher(cfg, sender)

	_, err := d.StatusUpdate(context.Background(), "dana@jobboard.dev",
		"<script>alert(1)</script>", "Engineer", "Acme & Co", models.StatusReviewing,
		"great \"fit\" <b>overall</b>")
	if err != nil {
		t.Fatalf("StatusUpdate: %v", err)
	}

	html := sender.calls[0].HTML
	if strings.Contains(html, "<script>") {
		t.Error("candidate name was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped candidate name missing from output")
	}
	if !strings.Contains(html, "Acme &amp; Co") {
		t.Error("company name was not escaped")
	}
	if strings.Contains(html, "<b>overall</b>") {
		t.Error("notes markup was not escaped")
	}
}

func TestStatusSubjects(t *testing.T) {
	cfg := testConfig()
	cfg.ProductionEnabled = true

	cases := []struct {
		status models.Status
		want   string
	}{
		{models.StatusHired, "Congratulations!"},
		{models.StatusInterview, "Interview Invitation:"},
		{models.StatusShortlisted, "Great News!"},
		{models.StatusReviewing, "Application Update:"},
		{models.StatusRejected, "Application Update:"},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			sender := &fakeSender{}
			d, _ := newTestDispatcher(cfg, sender)

			_, err := d.StatusUpdate(context.Background(), "dana@jobboard.dev",
				"Dana", "Engineer", "Acme", tc.status, "")
			if err != nil {
				t.Fatalf("StatusUpdate: %v", err)
			}
			if got := sender.calls[0].Subject; !strings.HasPrefix(got, tc.want) {
				t.Errorf("subject = %q, want prefix %q", got, tc.want)
			}
		})
	}
}

func TestDomainVerified(t *testing.T) {
	d, _ := newTestDispatcher(testConfig(), &fakeSender{})

	cases := []struct {
		email string
		want  bool
	}{
		{"a@resend.dev", true},
		{"a@jobboard.dev", true},
		{"a@RESEND.DEV", true},
		{"a@gmail.com", false},
		{"no-at-sign", false},
		{"trailing@", false},
	}
	for _, tc := range cases {
		if got := d.domainVerified(tc.email); got != tc.want {
			t.Errorf("domainVerified(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  string
		want bool
	}{
		{"network unreachable", true},
		{"i/o timeout", true},
		{"read: ECONNRESET", true},
		{"rate limit exceeded", true},
		{"connection reset by peer", true},
		{"invalid api key", false},
		{"recipient rejected", false},
	}
	for _, tc := range cases {
		if got := isTransient(errors.New(tc.err)); got != tc.want {
			t.Errorf("isTransient(%q) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last@sub.domain.dev"}
	invalid := []string{"", "no-at", "a@b", "a b@c.dev", "@missing.dev"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

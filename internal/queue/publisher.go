package queue

import (
	"context"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/redis/go-redis/v9"
)

// DefaultStream is the redis stream the mail worker pool consumes.
const DefaultStream = "mail:stream"

// Publisher enqueues outbound emails onto a redis stream instead of
// delivering them inline. It satisfies services.Notifier, so services
// can swap between direct dispatch and queued dispatch by wiring.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{rdb: rdb, stream: stream}
}

func (p *Publisher) enqueue(ctx context.Context, op string, fields map[string]any) (*mailer.Result, error) {
	if err := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return &mailer.Result{Outcome: mailer.OutcomeFailed},
			utils.E(utils.CodeInternal, op, "failed to enqueue email", err)
	}
	return &mailer.Result{Success: true, Outcome: mailer.OutcomeQueued}, nil
}

func (p *Publisher) Welcome(ctx context.Context, email, name string) (*mailer.Result, error) {
	const op = "Publisher.Welcome"
	return p.enqueue(ctx, op, map[string]any{
		"kind": string(mailer.KindWelcome),
		"to":   email,
		"name": name,
	})
}

func (p *Publisher) ApplicationConfirmation(ctx context.Context, email, candidateName, jobTitle, companyName, applicationID string) (*mailer.Result, error) {
	const op = "Publisher.ApplicationConfirmation"
	return p.enqueue(ctx, op, map[string]any{
		"kind":           string(mailer.KindApplicationConfirmation),
		"to":             email,
		"candidate_name": candidateName,
		"job_title":      jobTitle,
		"company_name":   companyName,
		"application_id": applicationID,
	})
}

func (p *Publisher) StatusUpdate(ctx context.Context, email, candidateName, jobTitle, companyName string, status models.Status, notes string) (*mailer.Result, error) {
	const op = "Publisher.StatusUpdate"
	return p.enqueue(ctx, op, map[string]any{
		"kind":           string(mailer.KindStatusUpdate),
		"to":             email,
		"candidate_name": candidateName,
		"job_title":      jobTitle,
		"company_name":   companyName,
		"status":         string(status),
		"notes":          notes,
	})
}

func (p *Publisher) PasswordReset(ctx context.Context, email, name, resetToken string) (*mailer.Result, error) {
	const op = "Publisher.PasswordReset"
	return p.enqueue(ctx, op, map[string]any{
		"kind":  string(mailer.KindPasswordReset),
		"to":    email,
		"name":  name,
		"token": resetToken,
	})
}

func (p *Publisher) EmployerNewApplication(ctx context.Context, email, employerName, candidateName, jobTitle, applicationID string) (*mailer.Result, error) {
	const op = "Publisher.EmployerNewApplication"
	return p.enqueue(ctx, op, map[string]any{
		"kind":           string(mailer.KindEmployerNewApplication),
		"to":             email,
		"employer_name":  employerName,
		"candidate_name": candidateName,
		"job_title":      jobTitle,
		"application_id": applicationID,
	})
}

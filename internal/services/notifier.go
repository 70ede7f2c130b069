package services

import (
	"context"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
)

// Notifier is the outbound-notification port consumed by the services.
// Satisfied by mailer.Dispatcher (direct delivery) and queue.Publisher
// (stream-backed delivery).
type Notifier interface {
	Welcome(ctx context.Context, email, name string) (*mailer.Result, error)
	ApplicationConfirmation(ctx context.Context, email, candidateName, jobTitle, companyName, applicationID string) (*mailer.Result, error)
	StatusUpdate(ctx context.Context, email, candidateName, jobTitle, companyName string, status models.Status, notes string) (*mailer.Result, error)
	PasswordReset(ctx context.Context, email, name, resetToken string) (*mailer.Result, error)
	EmployerNewApplication(ctx context.Context, email, employerName, candidateName, jobTitle, applicationID string) (*mailer.Result, error)
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/metrics"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// notifyTimeout bounds a detached notification attempt, including its
// retries.
const notifyTimeout = 30 * time.Second

// ApplicationService owns the application lifecycle: creation with duplicate
// and deadline checks, status transitions with their audit trail, and the
// best-effort notifications that accompany each accepted change.
type ApplicationService interface {
	Submit(ctx context.Context, jobID, candidateID primitive.ObjectID, coverLetter, resume string) (*models.Application, error)
	Transition(ctx context.Context, appID, requesterID primitive.ObjectID, requesterRole string, newStatus models.Status, notes string) (*models.Application, error)
	Get(ctx context.Context, appID, requesterID primitive.ObjectID, requesterRole string) (*models.Application, error)
	ListByCandidate(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID, requesterID primitive.ObjectID, requesterRole string) ([]models.Application, error)
}

type applicationService struct {
	apps     mongorepo.ApplicationRepository
	jobs     mongorepo.JobRepository
	users    mongorepo.UserRepository
	notifier Notifier
	log      *logrus.Logger
	stats    *metrics.Collector

	// dispatch runs a notification task without blocking the caller.
	// Replaced with a synchronous version in tests.
	dispatch func(func())
}

func NewApplicationService(
	apps mongorepo.ApplicationRepository,
	jobs mongorepo.JobRepository,
	users mongorepo.UserRepository,
	notifier Notifier,
	log *logrus.Logger,
	stats *metrics.Collector,
) ApplicationService {
	if log == nil {
		log = logrus.New()
	}
	return &applicationService{
		apps:     apps,
		jobs:     jobs,
		users:    users,
		notifier: notifier,
		log:      log,
		stats:    stats,
		dispatch: func(f func()) { go f() },
	}
}

func (s *applicationService) Submit(ctx context.Context, jobID, candidateID primitive.ObjectID, coverLetter, resume string) (*models.Application, error) {
	const op = "ApplicationService.Submit"

	if jobID.IsZero() || candidateID.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "job_id and candidate_id are required", nil)
	}
	if strings.TrimSpace(resume) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "resume is required", nil)
	}
	if len(coverLetter) > models.MaxCoverLetterLen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "cover letter cannot exceed 2000 characters", nil)
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found or no longer active", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if !job.IsActive {
		return nil, utils.E(utils.CodeNotFound, op, "job not found or no longer active", nil)
	}
	if time.Now().After(job.ApplicationDeadline) {
		return nil, utils.E(utils.CodeDeadlinePassed, op, "application deadline has passed", nil)
	}

	// Friendly error path; the unique {job_id, candidate_id} index is the
	// actual guarantee under concurrent submits.
	if _, err := s.apps.GetByJobAndCandidate(ctx, jobID, candidateID); err == nil {
		return nil, utils.E(utils.CodeDuplicateSubmission, op, "you have already applied for this job", nil)
	} else if !errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInternal, op, "failed to check existing application", err)
	}

	app := &models.Application{
		Job:         jobID,
		Candidate:   candidateID,
		CoverLetter: coverLetter,
		Resume:      resume,
		Status:      models.StatusPending,
		AppliedAt:   time.Now().UTC(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeDuplicateSubmission, op, "you have already applied for this job", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create application", err)
	}

	if err := s.jobs.IncrementCounter(ctx, jobID, "applications_count", 1); err != nil {
		// The application exists; surfacing an error now would report a
		// successful submission as failed.
		s.log.WithError(err).WithField("job_id", jobID.Hex()).
			Error("failed to increment applications count")
	}
	if s.stats != nil {
		s.stats.RecordApplicationSubmitted()
	}

	s.dispatch(func() { s.notifySubmitted(app, job) })

	return app, nil
}

func (s *applicationService) Transition(ctx context.Context, appID, requesterID primitive.ObjectID, requesterRole string, newStatus models.Status, notes string) (*models.Application, error) {
	const op = "ApplicationService.Transition"

	if !newStatus.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "invalid status", nil)
	}
	if len(notes) > models.MaxNotesLen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "notes cannot exceed 1000 characters", nil)
	}

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load application", err)
	}

	// hired and rejected are terminal.
	if app.Status.IsTerminal() {
		return nil, utils.E(utils.CodeInvalidTransition, op, "application is in a terminal state", nil)
	}

	job, err := s.jobs.GetByID(ctx, app.Job)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if requesterRole != models.RoleAdmin && job.Company != requesterID {
		return nil, utils.E(utils.CodeForbidden, op, "access denied", nil)
	}

	now := time.Now().UTC()
	update := mongorepo.StatusUpdate{
		Status:     newStatus,
		ReviewedAt: now,
		ReviewedBy: requesterID,
	}
	if notes != "" {
		update.Notes = &notes
	}
	if err := s.apps.UpdateStatus(ctx, appID, update); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update application status", err)
	}

	app.Status = newStatus
	app.ReviewedAt = &now
	app.ReviewedBy = &requesterID
	if notes != "" {
		app.Notes = notes
	}
	if s.stats != nil {
		s.stats.RecordStatusTransition(string(newStatus))
	}

	s.dispatch(func() { s.notifyStatusChanged(app, job, newStatus, notes) })

	return app, nil
}

func (s *applicationService) Get(ctx context.Context, appID, requesterID primitive.ObjectID, requesterRole string) (*models.Application, error) {
	const op = "ApplicationService.Get"

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "application not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load application", err)
	}

	if requesterRole == models.RoleAdmin || app.Candidate == requesterID {
		return app, nil
	}

	job, err := s.jobs.GetByID(ctx, app.Job)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if job.Company != requesterID {
		return nil, utils.E(utils.CodeForbidden, op, "access denied", nil)
	}
	return app, nil
}

func (s *applicationService) ListByCandidate(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error) {
	const op = "ApplicationService.ListByCandidate"

	out, err := s.apps.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}
	return out, nil
}

func (s *applicationService) ListByJob(ctx context.Context, jobID, requesterID primitive.ObjectID, requesterRole string) ([]models.Application, error) {
	const op = "ApplicationService.ListByJob"

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found or access denied", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if requesterRole != models.RoleAdmin && job.Company != requesterID {
		return nil, utils.E(utils.CodeNotFound, op, "job not found or access denied", nil)
	}

	out, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}
	return out, nil
}

// notifySubmitted emails the candidate a confirmation and the employer a
// new-application notice. Runs detached from the submitting request; failures
// are logged and never surfaced.
func (s *applicationService) notifySubmitted(app *models.Application, job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{
		"application_id": app.ID.Hex(),
		"job_id":         job.ID.Hex(),
	})

	employer, err := s.users.GetByID(ctx, job.Company)
	if err != nil {
		entry.WithError(err).Warn("failed to load employer for notifications")
	}
	candidate, err := s.users.GetByID(ctx, app.Candidate)
	if err != nil {
		entry.WithError(err).Warn("failed to load candidate for notifications")
		return
	}

	companyName := "the hiring team"
	if employer != nil {
		companyName = employer.DisplayCompany()
	}

	s.logOutcome(entry, string(mailer.KindApplicationConfirmation))(
		s.notifier.ApplicationConfirmation(ctx, candidate.Email, candidate.Name, job.Title, companyName, app.ID.Hex()))

	if employer != nil {
		s.logOutcome(entry, string(mailer.KindEmployerNewApplication))(
			s.notifier.EmployerNewApplication(ctx, employer.Email, employer.Name, candidate.Name, job.Title, app.ID.Hex()))
	}
}

func (s *applicationService) notifyStatusChanged(app *models.Application, job *models.Job, status models.Status, notes string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{
		"application_id": app.ID.Hex(),
		"job_id":         job.ID.Hex(),
		"status":         status,
	})

	candidate, err := s.users.GetByID(ctx, app.Candidate)
	if err != nil {
		entry.WithError(err).Warn("failed to load candidate for status notification")
		return
	}

	companyName := "the hiring team"
	if employer, err := s.users.GetByID(ctx, job.Company); err == nil {
		companyName = employer.DisplayCompany()
	}

	s.logOutcome(entry, string(mailer.KindStatusUpdate))(
		s.notifier.StatusUpdate(ctx, candidate.Email, candidate.Name, job.Title, companyName, status, notes))
}

// logOutcome records a best-effort notification result.
func (s *applicationService) logOutcome(entry *logrus.Entry, kind string) func(*mailer.Result, error) {
	return func(res *mailer.Result, err error) {
		entry = entry.WithField("kind", kind)
		if err != nil {
			entry.WithError(err).Warn("notification failed")
			return
		}
		if res != nil {
			entry.WithField("outcome", res.Outcome).Info("notification dispatched")
		}
	}
}

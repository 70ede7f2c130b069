package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newAppService wires the service with a synchronous dispatch so tests can
// assert on notifications without sleeping.
func newAppService(apps *mockAppRepo, jobs *mockJobRepo, users *mockUserRepo, n Notifier) *applicationService {
	svc := NewApplicationService(apps, jobs, users, n, quietLogger(), nil).(*applicationService)
	svc.dispatch = func(f func()) { f() }
	return svc
}

func activeJob(company primitive.ObjectID) *models.Job {
	return &models.Job{
		ID:                  primitive.NewObjectID(),
		Title:               "Backend Engineer",
		Company:             company,
		IsActive:            true,
		ApplicationDeadline: time.Now().Add(72 * time.Hour),
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	employerID := primitive.NewObjectID()
	candidateID := primitive.NewObjectID()

	t.Run("creates application and notifies both parties", func(t *testing.T) {
		job := activeJob(employerID)
		var created *models.Application
		var counterField string
		var counterDelta int64

		apps := &mockAppRepo{
			CreateFunc: func(ctx context.Context, a *models.Application) error {
				a.ID = primitive.NewObjectID()
				created = a
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
			IncrementCounterFunc: func(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
				counterField, counterDelta = field, delta
				return nil
			},
		}
		users := &mockUserRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
				if id == employerID {
					return &models.User{ID: employerID, Name: "Acme", Email: "jobs@acme.dev", Role: models.RoleEmployer}, nil
				}
				return &models.User{ID: candidateID, Name: "Dana", Email: "dana@example.com", Role: models.RoleCandidate}, nil
			},
		}
		notifier := &mockNotifier{}

		svc := newAppService(apps, jobs, users, notifier)
		app, err := svc.Submit(ctx, job.ID, candidateID, "I would love to join.", "resume.pdf")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if app.Status != models.StatusPending {
			t.Errorf("status = %q, want %q", app.Status, models.StatusPending)
		}
		if created == nil || created.Job != job.ID || created.Candidate != candidateID {
			t.Errorf("created application not persisted correctly: %+v", created)
		}
		if counterField != "applications_count" || counterDelta != 1 {
			t.Errorf("counter update = (%q, %d), want (applications_count, 1)", counterField, counterDelta)
		}

		if len(notifier.Sent) != 2 {
			t.Fatalf("sent %d notifications, want 2", len(notifier.Sent))
		}
		if notifier.Sent[0].Kind != mailer.KindApplicationConfirmation || notifier.Sent[0].To != "dana@example.com" {
			t.Errorf("first notification = %+v", notifier.Sent[0])
		}
		if notifier.Sent[1].Kind != mailer.KindEmployerNewApplication || notifier.Sent[1].To != "jobs@acme.dev" {
			t.Errorf("second notification = %+v", notifier.Sent[1])
		}
	})

	t.Run("rejects duplicate submission", func(t *testing.T) {
		job := activeJob(employerID)
		apps := &mockAppRepo{
			GetByJobAndCandidateFunc: func(ctx context.Context, jobID, cID primitive.ObjectID) (*models.Application, error) {
				return &models.Application{Job: jobID, Candidate: cID}, nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}
		notifier := &mockNotifier{}

		svc := newAppService(apps, jobs, &mockUserRepo{}, notifier)
		_, err := svc.Submit(ctx, job.ID, candidateID, "", "resume.pdf")
		if !utils.IsCode(err, utils.CodeDuplicateSubmission) {
			t.Fatalf("err = %v, want DUPLICATE_SUBMISSION", err)
		}
		if len(notifier.Sent) != 0 {
			t.Errorf("sent %d notifications, want 0", len(notifier.Sent))
		}
	})

	t.Run("maps unique index violation to duplicate", func(t *testing.T) {
		job := activeJob(employerID)
		apps := &mockAppRepo{
			CreateFunc: func(ctx context.Context, a *models.Application) error {
				return utils.ErrDuplicate
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}

		svc := newAppService(apps, jobs, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Submit(ctx, job.ID, candidateID, "", "resume.pdf")
		if !utils.IsCode(err, utils.CodeDuplicateSubmission) {
			t.Fatalf("err = %v, want DUPLICATE_SUBMISSION", err)
		}
	})

	t.Run("rejects past deadline without side effects", func(t *testing.T) {
		job := activeJob(employerID)
		job.ApplicationDeadline = time.Now().Add(-time.Hour)

		createCalled := false
		apps := &mockAppRepo{
			CreateFunc: func(ctx context.Context, a *models.Application) error {
				createCalled = true
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}

		svc := newAppService(apps, jobs, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Submit(ctx, job.ID, candidateID, "", "resume.pdf")
		if !utils.IsCode(err, utils.CodeDeadlinePassed) {
			t.Fatalf("err = %v, want DEADLINE_PASSED", err)
		}
		if createCalled {
			t.Error("application was created despite expired deadline")
		}
	})

	t.Run("treats inactive job as missing", func(t *testing.T) {
		job := activeJob(employerID)
		job.IsActive = false
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}

		svc := newAppService(&mockAppRepo{}, jobs, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Submit(ctx, job.ID, candidateID, "", "resume.pdf")
		if !utils.IsCode(err, utils.CodeNotFound) {
			t.Fatalf("err = %v, want NOT_FOUND", err)
		}
	})

	t.Run("rejects oversized cover letter", func(t *testing.T) {
		long := make([]byte, models.MaxCoverLetterLen+1)
		for i := range long {
			long[i] = 'a'
		}

		svc := newAppService(&mockAppRepo{}, &mockJobRepo{}, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Submit(ctx, primitive.NewObjectID(), candidateID, string(long), "resume.pdf")
		if !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
		}
	})

	t.Run("submission survives counter failure", func(t *testing.T) {
		job := activeJob(employerID)
		apps := &mockAppRepo{
			CreateFunc: func(ctx context.Context, a *models.Application) error {
				a.ID = primitive.NewObjectID()
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
			IncrementCounterFunc: func(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
				return context.DeadlineExceeded
			},
		}
		users := &mockUserRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
				return &models.User{ID: id, Email: "x@example.com"}, nil
			},
		}

		svc := newAppService(apps, jobs, users, &mockNotifier{})
		if _, err := svc.Submit(ctx, job.ID, candidateID, "", "resume.pdf"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	})
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	employerID := primitive.NewObjectID()
	candidateID := primitive.NewObjectID()

	pendingApp := func(job *models.Job) *models.Application {
		return &models.Application{
			ID:        primitive.NewObjectID(),
			Job:       job.ID,
			Candidate: candidateID,
			Status:    models.StatusPending,
		}
	}

	t.Run("owner moves application forward and candidate is notified", func(t *testing.T) {
		job := activeJob(employerID)
		app := pendingApp(job)

		var applied mongorepo.StatusUpdate
		apps := &mockAppRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
				return app, nil
			},
			UpdateStatusFunc: func(ctx context.Context, id primitive.ObjectID, u mongorepo.StatusUpdate) error {
				applied = u
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}
		users := &mockUserRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
				if id == candidateID {
					return &models.User{ID: candidateID, Name: "Dana", Email: "dana@example.com"}, nil
				}
				return &models.User{ID: employerID, Name: "Acme", Company: models.Company{Name: "Acme Corp"}}, nil
			},
		}
		notifier := &mockNotifier{}

		svc := newAppService(apps, jobs, users, notifier)
		got, err := svc.Transition(ctx, app.ID, employerID, models.RoleEmployer, models.StatusInterview, "bring a portfolio")
		if err != nil {
			t.Fatalf("Transition: %v", err)
		}

		if applied.Status != models.StatusInterview {
			t.Errorf("persisted status = %q, want %q", applied.Status, models.StatusInterview)
		}
		if applied.Notes == nil || *applied.Notes != "bring a portfolio" {
			t.Errorf("persisted notes = %v", applied.Notes)
		}
		if applied.ReviewedBy != employerID || applied.ReviewedAt.IsZero() {
			t.Errorf("audit fields not set: %+v", applied)
		}
		if got.ReviewedAt == nil || got.ReviewedBy == nil {
			t.Error("returned application missing review audit fields")
		}

		if len(notifier.Sent) != 1 || notifier.Sent[0].Kind != mailer.KindStatusUpdate {
			t.Fatalf("notifications = %+v, want one status update", notifier.Sent)
		}
		if notifier.Sent[0].Status != models.StatusInterview || notifier.Sent[0].Notes != "bring a portfolio" {
			t.Errorf("status notification = %+v", notifier.Sent[0])
		}
	})

	t.Run("empty notes leave stored notes untouched", func(t *testing.T) {
		job := activeJob(employerID)
		app := pendingApp(job)
		app.Notes = "screened by phone"

		var applied mongorepo.StatusUpdate
		apps := &mockAppRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
				return app, nil
			},
			UpdateStatusFunc: func(ctx context.Context, id primitive.ObjectID, u mongorepo.StatusUpdate) error {
				applied = u
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}
		users := &mockUserRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
				return &models.User{ID: id, Email: "x@example.com"}, nil
			},
		}

		svc := newAppService(apps, jobs, users, &mockNotifier{})
		got, err := svc.Transition(ctx, app.ID, employerID, models.RoleEmployer, models.StatusReviewing, "")
		if err != nil {
			t.Fatalf("Transition: %v", err)
		}
		if applied.Notes != nil {
			t.Errorf("update carried notes %q, want nil", *applied.Notes)
		}
		if got.Notes != "screened by phone" {
			t.Errorf("notes = %q, want preserved", got.Notes)
		}
	})

	t.Run("terminal states are locked", func(t *testing.T) {
		for _, terminal := range []models.Status{models.StatusHired, models.StatusRejected} {
			job := activeJob(employerID)
			app := pendingApp(job)
			app.Status = terminal

			apps := &mockAppRepo{
				GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
					return app, nil
				},
			}

			svc := newAppService(apps, &mockJobRepo{}, &mockUserRepo{}, &mockNotifier{})
			_, err := svc.Transition(ctx, app.ID, employerID, models.RoleEmployer, models.StatusReviewing, "")
			if !utils.IsCode(err, utils.CodeInvalidTransition) {
				t.Errorf("from %s: err = %v, want INVALID_TRANSITION", terminal, err)
			}
		}
	})

	t.Run("non-owner employer is denied", func(t *testing.T) {
		job := activeJob(employerID)
		app := pendingApp(job)

		apps := &mockAppRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
				return app, nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}

		svc := newAppService(apps, jobs, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Transition(ctx, app.ID, primitive.NewObjectID(), models.RoleEmployer, models.StatusReviewing, "")
		if !utils.IsCode(err, utils.CodeForbidden) {
			t.Fatalf("err = %v, want FORBIDDEN", err)
		}
	})

	t.Run("admin may act on any job", func(t *testing.T) {
		job := activeJob(employerID)
		app := pendingApp(job)

		apps := &mockAppRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
				return app, nil
			},
			UpdateStatusFunc: func(ctx context.Context, id primitive.ObjectID, u mongorepo.StatusUpdate) error {
				return nil
			},
		}
		jobs := &mockJobRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
				return job, nil
			},
		}
		users := &mockUserRepo{
			GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
				return &models.User{ID: id, Email: "x@example.com"}, nil
			},
		}

		svc := newAppService(apps, jobs, users, &mockNotifier{})
		if _, err := svc.Transition(ctx, app.ID, primitive.NewObjectID(), models.RoleAdmin, models.StatusShortlisted, ""); err != nil {
			t.Fatalf("Transition as admin: %v", err)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newAppService(&mockAppRepo{}, &mockJobRepo{}, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Transition(ctx, primitive.NewObjectID(), employerID, models.RoleEmployer, models.Status("archived"), "")
		if !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
		}
	})

	t.Run("rejects oversized notes", func(t *testing.T) {
		long := make([]byte, models.MaxNotesLen+1)
		for i := range long {
			long[i] = 'n'
		}

		svc := newAppService(&mockAppRepo{}, &mockJobRepo{}, &mockUserRepo{}, &mockNotifier{})
		_, err := svc.Transition(ctx, primitive.NewObjectID(), employerID, models.RoleEmployer, models.StatusReviewing, string(long))
		if !utils.IsCode(err, utils.CodeInvalidArgument) {
			t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
		}
	})
}

func TestGetApplication(t *testing.T) {
	ctx := context.Background()
	employerID := primitive.NewObjectID()
	candidateID := primitive.NewObjectID()

	job := activeJob(employerID)
	app := &models.Application{
		ID:        primitive.NewObjectID(),
		Job:       job.ID,
		Candidate: candidateID,
		Status:    models.StatusPending,
	}

	apps := &mockAppRepo{
		GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
			return app, nil
		},
	}
	jobs := &mockJobRepo{
		GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
			return job, nil
		},
	}
	svc := newAppService(apps, jobs, &mockUserRepo{}, &mockNotifier{})

	cases := []struct {
		name      string
		requester primitive.ObjectID
		role      string
		wantErr   utils.Code
	}{
		{"owning candidate", candidateID, models.RoleCandidate, ""},
		{"owning employer", employerID, models.RoleEmployer, ""},
		{"admin", primitive.NewObjectID(), models.RoleAdmin, ""},
		{"other candidate", primitive.NewObjectID(), models.RoleCandidate, utils.CodeForbidden},
		{"other employer", primitive.NewObjectID(), models.RoleEmployer, utils.CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Get(ctx, app.ID, tc.requester, tc.role)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				return
			}
			if !utils.IsCode(err, tc.wantErr) {
				t.Fatalf("err = %v, want %s", err, tc.wantErr)
			}
		})
	}
}

func TestListByJob(t *testing.T) {
	ctx := context.Background()
	employerID := primitive.NewObjectID()
	job := activeJob(employerID)

	jobs := &mockJobRepo{
		GetByIDFunc: func(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
			return job, nil
		},
	}
	apps := &mockAppRepo{
		ListByJobFunc: func(ctx context.Context, jobID primitive.ObjectID) ([]models.Application, error) {
			return []models.Application{{Job: jobID}}, nil
		},
	}
	svc := newAppService(apps, jobs, &mockUserRepo{}, &mockNotifier{})

	if _, err := svc.ListByJob(ctx, job.ID, employerID, models.RoleEmployer); err != nil {
		t.Fatalf("ListByJob as owner: %v", err)
	}

	// Non-owners learn nothing about the job's existence.
	_, err := svc.ListByJob(ctx, job.ID, primitive.NewObjectID(), models.RoleEmployer)
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

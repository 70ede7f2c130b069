package services

import (
	"context"
	"time"

	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockAppRepo struct {
	CreateFunc               func(ctx context.Context, a *models.Application) error
	GetByIDFunc              func(ctx context.Context, id primitive.ObjectID) (*models.Application, error)
	GetByJobAndCandidateFunc func(ctx context.Context, jobID, candidateID primitive.ObjectID) (*models.Application, error)
	UpdateStatusFunc         func(ctx context.Context, id primitive.ObjectID, u mongorepo.StatusUpdate) error
	ListByCandidateFunc      func(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error)
	ListByJobFunc            func(ctx context.Context, jobID primitive.ObjectID) ([]models.Application, error)
	CountFunc                func(ctx context.Context) (int64, error)
	CountByJobIDsFunc        func(ctx context.Context, jobIDs []primitive.ObjectID) (int64, error)
}

func (m *mockAppRepo) Create(ctx context.Context, a *models.Application) error {
	return m.CreateFunc(ctx, a)
}

func (m *mockAppRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Application, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockAppRepo) GetByJobAndCandidate(ctx context.Context, jobID, candidateID primitive.ObjectID) (*models.Application, error) {
	if m.GetByJobAndCandidateFunc == nil {
		return nil, utils.ErrNotFound
	}
	return m.GetByJobAndCandidateFunc(ctx, jobID, candidateID)
}

func (m *mockAppRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, u mongorepo.StatusUpdate) error {
	return m.UpdateStatusFunc(ctx, id, u)
}

func (m *mockAppRepo) ListByCandidate(ctx context.Context, candidateID primitive.ObjectID) ([]models.Application, error) {
	return m.ListByCandidateFunc(ctx, candidateID)
}

func (m *mockAppRepo) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Application, error) {
	return m.ListByJobFunc(ctx, jobID)
}

func (m *mockAppRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

func (m *mockAppRepo) CountByJobIDs(ctx context.Context, jobIDs []primitive.ObjectID) (int64, error) {
	return m.CountByJobIDsFunc(ctx, jobIDs)
}

type mockJobRepo struct {
	CreateFunc           func(ctx context.Context, j *models.Job) error
	GetByIDFunc          func(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	ListFunc             func(ctx context.Context, f mongorepo.JobFilter, skip, limit int64) ([]models.Job, error)
	CountFunc            func(ctx context.Context, f mongorepo.JobFilter) (int64, error)
	UpdateFunc           func(ctx context.Context, j *models.Job) error
	SetActiveFunc        func(ctx context.Context, id primitive.ObjectID, active bool) error
	DeleteFunc           func(ctx context.Context, id primitive.ObjectID) error
	IncrementCounterFunc func(ctx context.Context, id primitive.ObjectID, field string, delta int64) error
	CategoryStatsFunc    func(ctx context.Context) ([]mongorepo.CategoryStat, error)
	CountByCompanyFunc   func(ctx context.Context, company primitive.ObjectID, activeOnly bool) (int64, error)
	IDsByCompanyFunc     func(ctx context.Context, company primitive.ObjectID) ([]primitive.ObjectID, error)
	ListRecentFunc       func(ctx context.Context, limit int64) ([]models.Job, error)
}

func (m *mockJobRepo) Create(ctx context.Context, j *models.Job) error { return m.CreateFunc(ctx, j) }

func (m *mockJobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockJobRepo) List(ctx context.Context, f mongorepo.JobFilter, skip, limit int64) ([]models.Job, error) {
	return m.ListFunc(ctx, f, skip, limit)
}

func (m *mockJobRepo) Count(ctx context.Context, f mongorepo.JobFilter) (int64, error) {
	return m.CountFunc(ctx, f)
}

func (m *mockJobRepo) Update(ctx context.Context, j *models.Job) error { return m.UpdateFunc(ctx, j) }

func (m *mockJobRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	return m.SetActiveFunc(ctx, id, active)
}

func (m *mockJobRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockJobRepo) IncrementCounter(ctx context.Context, id primitive.ObjectID, field string, delta int64) error {
	if m.IncrementCounterFunc == nil {
		return nil
	}
	return m.IncrementCounterFunc(ctx, id, field, delta)
}

func (m *mockJobRepo) CategoryStats(ctx context.Context) ([]mongorepo.CategoryStat, error) {
	return m.CategoryStatsFunc(ctx)
}

func (m *mockJobRepo) CountByCompany(ctx context.Context, company primitive.ObjectID, activeOnly bool) (int64, error) {
	return m.CountByCompanyFunc(ctx, company, activeOnly)
}

func (m *mockJobRepo) IDsByCompany(ctx context.Context, company primitive.ObjectID) ([]primitive.ObjectID, error) {
	return m.IDsByCompanyFunc(ctx, company)
}

func (m *mockJobRepo) ListRecent(ctx context.Context, limit int64) ([]models.Job, error) {
	return m.ListRecentFunc(ctx, limit)
}

type mockUserRepo struct {
	CreateFunc         func(ctx context.Context, u *models.User) error
	GetByIDFunc        func(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UpdateProfileFunc  func(ctx context.Context, u *models.User) error
	UpdatePasswordFunc func(ctx context.Context, id primitive.ObjectID, hash string) error
	SetActiveFunc      func(ctx context.Context, id primitive.ObjectID, active bool) error
	ListFunc           func(ctx context.Context, skip, limit int64) ([]models.User, error)
	CountFunc          func(ctx context.Context) (int64, error)
	CountByRoleFunc    func(ctx context.Context, role string) (int64, error)
	ListRecentFunc     func(ctx context.Context, limit int64) ([]models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *models.User) error {
	return m.CreateFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	return m.UpdateProfileFunc(ctx, u)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return m.UpdatePasswordFunc(ctx, id, hash)
}

func (m *mockUserRepo) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	return m.SetActiveFunc(ctx, id, active)
}

func (m *mockUserRepo) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	return m.ListFunc(ctx, skip, limit)
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	return m.CountFunc(ctx)
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	return m.CountByRoleFunc(ctx, role)
}

func (m *mockUserRepo) ListRecent(ctx context.Context, limit int64) ([]models.User, error) {
	return m.ListRecentFunc(ctx, limit)
}

// sentMail records one notifier call.
type sentMail struct {
	Kind   mailer.Kind
	To     string
	Status models.Status
	Notes  string
}

// mockNotifier records every call and always reports success.
type mockNotifier struct {
	Sent []sentMail
}

func (m *mockNotifier) ok() (*mailer.Result, error) {
	return &mailer.Result{Success: true, Outcome: mailer.OutcomeSent}, nil
}

func (m *mockNotifier) Welcome(ctx context.Context, email, name string) (*mailer.Result, error) {
	m.Sent = append(m.Sent, sentMail{Kind: mailer.KindWelcome, To: email})
	return m.ok()
}

func (m *mockNotifier) ApplicationConfirmation(ctx context.Context, email, candidateName, jobTitle, companyName, applicationID string) (*mailer.Result, error) {
	m.Sent = append(m.Sent, sentMail{Kind: mailer.KindApplicationConfirmation, To: email})
	return m.ok()
}

func (m *mockNotifier) StatusUpdate(ctx context.Context, email, candidateName, jobTitle, companyName string, status models.Status, notes string) (*mailer.Result, error) {
	m.Sent = append(m.Sent, sentMail{Kind: mailer.KindStatusUpdate, To: email, Status: status, Notes: notes})
	return m.ok()
}

func (m *mockNotifier) PasswordReset(ctx context.Context, email, name, resetToken string) (*mailer.Result, error) {
	m.Sent = append(m.Sent, sentMail{Kind: mailer.KindPasswordReset, To: email, Notes: resetToken})
	return m.ok()
}

func (m *mockNotifier) EmployerNewApplication(ctx context.Context, email, employerName, candidateName, jobTitle, applicationID string) (*mailer.Result, error) {
	m.Sent = append(m.Sent, sentMail{Kind: mailer.KindEmployerNewApplication, To: email})
	return m.ok()
}

// mockCache is an in-memory stand-in for the redis cache. TTLs are ignored.
type mockCache struct {
	data map[string]any
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string]any{}}
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *string:
		*d = v.(string)
	case *[]mongorepo.CategoryStat:
		*d = v.([]mongorepo.CategoryStat)
	}
	return true, nil
}

func (m *mockCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	m.data[key] = val
	return nil
}

func (m *mockCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

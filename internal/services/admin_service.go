package services

import (
	"context"
	"errors"

	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlatformStats is the admin dashboard snapshot.
type PlatformStats struct {
	TotalUsers        int64 `json:"total_users"`
	Candidates        int64 `json:"candidates"`
	Employers         int64 `json:"employers"`
	TotalJobs         int64 `json:"total_jobs"`
	ActiveJobs        int64 `json:"active_jobs"`
	TotalApplications int64 `json:"total_applications"`

	RecentUsers []models.User `json:"recent_users"`
	RecentJobs  []models.Job  `json:"recent_jobs"`
}

type AdminService interface {
	Stats(ctx context.Context) (*PlatformStats, error)
	ListUsers(ctx context.Context, page, limit int64) ([]models.User, Pagination, error)
	SetUserActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error)
}

type adminService struct {
	users mongorepo.UserRepository
	jobs  mongorepo.JobRepository
	apps  mongorepo.ApplicationRepository
	log   *logrus.Logger
}

func NewAdminService(
	users mongorepo.UserRepository,
	jobs mongorepo.JobRepository,
	apps mongorepo.ApplicationRepository,
	log *logrus.Logger,
) AdminService {
	if log == nil {
		log = logrus.New()
	}
	return &adminService{users: users, jobs: jobs, apps: apps, log: log}
}

func (s *adminService) Stats(ctx context.Context) (*PlatformStats, error) {
	const op = "AdminService.Stats"

	out := &PlatformStats{}
	var err error

	if out.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count users", err)
	}
	if out.Candidates, err = s.users.CountByRole(ctx, models.RoleCandidate); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count candidates", err)
	}
	if out.Employers, err = s.users.CountByRole(ctx, models.RoleEmployer); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count employers", err)
	}
	if out.TotalJobs, err = s.jobs.Count(ctx, mongorepo.JobFilter{IncludeInactive: true}); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count jobs", err)
	}
	if out.ActiveJobs, err = s.jobs.Count(ctx, mongorepo.JobFilter{}); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count active jobs", err)
	}
	if out.TotalApplications, err = s.apps.Count(ctx); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applications", err)
	}

	if out.RecentUsers, err = s.users.ListRecent(ctx, 5); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recent users", err)
	}
	if out.RecentJobs, err = s.jobs.ListRecent(ctx, 5); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list recent jobs", err)
	}
	return out, nil
}

func (s *adminService) ListUsers(ctx context.Context, page, limit int64) ([]models.User, Pagination, error) {
	const op = "AdminService.ListUsers"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, Pagination{}, utils.E(utils.CodeInternal, op, "failed to count users", err)
	}
	list, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, utils.E(utils.CodeInternal, op, "failed to list users", err)
	}
	return list, paginate(page, limit, total), nil
}

func (s *adminService) SetUserActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.User, error) {
	const op = "AdminService.SetUserActive"

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if u.Role == models.RoleAdmin {
		return nil, utils.E(utils.CodeForbidden, op, "cannot deactivate an admin account", nil)
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update user status", err)
	}
	u.IsActive = active
	s.log.WithFields(logrus.Fields{"user_id": id.Hex(), "active": active}).Info("user status changed")
	return u, nil
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openhire/jobboard/internal/cache"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	categoryStatsCacheKey = "jobs:category_stats"
	categoryStatsCacheTTL = 5 * time.Minute
)

// Pagination is the envelope returned alongside list results.
type Pagination struct {
	Current int64 `json:"current"`
	Pages   int64 `json:"pages"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

type JobService interface {
	Create(ctx context.Context, employerID primitive.ObjectID, j *models.Job) (*models.Job, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	List(ctx context.Context, f mongorepo.JobFilter, page, limit int64) ([]models.Job, Pagination, error)
	Update(ctx context.Context, id, employerID primitive.ObjectID, j *models.Job) (*models.Job, error)
	Delete(ctx context.Context, id, employerID primitive.ObjectID, requesterRole string) error
	CategoryStats(ctx context.Context) ([]mongorepo.CategoryStat, error)
}

type jobService struct {
	jobs  mongorepo.JobRepository
	cache cache.Cache
	log   *logrus.Logger
}

func NewJobService(jobs mongorepo.JobRepository, c cache.Cache, log *logrus.Logger) JobService {
	if log == nil {
		log = logrus.New()
	}
	return &jobService{jobs: jobs, cache: c, log: log}
}

func validateJob(op string, j *models.Job) error {
	switch {
	case len(strings.TrimSpace(j.Title)) < 5:
		return utils.E(utils.CodeInvalidArgument, op, "title must be at least 5 characters", nil)
	case len(strings.TrimSpace(j.Description)) < 50:
		return utils.E(utils.CodeInvalidArgument, op, "description must be at least 50 characters", nil)
	case len(strings.TrimSpace(j.Requirements)) < 20:
		return utils.E(utils.CodeInvalidArgument, op, "requirements must be at least 20 characters", nil)
	case !models.ValidJobCategory(j.Category):
		return utils.E(utils.CodeInvalidArgument, op, "invalid category", nil)
	case !models.ValidJobType(j.Type):
		return utils.E(utils.CodeInvalidArgument, op, "invalid job type", nil)
	case strings.TrimSpace(j.Location) == "":
		return utils.E(utils.CodeInvalidArgument, op, "location is required", nil)
	case !models.ValidExperience(j.Experience):
		return utils.E(utils.CodeInvalidArgument, op, "invalid experience level", nil)
	case j.ApplicationDeadline.IsZero():
		return utils.E(utils.CodeInvalidArgument, op, "application deadline is required", nil)
	}
	return nil
}

func (s *jobService) Create(ctx context.Context, employerID primitive.ObjectID, j *models.Job) (*models.Job, error) {
	const op = "JobService.Create"

	if employerID.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "employer_id is required", nil)
	}
	if err := validateJob(op, j); err != nil {
		return nil, err
	}

	j.Company = employerID
	j.IsActive = true
	j.ApplicationsCount = 0
	j.Views = 0
	if j.Salary.Currency == "" {
		j.Salary.Currency = "USD"
	}
	if j.Salary.Period == "" {
		j.Salary.Period = "yearly"
	}

	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create job", err)
	}
	s.invalidateStats(ctx)
	return j, nil
}

// Get returns an active posting and records the view. The counter goes
// through $inc, so concurrent reads never lose updates.
func (s *jobService) Get(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	const op = "JobService.Get"

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if !j.IsActive {
		return nil, utils.E(utils.CodeNotFound, op, "job not found", nil)
	}

	if err := s.jobs.IncrementCounter(ctx, id, "views", 1); err != nil {
		s.log.WithError(err).WithField("job_id", id.Hex()).Warn("failed to increment views")
	} else {
		j.Views++
	}
	return j, nil
}

func (s *jobService) List(ctx context.Context, f mongorepo.JobFilter, page, limit int64) ([]models.Job, Pagination, error) {
	const op = "JobService.List"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	jobs, err := s.jobs.List(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, Pagination{}, utils.E(utils.CodeInternal, op, "failed to list jobs", err)
	}
	total, err := s.jobs.Count(ctx, f)
	if err != nil {
		return nil, Pagination{}, utils.E(utils.CodeInternal, op, "failed to count jobs", err)
	}

	return jobs, paginate(page, limit, total), nil
}

func paginate(page, limit, total int64) Pagination {
	pages := (total + limit - 1) / limit
	return Pagination{
		Current: page,
		Pages:   pages,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

func (s *jobService) Update(ctx context.Context, id, employerID primitive.ObjectID, j *models.Job) (*models.Job, error) {
	const op = "JobService.Update"

	existing, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if existing.Company != employerID {
		return nil, utils.E(utils.CodeForbidden, op, "access denied", nil)
	}
	if err := validateJob(op, j); err != nil {
		return nil, err
	}

	j.ID = id
	j.Company = existing.Company
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update job", err)
	}
	s.invalidateStats(ctx)
	return j, nil
}

// Delete removes a posting outright only while nothing references it.
// Once applications exist the posting is retired via the active flag so
// application history stays intact.
func (s *jobService) Delete(ctx context.Context, id, employerID primitive.ObjectID, requesterRole string) error {
	const op = "JobService.Delete"

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "job not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load job", err)
	}
	if requesterRole != models.RoleAdmin && j.Company != employerID {
		return utils.E(utils.CodeForbidden, op, "access denied", nil)
	}

	if j.ApplicationsCount > 0 {
		if err := s.jobs.SetActive(ctx, id, false); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to retire job", err)
		}
	} else {
		if err := s.jobs.Delete(ctx, id); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to delete job", err)
		}
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *jobService) CategoryStats(ctx context.Context) ([]mongorepo.CategoryStat, error) {
	const op = "JobService.CategoryStats"

	if s.cache != nil {
		var cached []mongorepo.CategoryStat
		if hit, err := s.cache.GetJSON(ctx, categoryStatsCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	stats, err := s.jobs.CategoryStats(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to aggregate category stats", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, categoryStatsCacheKey, stats, categoryStatsCacheTTL); err != nil {
			s.log.WithError(err).Warn("failed to cache category stats")
		}
	}
	return stats, nil
}

func (s *jobService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, categoryStatsCacheKey); err != nil {
		s.log.WithError(err).Warn("failed to invalidate category stats cache")
	}
}

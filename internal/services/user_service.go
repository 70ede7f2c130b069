package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openhire/jobboard/internal/cache"
	"github.com/openhire/jobboard/internal/mailer"
	"github.com/openhire/jobboard/internal/models"
	mongorepo "github.com/openhire/jobboard/internal/repositories/mongo"
	"github.com/openhire/jobboard/internal/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	resetTokenPrefix = "pwreset:"
	resetTokenTTL    = time.Hour
)

// EmployerStats is the employer dashboard summary.
type EmployerStats struct {
	TotalJobs         int64 `json:"total_jobs"`
	ActiveJobs        int64 `json:"active_jobs"`
	InactiveJobs      int64 `json:"inactive_jobs"`
	TotalApplications int64 `json:"total_applications"`
}

type UserService interface {
	Register(ctx context.Context, name, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) (*models.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, next string) error
	Stats(ctx context.Context, employerID primitive.ObjectID) (*EmployerStats, error)
}

type userService struct {
	users    mongorepo.UserRepository
	jobs     mongorepo.JobRepository
	apps     mongorepo.ApplicationRepository
	tokens   cache.Cache
	notifier Notifier
	log      *logrus.Logger

	dispatch func(func())
}

func NewUserService(
	users mongorepo.UserRepository,
	jobs mongorepo.JobRepository,
	apps mongorepo.ApplicationRepository,
	tokens cache.Cache,
	notifier Notifier,
	log *logrus.Logger,
) UserService {
	if log == nil {
		log = logrus.New()
	}
	return &userService{
		users:    users,
		jobs:     jobs,
		apps:     apps,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
		dispatch: func(f func()) { go f() },
	}
}

func (s *userService) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	const op = "UserService.Register"

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case len(name) < 2:
		return nil, utils.E(utils.CodeInvalidArgument, op, "name must be at least 2 characters", nil)
	case !mailer.ValidEmail(email):
		return nil, utils.E(utils.CodeInvalidArgument, op, "valid email is required", nil)
	case len(password) < 6:
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 6 characters", nil)
	case role != models.RoleCandidate && role != models.RoleEmployer:
		return nil, utils.E(utils.CodeInvalidArgument, op, "role must be candidate or employer", nil)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	u := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return nil, utils.E(utils.CodeConflict, op, "email is already registered", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}

	s.dispatch(func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if _, err := s.notifier.Welcome(nctx, u.Email, u.Name); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID.Hex()).Warn("welcome email failed")
		}
	})

	return u, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if !u.IsActive {
		return nil, utils.E(utils.CodeForbidden, op, "account is deactivated", nil)
	}
	if err := utils.CheckPassword(u.Password, password); err != nil {
		return nil, utils.E(utils.CodeUnauthorized, op, "invalid credentials", nil)
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	const op = "UserService.Get"

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, u *models.User) (*models.User, error) {
	const op = "UserService.UpdateProfile"

	if u == nil || u.ID.IsZero() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user id is required", nil)
	}
	if len(u.Profile.Bio) > 500 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "bio cannot exceed 500 characters", nil)
	}
	if len(u.Company.Description) > 1000 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "company description cannot exceed 1000 characters", nil)
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return u, nil
}

func (s *userService) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	const op = "UserService.ChangePassword"

	if len(next) < 6 {
		return utils.E(utils.CodeInvalidArgument, op, "new password must be at least 6 characters", nil)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	if err := utils.CheckPassword(u.Password, current); err != nil {
		return utils.E(utils.CodeInvalidArgument, op, "current password is incorrect", nil)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update password", err)
	}
	return nil
}

// RequestPasswordReset always reports success to the caller so the endpoint
// cannot be used to probe which addresses exist.
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	const op = "UserService.RequestPasswordReset"

	email = strings.ToLower(strings.TrimSpace(email))
	if !mailer.ValidEmail(email) {
		return utils.E(utils.CodeInvalidArgument, op, "valid email is required", nil)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil
		}
		return utils.E(utils.CodeInternal, op, "failed to load user", err)
	}

	token := uuid.NewString()
	if err := s.tokens.SetJSON(ctx, resetTokenPrefix+token, u.ID.Hex(), resetTokenTTL); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store reset token", err)
	}

	s.dispatch(func() {
		nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if _, err := s.notifier.PasswordReset(nctx, u.Email, u.Name, token); err != nil {
			s.log.WithError(err).WithField("user_id", u.ID.Hex()).Warn("password reset email failed")
		}
	})
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token, next string) error {
	const op = "UserService.ResetPassword"

	if len(next) < 6 {
		return utils.E(utils.CodeInvalidArgument, op, "new password must be at least 6 characters", nil)
	}

	var userHex string
	hit, err := s.tokens.GetJSON(ctx, resetTokenPrefix+token, &userHex)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to load reset token", err)
	}
	if !hit {
		return utils.E(utils.CodeInvalidArgument, op, "reset token is invalid or expired", nil)
	}

	id, err := primitive.ObjectIDFromHex(userHex)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "corrupt reset token", err)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update password", err)
	}

	_ = s.tokens.Del(ctx, resetTokenPrefix+token)
	return nil
}

func (s *userService) Stats(ctx context.Context, employerID primitive.ObjectID) (*EmployerStats, error) {
	const op = "UserService.Stats"

	total, err := s.jobs.CountByCompany(ctx, employerID, false)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count jobs", err)
	}
	active, err := s.jobs.CountByCompany(ctx, employerID, true)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count active jobs", err)
	}
	ids, err := s.jobs.IDsByCompany(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list job ids", err)
	}
	appCount, err := s.apps.CountByJobIDs(ctx, ids)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applications", err)
	}

	return &EmployerStats{
		TotalJobs:         total,
		ActiveJobs:        active,
		InactiveJobs:      total - active,
		TotalApplications: appCount,
	}, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/auth"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/ratelimit"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
	"github.com/capitalize-ai/sales-coach/pkg/metrics"
)

// DashboardConversations is how many recent conversations the dashboard shows.
const DashboardConversations = 5

var (
	errInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "Invalid email or password. Please try again.")
	errEmailInUse         = apperr.New(apperr.ErrConflict, "Email address already in use")
)

// AccountService manages users and their credentials.
type AccountService struct {
	db      *sql.DB
	uow     store.UnitOfWork
	policy  auth.PasswordPolicy
	lockout *ratelimit.Lockout
	logger  *logger.Logger
	now     func() time.Time
}

// NewAccountService creates a new account service.
func NewAccountService(
	db *sql.DB,
	uow store.UnitOfWork,
	policy auth.PasswordPolicy,
	lockout *ratelimit.Lockout,
	log *logger.Logger,
) *AccountService {
	return &AccountService{
		db:      db,
		uow:     uow,
		policy:  policy,
		lockout: lockout,
		logger:  log,
		now:     utcNow,
	}
}

// Register creates a password account with a zeroed skill profile.
func (s *AccountService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, apperr.Validation("Please provide all required fields")
	}

	users := store.NewUserRepo(s.db)
	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil, errEmailInUse
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	if err := s.policy.Validate(req.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := model.NewUser(newID(), name, email, s.now())
	user.PasswordHash = hash
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, errEmailInUse
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials. Repeated failures lock the e-mail address for
// the configured lockout time; a success clears the failure count.
func (s *AccountService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("Please provide both email and password")
	}

	locked, wait, err := s.lockout.Locked(ctx, email)
	if err != nil {
		return nil, err
	}
	if locked {
		metrics.LoginAttemptsTotal.WithLabelValues("password", "locked").Inc()
		return nil, &apperr.RetryAfterError{
			RetryAfter: wait,
			Reason:     fmt.Sprintf("Too many login attempts. Try again in %d seconds.", seconds(wait)),
		}
	}

	user, err := store.NewUserRepo(s.db).GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, s.loginFailed(ctx, email)
	}

	if err := s.lockout.Reset(ctx, email); err != nil {
		s.logger.Warn("failed to reset login failures", zap.Error(err))
	}
	metrics.LoginAttemptsTotal.WithLabelValues("password", "success").Inc()
	return user, nil
}

func (s *AccountService) loginFailed(ctx context.Context, email string) error {
	locked, wait, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		return err
	}
	if locked {
		metrics.LoginAttemptsTotal.WithLabelValues("password", "locked").Inc()
		s.logger.Warn("account locked after failed logins")
		return &apperr.RetryAfterError{
			RetryAfter: wait,
			Reason:     fmt.Sprintf("Account locked due to too many failed attempts. Try again in %d seconds.", seconds(wait)),
		}
	}
	metrics.LoginAttemptsTotal.WithLabelValues("password", "failure").Inc()
	return errInvalidCredentials
}

// ResolveExternal maps a federated identity to a user: by external id
// first, then by e-mail (linking the external id if the account has none),
// otherwise a new account is created.
func (s *AccountService) ResolveExternal(ctx context.Context, id model.ExternalIdentity) (*model.User, error) {
	var user *model.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx store.DBTX) error {
		users := store.NewUserRepo(tx)

		u, err := users.GetByExternalID(ctx, id.ExternalID)
		if err == nil {
			user = u
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}

		email := normalizeEmail(id.Email)
		u, err = users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if u.ExternalID == "" {
				u.ExternalID = id.ExternalID
				u.UpdatedAt = s.now()
				if err := users.Update(ctx, u); err != nil {
					return err
				}
			}
			user = u
			return nil
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		name := strings.TrimSpace(id.DisplayName)
		if name == "" {
			name = email
		}
		u = model.NewUser(newID(), name, email, s.now())
		u.ExternalID = id.ExternalID
		if err := users.Create(ctx, u); err != nil {
			return err
		}
		s.logger.Info("user created from external identity", zap.String("user_id", u.ID))
		user = u
		return nil
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("google", "failure").Inc()
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("google", "success").Inc()
	return user, nil
}

// User returns the account by id.
func (s *AccountService) User(ctx context.Context, userID string) (*model.User, error) {
	return store.NewUserRepo(s.db).GetByID(ctx, userID)
}

// Dashboard returns the user's profile and most recent conversations.
func (s *AccountService) Dashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	user, err := s.User(ctx, userID)
	if err != nil {
		return nil, err
	}

	convs, err := store.NewConversationRepo(s.db).ListByUser(ctx, userID, DashboardConversations)
	if err != nil {
		return nil, err
	}
	recent := make([]model.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		recent = append(recent, c.Summary())
	}

	return &model.Dashboard{User: user, RecentConversations: recent}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

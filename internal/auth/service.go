package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/famiglia/ops-console/internal/users"
	pkgAuth "github.com/famiglia/ops-console/pkg/auth"
	"github.com/famiglia/ops-console/pkg/config"
	"github.com/famiglia/ops-console/pkg/db/models"
	pkgerrors "github.com/famiglia/ops-console/pkg/errors"
	"github.com/famiglia/ops-console/pkg/logger"
	"github.com/famiglia/ops-console/pkg/security"
	"gorm.io/gorm"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	forbiddenMessage          = "admin access required"
	missingFieldsMessage      = "email and password are required"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
}

type service struct {
	users  userRepository
	jwtCfg config.JWTConfig
	logg   *logger.Logger
	now    func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo  userRepository
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:  params.UserRepo,
		jwtCfg: params.JWTConfig,
		logg:   logg,
		now:    now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, missingFieldsMessage)
	}

	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   now.Add(pkgAuth.AccessTokenTTL),
		User:        users.FromModel(user),
	}, nil
}

// authenticate always performs one hash comparison, against the dummy hash
// when the email is unknown or the stored hash is unusable, so every failure
// path costs the same. An unusable stored hash counts as a mismatch.
func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, _ = security.VerifyPassword(password, security.DummyHash())
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logCtx := s.logg.WithUserID(ctx, strconv.FormatInt(user.ID, 10))
		s.logg.WarnErr(logCtx, "auth.login.unusable_hash", err)
		_, _ = security.VerifyPassword(password, security.DummyHash())
		valid = false
	}
	if !user.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, forbiddenMessage)
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

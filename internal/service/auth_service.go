package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"phone_auth/internal/model"
	"phone_auth/internal/repository"
	"phone_auth/internal/reqctx"
	"phone_auth/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// bcrypt only looks at the first 72 bytes; longer input is rejected rather than silently truncated.
const maxPasswordBytes = 72

const phoneRule = "len=10,number"

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, name, phone, password string) (*model.User, string, error)
	Login(ctx context.Context, phone, password string) (*model.User, string, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   *utils.PasswordHasher
	jwtUtil  *utils.JWTUtil
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, hasher *utils.PasswordHasher, jwtUtil *utils.JWTUtil, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		jwtUtil:  jwtUtil,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a new user account and returns it with a token carrying only the user id
func (s *authService) Register(ctx context.Context, name, phone, password string) (*model.User, string, error) {
	logger := reqctx.Logger(ctx, s.logger)
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)

	if name == "" || phone == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if err := s.validate.Var(phone, phoneRule); err != nil {
		return nil, "", ErrInvalidPhone
	}
	if len(password) > maxPasswordBytes {
		return nil, "", ErrPasswordTooLong
	}

	existingUser, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, "", oops.Code("STORE_LOOKUP_FAILED").With("operation", "register").Wrapf(err, "failed to check existing user")
	}
	if existingUser != nil {
		return nil, "", ErrPhoneAlreadyRegistered
	}

	hashedPassword, err := s.hasher.HashPassword(ctx, password)
	if err != nil {
		return nil, "", oops.Code("HASH_FAILED").Wrap(err)
	}

	user := &model.User{
		Name:         name,
		Phone:        phone,
		PasswordHash: hashedPassword,
		Role:         model.RoleUser,
		CreatedAt:    s.now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			// lost the race against a concurrent registration of the same phone
			logger.Info("duplicate phone rejected by store", slog.String("phone", phone))
			return nil, "", ErrPhoneAlreadyRegistered
		}
		return nil, "", oops.Code("STORE_INSERT_FAILED").Wrapf(err, "failed to create user in repository")
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, "")
	if err != nil {
		return nil, "", oops.Code("TOKEN_FAILED").With("user_id", user.ID).Wrapf(err, "user created, but failed to generate token")
	}

	logger.Info("user registered", slog.Int64("user_id", user.ID))
	return user, token, nil
}

// Login authenticates a user and returns a token carrying the user id and role
func (s *authService) Login(ctx context.Context, phone, password string) (*model.User, string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, "", oops.Code("STORE_LOOKUP_FAILED").With("operation", "login").Wrapf(err, "error finding user by phone")
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	ok, err := s.hasher.CheckPasswordHash(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, "", oops.Code("HASH_FAILED").Wrap(err)
	}
	if !ok {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", oops.Code("TOKEN_FAILED").With("user_id", user.ID).Wrapf(err, "failed to generate token")
	}

	reqctx.Logger(ctx, s.logger).Info("user logged in", slog.Int64("user_id", user.ID))
	return user, token, nil
}

// Logout has nothing to invalidate: tokens are stateless and expire on their own.
func (s *authService) Logout(ctx context.Context) error {
	reqctx.Logger(ctx, s.logger).Debug("logout acknowledged")
	return nil
}

// CurrentUser loads the user a validated token refers to
func (s *authService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, oops.Code("STORE_LOOKUP_FAILED").With("user_id", userID).Wrapf(err, "failed to load user")
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

package auth

import (
	"context"
	"errors"
	"time"

	autherrors "go-ems/internal/auth/errors"
	"go-ems/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	GetMe(ctx context.Context, userID string) (UserResponse, error)
}

type TokenIssuer interface {
	Issue(u User) (token string, expiresAt time.Time, err error)
}

type service struct {
	repo   Repository
	tokens TokenIssuer
	logger *zap.Logger
}

func NewService(repo Repository, tokens TokenIssuer, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{repo: repo, tokens: tokens, logger: l}
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (UserResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(mapRepositoryError(err), autherrors.ErrUserNotFound) {
		s.logger.Error("signup email lookup failed", zap.String("request_id", rid), zap.Error(err))
		return UserResponse{}, err
	}
	if existing != nil {
		return UserResponse{}, autherrors.ErrEmailAlreadyRegistered
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, err
	}

	user := &User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error("signup persist failed", zap.String("request_id", rid), zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("user signed up", zap.String("request_id", rid), zap.String("user_id", user.ID.String()))
	return mapToUserResponse(*user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(mapRepositoryError(err), autherrors.ErrUserNotFound) {
			return LoginResponse{}, autherrors.ErrInvalidCredentials
		}
		s.logger.Error("login lookup failed", zap.String("request_id", rid), zap.Error(err))
		return LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.logger.Warn("login password mismatch", zap.String("request_id", rid), zap.String("user_id", user.ID.String()))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		s.logger.Error("login token issue failed", zap.String("request_id", rid), zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	return LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      mapToUserResponse(*user),
	}, nil
}

func (s *service) GetMe(ctx context.Context, userID string) (UserResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return UserResponse{}, autherrors.ErrUserNotFound
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToUserResponse(*user), nil
}

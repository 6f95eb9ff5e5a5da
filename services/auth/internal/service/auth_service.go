package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/diagnosis/luxsuv-rentals/pkg/apperror"
	"github.com/diagnosis/luxsuv-rentals/pkg/auth"
	"github.com/diagnosis/luxsuv-rentals/pkg/config"
	"github.com/diagnosis/luxsuv-rentals/pkg/logger"
	"github.com/diagnosis/luxsuv-rentals/pkg/utils"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/domain"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/otp"
	"github.com/diagnosis/luxsuv-rentals/services/auth/internal/repository"
)

var (
	ErrEmailTaken         = apperror.Conflict("EMAIL_TAKEN", "an account with this email already exists")
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrInvalidRefresh     = apperror.Unauthorized("invalid refresh token")
)

// Verifier is the part of the OTP verifier the auth flows need.
type Verifier interface {
	Request(ctx context.Context, email string, purpose otp.Purpose) error
	Verify(ctx context.Context, email, code string, purpose otp.Purpose) error
}

type AuthService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
	RequestRegistrationOTP(ctx context.Context, email string) error
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error
}

type authService struct {
	userRepo repository.UserRepository
	verifier Verifier
	config   config.AuthConfig
}

func NewAuthService(userRepo repository.UserRepository, verifier Verifier, cfg config.AuthConfig) AuthService {
	return &authService{userRepo: userRepo, verifier: verifier, config: cfg}
}

// RequestOTP mails a registration code without checking for an account.
func (s *authService) RequestOTP(ctx context.Context, email string) error {
	return s.verifier.Request(ctx, utils.NormalizeEmail(email), otp.PurposeRegistration)
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string) error {
	return s.verifier.Verify(ctx, utils.NormalizeEmail(email), code, otp.PurposeRegistration)
}

func (s *authService) RequestRegistrationOTP(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return ErrEmailTaken
	}
	return s.verifier.Request(ctx, email, otp.PurposeRegistration)
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.TokenResponse, error) {
	req.Normalize()

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	if err := s.verifier.Verify(ctx, req.Email, req.Code, otp.PurposeRegistration); err != nil {
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Email, req.Name, auth.RoleUser, passwordHash)
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.issueTokens(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenResponse, error) {
	req.Normalize()

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// Refresh trades a refresh token for a new token pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenResponse, error) {
	claims, err := auth.Parse(refreshToken, s.config.JWTSecret)
	if err != nil || claims.TokenType != auth.TokenRefresh {
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefresh
	}

	return s.issueTokens(user)
}

// RequestPasswordReset does nothing for unknown emails so callers cannot
// probe which addresses have accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		logger.InfoContext(ctx, "Password reset requested for unknown email")
		return nil
	}
	return s.verifier.Request(ctx, email, otp.PurposePasswordReset)
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	req.Normalize()

	if err := s.verifier.Verify(ctx, req.Email, req.Code, otp.PurposePasswordReset); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return otp.ErrNotFound
	}

	passwordHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	logger.InfoContext(ctx, "Password reset", "user_id", user.ID)
	return nil
}

func (s *authService) issueTokens(user *domain.User) (*domain.TokenResponse, error) {
	accessToken, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}
	refreshToken, err := auth.NewRefreshToken(user.ID, user.Email, user.Role, s.config.JWTSecret, s.config.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &domain.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.AccessTokenTTL.Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

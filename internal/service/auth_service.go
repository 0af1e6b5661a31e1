package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"teashop/internal/mail"
	"teashop/internal/model"
	"teashop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- DTOs ---

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Nickname string `json:"nickname" binding:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type TokenResponse struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// The signup response is deliberately identical for new and
// already-registered addresses so the endpoint cannot enumerate accounts.
const signupMessage = "Thanks for registering. A confirmation email has been sent; follow the link inside to finish signing up."

// AuthService handles registration with email verification and JWT login.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (string, error)
	VerifyEmail(ctx context.Context, token uuid.UUID) error
	ResendVerification(ctx context.Context, req ResendVerificationRequest) error
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
}

type authService struct {
	userRepo  repository.UserRepository
	mailer    mail.Mailer
	jwtSecret []byte
	tokenTTL  time.Duration
	baseURL   string
	logger    zerolog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	mailer mail.Mailer,
	jwtSecret []byte,
	tokenTTL time.Duration,
	baseURL string,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		baseURL:   baseURL,
		logger:    logger,
	}
}

// Signup registers a new account or refreshes an unverified one. The
// response message never reveals whether the address was already taken.
func (s *authService) Signup(ctx context.Context, req SignupRequest) (string, error) {
	if !emailRe.MatchString(req.Email) {
		return "", &model.ValidationError{Field: "email", Message: "invalid email format"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if existing != nil {
		if existing.IsEmailVerified {
			// Already registered; respond exactly as for a fresh signup.
			return signupMessage, nil
		}
		// Unverified retry: take the new credentials, rotate the token and
		// resend. The send is best-effort, the rotation stands either way.
		existing.PasswordHash = string(hash)
		existing.Nickname = req.Nickname
		if err := s.rotateAndSend(ctx, existing); err != nil {
			s.logger.Warn().Err(err).Msg("resend of verification email failed")
		}
		return signupMessage, nil
	}

	user := &model.User{
		Email:             req.Email,
		Nickname:          req.Nickname,
		PasswordHash:      string(hash),
		Role:              "customer",
		IsActive:          false,
		IsEmailVerified:   false,
		VerificationToken: uuid.New(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent signup with the same address; the other request won.
			return signupMessage, nil
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	// A failed first send rolls the tentative account back so the user can
	// retry from scratch.
	if err := s.rotateAndSend(ctx, user); err != nil {
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("user_id", user.ID.String()).
				Msg("failed to roll back user after mail error")
		}
		return "", fmt.Errorf("send verification email: %w", err)
	}

	return signupMessage, nil
}

// VerifyEmail activates the account behind a token, once, within the 24h
// window.
func (s *authService) VerifyEmail(ctx context.Context, token uuid.UUID) error {
	user, err := s.userRepo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lookup token: %w", err)
	}

	if !user.IsVerificationTokenValid(time.Now()) {
		return model.ErrTokenExpired
	}
	if user.IsEmailVerified {
		return nil
	}

	user.IsEmailVerified = true
	user.IsActive = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("activate user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("email verified")
	return nil
}

// ResendVerification rotates the token and emails a fresh link to an
// unverified account.
func (s *authService) ResendVerification(ctx context.Context, req ResendVerificationRequest) error {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.IsEmailVerified {
		return model.ErrNotFound
	}
	return s.rotateAndSend(ctx, user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if !user.IsEmailVerified || !user.IsActive {
		return nil, model.ErrEmailNotVerified
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResponse{Token: signed, DisplayName: user.DisplayName()}, nil
}

// rotateAndSend persists a fresh token and sent-at stamp first, then mails
// the link: delivery is at-least-once and the latest token always wins.
func (s *authService) rotateAndSend(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.VerificationToken = uuid.New()
	user.VerificationSentAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("rotate verification token: %w", err)
	}

	link := fmt.Sprintf("%s/api/auth/verify-email/%s", s.baseURL, user.VerificationToken)
	body := fmt.Sprintf(
		"Hello %s,\n\nPlease confirm your email address by opening the link below within 24 hours:\n\n%s\n",
		user.DisplayName(), link)
	return s.mailer.Send(ctx, user.Email, "Confirm your email address", body)
}

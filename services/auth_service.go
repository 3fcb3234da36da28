package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/apperrors"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/repositories"
	"github.com/yeremiapane/notification-hub/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials  = apperrors.Unauthenticated("Invalid credentials")
	errInvalidRefreshToken = apperrors.Unauthenticated("Invalid refresh token")
)

type AuthService struct {
	users      repositories.UserRepository
	tokens     repositories.RefreshTokenRepository
	jwt        *utils.JWTManager
	refreshTTL time.Duration
	hashCost   int
	now        func() time.Time
}

// NewAuthService issues refresh tokens that live seven times as long as access tokens.
func NewAuthService(users repositories.UserRepository, tokens repositories.RefreshTokenRepository, jwt *utils.JWTManager) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		refreshTTL: 7 * jwt.AccessTTL(),
		hashCost:   bcrypt.DefaultCost,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Username  string `json:"username" binding:"required,min=3,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	TenantID  string `json:"tenant_id"`
}

type AuthResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	user := &models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.RoleUser,
		TenantID:  in.TenantID,
		Enabled:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return nil, apperrors.Conflict("Username or email is already taken")
		}
		return nil, apperrors.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("New user registered")
	return s.issue(ctx, user)
}

// Login accepts either the username or the email address.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, apperrors.Internal(err)
	}
	if !user.Enabled {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return s.issue(ctx, user)
}

// Refresh trades a valid refresh token for a new pair. The presented token stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	rt, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errInvalidRefreshToken
		}
		return nil, apperrors.Internal(err)
	}
	if rt.IsExpired(s.now()) {
		if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			utils.ErrorLogger.WithError(err).Error("Failed to delete expired refresh token")
		}
		return nil, apperrors.Unauthenticated("Refresh token expired")
	}

	user, err := s.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, errInvalidRefreshToken
		}
		return nil, apperrors.Internal(err)
	}
	if !user.Enabled {
		return nil, errInvalidRefreshToken
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errInvalidRefreshToken
		}
		return apperrors.Internal(err)
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// PurgeExpiredTokens removes refresh tokens past their expiry.
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	rt := &models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.tokens.ReplaceForUser(ctx, rt); err != nil {
		return nil, apperrors.Internal(err)
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: rt.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
		User:         user,
	}, nil
}

// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fundboard/internal/auth"
	"fundboard/internal/cache"
	"fundboard/internal/models"
	"fundboard/internal/observability"
	"fundboard/internal/repository"
	"fundboard/internal/validation"
)

const incorrectCredentials = "Incorrect Credentials"

// AuthService registers users and manages their session tokens.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *auth.Tokens
	now         func() time.Time
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login: the account and its one new token.
type AuthResult struct {
	User   models.UserSummary `json:"user"`
	Token  string             `json:"token"`
	Expiry time.Time          `json:"expiry"`
}

// Principal is an authenticated request's user plus the claims of its token.
type Principal struct {
	User   *models.User
	Claims *auth.Claims
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens *auth.Tokens,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		now:         time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Register")
	defer func() { finish(err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("A user with that username already exists.")
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(ctx, user, "register")
}

// Login checks credentials and opens a new session. Unknown users, wrong
// passwords and deactivated accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (_ *AuthResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Login")
	defer func() { finish(err) }()

	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, models.NewValidationError(incorrectCredentials)
	}
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive || !auth.CheckPassword(user.Password, in.Password) {
		return nil, models.NewValidationError(incorrectCredentials)
	}
	return s.issue(ctx, user, "login")
}

func (s *AuthService) issue(ctx context.Context, user *models.User, origin string) (*AuthResult, error) {
	issued, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	session := &models.Session{
		UserID:    user.ID,
		TokenID:   issued.TokenID,
		ExpiresAt: issued.ExpiresAt,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	observability.SessionsIssued.WithLabelValues(origin).Inc()
	return &AuthResult{User: user.Summary(), Token: issued.Token, Expiry: issued.ExpiresAt}, nil
}

// Authenticate resolves a bearer token to its user. The token must verify,
// must not be revoked, and must still have a live session row.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid token.")
	}
	if cache.IsBlacklisted(ctx, claims.ID) {
		return nil, models.NewUnauthorizedError("Invalid token.")
	}
	session, err := s.sessionRepo.GetByTokenID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(s.now()) {
		return nil, models.NewUnauthorizedError("Invalid token.")
	}

	userID, err := claims.UserID()
	if err != nil || userID != session.UserID {
		return nil, models.NewUnauthorizedError("Invalid token.")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Invalid token.")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("User inactive or deleted.")
	}
	return &Principal{User: user, Claims: claims}, nil
}

// Logout ends the session of one token.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.sessionRepo.DeleteByTokenID(ctx, claims.ID); err != nil {
		return err
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.revoke(ctx, claims.ID, expiresAt)
	return nil
}

// LogoutAll ends every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	sessions, err := s.sessionRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		s.revoke(ctx, session.TokenID, session.ExpiresAt)
	}
	return nil
}

// revoke blacklists jti until the token would have expired anyway.
func (s *AuthService) revoke(ctx context.Context, jti string, expiresAt time.Time) {
	ttl := expiresAt.Sub(s.now())
	if err := cache.Blacklist(ctx, jti, ttl); err != nil {
		// The session row is gone, which already rejects the token.
		slog.WarnContext(ctx, "token blacklist failed", slog.String("error", err.Error()))
	}
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

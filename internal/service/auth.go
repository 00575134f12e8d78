package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/cookbook/internal/apperror"
	"github.com/sakif/cookbook/internal/auth"
	"github.com/sakif/cookbook/internal/model"
	"github.com/sakif/cookbook/internal/repository"
	"github.com/sakif/cookbook/internal/validate"
)

// AuthService owns accounts: registration, password login, GitHub sign-in,
// profile and password changes. It issues session tokens but never touches
// cookies; that is the handler's job.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user's projection with a fresh token.
type AuthResult struct {
	User  *model.User
	Token string
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs it in. A duplicate email fails with
// ErrConflict before any session is issued.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.session(user)
}

// Login checks email and password. Unknown email and wrong password fail
// identically, and both pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(in.Password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.session(user)
}

// LoginGitHub signs in the local account with the GitHub profile's email,
// creating one on first use. Accounts created here have no password.
func (s *AuthService) LoginGitHub(ctx context.Context, profile *auth.GitHubProfile) (*AuthResult, error) {
	if profile == nil || profile.Email == "" {
		return nil, errors.New("service/auth: GitHub profile without email")
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(profile.Email))
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Name:  profile.DisplayName(),
			Email: normalizeEmail(profile.Email),
			Role:  model.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
		}
		s.logger.Info("user registered via GitHub",
			slog.String("user_id", user.ID),
			slog.String("login", profile.Login),
		)
	default:
		return nil, fmt.Errorf("service/auth: looking up GitHub user: %w", err)
	}

	return s.session(user)
}

// UpdateProfile changes the actor's own name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	user.Name = in.Name
	user.Email = in.Email
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.Projection(), nil
}

// ChangePassword replaces the actor's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *model.User, in PasswordChangeInput) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	user, err := s.users.GetUserByID(ctx, actor.ID)
	if err != nil {
		return err
	}

	if err := validate.Struct(in); err != nil {
		var ve *apperror.AppError
		if errors.As(err, &ve) && ve.Field == "confirmPassword" {
			return apperror.ValidationFailed(ve.Field, "Passwords don't match")
		}
		return err
	}
	if err := s.passwords.Verify(user.PasswordHash, in.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.ValidationFailed("currentPassword", "Current password is incorrect")
		}
		return fmt.Errorf("service/auth: verifying password: %w", err)
	}

	hash, err := s.passwords.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("service/auth: hashing password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("service/auth: saving password: %w", err)
	}

	s.logger.Info("password changed", slog.String("user_id", user.ID))
	return nil
}

func (s *AuthService) session(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user.Projection(), Token: token}, nil
}

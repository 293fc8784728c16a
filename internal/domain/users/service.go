package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campus-events/server/internal/auth"
	"github.com/rs/zerolog"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo Repository
	jwt  *auth.JWTManager
}

func NewService(repo Repository, jwt *auth.JWTManager) *Service {
	return &Service{repo: repo, jwt: jwt}
}

type SignupParams struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Signup creates an account and returns the user with a signed token.
// The email is normalized to lowercase so lookups are case-insensitive.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*User, string, error) {
	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, CreateParams{
		Name:         strings.TrimSpace(params.Name),
		Email:        NormalizeEmail(params.Email),
		PasswordHash: hash,
		Role:         string(auth.NormalizeRole(params.Role)),
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwt.Generate(user.ID, user.Role, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token.
// A missing user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.Generate(user.ID, user.Role, user.Name, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

func (s *Service) Profile(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureDefaultAdmin seeds an admin account on startup when none exists
// for the configured email. Intended for first-run bootstrap only.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	email = NormalizeEmail(email)
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if name == "" {
		name = "Administrator"
	}
	created, err := s.repo.Create(ctx, CreateParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         string(auth.RoleAdmin),
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil
		}
		return err
	}

	zerolog.Ctx(ctx).Info().
		Int64("user_id", created.ID).
		Str("email", created.Email).
		Msg("seeded default admin account")
	return nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

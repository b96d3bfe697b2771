package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/cryptox"
	"github.com/dmitrijs2005/cmcs/internal/server/auth"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
)

// MinPasswordLength applies to accounts created through Register.
const MinPasswordLength = 8

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, jwtSecret string, tokenValidity time.Duration) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(jwtSecret),
		tokenValidity: tokenValidity,
	}
}

// Login checks the password and returns a bearer token with the user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorInvalidCredentials
		}
		return "", nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if !ok {
		return "", nil, common.ErrorInvalidCredentials
	}

	token, err := auth.GenerateToken(models.Principal{UserID: user.ID, Role: user.Role}, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return token, user, nil
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Email      string
	Name       string
	Role       models.Role
	Password   string
	HourlyRate float64
}

// Register creates an account with an argon2id password hash. Lecturers
// must carry an hourly rate within the claim limits; claims copy it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 100 {
		return nil, invalid("email", "a valid email address is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > models.MaxLecturerName {
		return nil, invalid("name", "name must be 1 to %d characters", models.MaxLecturerName)
	}
	if !in.Role.Valid() {
		return nil, invalid("role", "unknown role %q", in.Role)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, invalid("password", "password must be at least %d characters", MinPasswordLength)
	}
	if in.Role == models.RoleLecturer && (in.HourlyRate < models.MinHourlyRate || in.HourlyRate > models.MaxHourlyRate) {
		return nil, invalid("hourly_rate", "hourly rate must be between %d and %d", models.MinHourlyRate, models.MaxHourlyRate)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		Name:         name,
		Role:         in.Role,
		PasswordHash: hash,
		HourlyRate:   in.HourlyRate,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/common"
	"github.com/dmitrijs2005/cmcs/internal/dbx"
	"github.com/dmitrijs2005/cmcs/internal/server/auth"
	"github.com/dmitrijs2005/cmcs/internal/server/models"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "test-secret"

func newUserService(t *testing.T, m *memDB) *UserService {
	t.Helper()
	db, _ := newMockDB(t)
	return NewUserService(db, fakeRepoManager{m}, jwtSecret, time.Hour)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	m := newMemDB()
	svc := newUserService(t, m)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{
		Email: "jane@uni.ac.za", Name: "Jane", Role: models.RoleLecturer, Password: "correct horse", HourlyRate: 350,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.Contains(t, u.PasswordHash, "$argon2id$")

	token, got, err := svc.Login(ctx, "jane@uni.ac.za", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	p, err := auth.ParseToken(token, []byte(jwtSecret))
	require.NoError(t, err)
	assert.Equal(t, models.Principal{UserID: u.ID, Role: models.RoleLecturer}, p)
}

func TestUserService_Login_Rejections(t *testing.T) {
	m := newMemDB()
	svc := newUserService(t, m)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "hr@uni.ac.za", Name: "HR", Role: models.RoleHR, Password: "hr-password"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "hr@uni.ac.za", "wrong-password")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@uni.ac.za", "hr-password")
	assert.ErrorIs(t, err, common.ErrorInvalidCredentials)
}

type failingUsers struct{ users.Repository }

func (failingUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("db down")
}

type failingUsersManager struct{ fakeRepoManager }

func (failingUsersManager) Users(dbx.DBTX) users.Repository { return failingUsers{} }

func TestUserService_Login_RepositoryError(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewUserService(db, failingUsersManager{}, jwtSecret, time.Hour)

	_, _, err := svc.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorInvalidCredentials)
}

func TestUserService_Login_CorruptHash(t *testing.T) {
	m := newMemDB()
	m.users["u-1"] = &models.User{ID: "u-1", Email: "x@uni.ac.za", Role: models.RoleHR, PasswordHash: "plaintext"}
	svc := newUserService(t, m)

	_, _, err := svc.Login(context.Background(), "x@uni.ac.za", "plaintext")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestUserService_Register_Validation(t *testing.T) {
	valid := RegisterInput{Email: "jane@uni.ac.za", Name: "Jane", Role: models.RoleLecturer, Password: "long-enough", HourlyRate: 300}

	tests := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"empty name", func(in *RegisterInput) { in.Name = "  " }, "name"},
		{"unknown role", func(in *RegisterInput) { in.Role = "Admin" }, "role"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"lecturer without rate", func(in *RegisterInput) { in.HourlyRate = 0 }, "hourly_rate"},
		{"lecturer rate too high", func(in *RegisterInput) { in.HourlyRate = 5000.01 }, "hourly_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newUserService(t, newMemDB())
			in := valid
			tt.edit(&in)

			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, common.ErrorValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUserService_Register_StaffNeedsNoRate(t *testing.T) {
	svc := newUserService(t, newMemDB())

	u, err := svc.Register(context.Background(), RegisterInput{
		Email: "coord@uni.ac.za", Name: "Coord", Role: models.RoleCoordinator, Password: "long-enough",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCoordinator, u.Role)
}

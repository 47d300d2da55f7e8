package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/routelink/bus-booking-backend/internal/database"
	"github.com/routelink/bus-booking-backend/internal/models"
	"github.com/routelink/bus-booking-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	service := NewAuthService(database.NewUserRepository(sqlxDB), jwtService, bcryptTestCost, testLogger())

	cleanup := func() {
		db.Close()
	}
	return service, mock, cleanup
}

func userRow(email, passwordHash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "age", "gender", "mobile", "email", "password_hash", "is_admin", "created_at",
	}).AddRow("user-1", "Asha", 30, "Female", "0771234567", email, passwordHash, false, time.Now())
}

func TestRegister_Success(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("FROM users").
		WithArgs("asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	user, err := service.Register(context.Background(), &models.RegisterUserRequest{
		Name:     "Asha",
		Age:      30,
		Gender:   "Female",
		Mobile:   "0771234567",
		Email:    "asha@example.com",
		Password: "strong-password",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	// The cleartext password never survives registration.
	assert.NotEqual(t, "strong-password", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("strong-password")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_EmailTaken(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("other"), bcryptTestCost)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users").
		WithArgs("asha@example.com").
		WillReturnRows(userRow("asha@example.com", string(hash)))

	_, err = service.Register(context.Background(), &models.RegisterUserRequest{
		Name:     "Asha",
		Age:      30,
		Gender:   "Female",
		Mobile:   "0771234567",
		Email:    "asha@example.com",
		Password: "strong-password",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_Success(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("strong-password"), bcryptTestCost)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users").
		WithArgs("asha@example.com").
		WillReturnRows(userRow("asha@example.com", string(hash)))

	tokens, user, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "asha@example.com",
		Password: "strong-password",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "user-1", user.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("strong-password"), bcryptTestCost)
	require.NoError(t, err)

	mock.ExpectQuery("FROM users").
		WithArgs("asha@example.com").
		WillReturnRows(userRow("asha@example.com", string(hash)))

	_, _, err = service.Login(context.Background(), &models.LoginRequest{
		Email:    "asha@example.com",
		Password: "guess",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UnknownEmail(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := service.Login(context.Background(), &models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_InvalidToken(t *testing.T) {
	service, mock, cleanup := setupAuthServiceTest(t)
	defer cleanup()

	_, err := service.Refresh(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}

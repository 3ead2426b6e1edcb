package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"articles/internal/models"
	"articles/internal/repositories"
	"articles/internal/services"
	"articles/internal/shared"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService() (*services.AuthService, *MockUserRepository, *MockTokenRepository) {
	users := new(MockUserRepository)
	tokens := new(MockTokenRepository)
	svc := services.NewAuthService(users, tokens, testJWTSecret, time.Hour).WithHashCost(bcrypt.MinCost)
	return svc, users, tokens
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, shared.ErrNotFound)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()

	input := services.RegisterInput{Name: "Test User", Email: "test@example.com", Password: "password123"}

	users.On("GetByEmail", ctx, input.Email).Return(nil, notFound("user")).Once()
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := svc.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "Test User", user.Name)
	assert.NotEqual(t, input.Password, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)))
	users.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()

	input := services.RegisterInput{Name: "Test User", Email: "test@example.com", Password: "password123"}
	users.On("GetByEmail", ctx, input.Email).Return(&models.User{ID: "1"}, nil).Once()

	_, err := svc.Register(ctx, input)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateOnInsert(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()

	input := services.RegisterInput{Name: "Test User", Email: "test@example.com", Password: "password123"}
	users.On("GetByEmail", ctx, input.Email).Return(nil, notFound("user")).Once()
	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicateEmail).Once()

	_, err := svc.Register(ctx, input)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestAuthService_Register_Invalid(t *testing.T) {
	svc, users, _ := newAuthService()

	_, err := svc.Register(context.Background(), services.RegisterInput{Name: " ", Email: "not-an-email", Password: "short"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthService()

	user := &models.User{ID: "user-123", Name: "Test", Email: "test@example.com", Password: hashed(t, "password123")}

	var stored *models.Token
	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	tokens.On("Create", ctx, mock.AnythingOfType("*models.Token")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Token) }).
		Return(nil).Once()

	token, got, err := svc.Login(ctx, services.LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user, got)
	require.NotNil(t, stored)
	assert.Equal(t, user.ID, stored.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, 5*time.Second)

	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["sub"])
	assert.Equal(t, stored.ID, claims["jti"])
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthService()

	user := &models.User{ID: "user-123", Email: "test@example.com", Password: hashed(t, "password123")}
	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	users.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound("user")).Once()

	_, _, wrongPassword := svc.Login(ctx, services.LoginInput{Email: user.Email, Password: "wrongpassword"})
	_, _, unknownEmail := svc.Login(ctx, services.LoginInput{Email: "nobody@example.com", Password: "password123"})

	assert.ErrorIs(t, wrongPassword, shared.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, shared.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, users, _ := newAuthService()

	users.On("GetByEmail", ctx, "test@example.com").Return(nil, errors.New("connection refused")).Once()

	_, _, err := svc.Login(ctx, services.LoginInput{Email: "test@example.com", Password: "password123"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}

func loginForToken(t *testing.T, svc *services.AuthService, users *MockUserRepository, tokens *MockTokenRepository, user *models.User) (string, *models.Token) {
	t.Helper()
	ctx := context.Background()
	var stored *models.Token
	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	tokens.On("Create", ctx, mock.AnythingOfType("*models.Token")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Token) }).
		Return(nil).Once()
	token, _, err := svc.Login(ctx, services.LoginInput{Email: user.Email, Password: "password123"})
	require.NoError(t, err)
	return token, stored
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthService()
	user := &models.User{ID: "user-123", Email: "test@example.com", Password: hashed(t, "password123")}

	token, stored := loginForToken(t, svc, users, tokens, user)

	tokens.On("GetByID", ctx, stored.ID).Return(stored, nil).Once()
	users.On("GetByID", ctx, user.ID).Return(user, nil).Once()

	got, tokenID, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, stored.ID, tokenID)
}

func TestAuthService_Authenticate_AfterLogout(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthService()
	user := &models.User{ID: "user-123", Email: "test@example.com", Password: hashed(t, "password123")}

	token, stored := loginForToken(t, svc, users, tokens, user)

	tokens.On("Delete", ctx, stored.ID).Return(nil).Once()
	require.NoError(t, svc.Logout(ctx, stored.ID))

	tokens.On("GetByID", ctx, stored.ID).Return(nil, notFound("token")).Once()
	_, _, err := svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestAuthService_Authenticate_RejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthService()

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": "token-1",
		"sub": "user-123",
		"exp": time.Now().Add(-time.Hour).Unix(), // Expired 1 hour ago
	})
	expiredString, err := expired.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": "token-1",
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	forgedString, err := forged.SignedString([]byte("another_secret"))
	require.NoError(t, err)

	noJTI := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noJTIString, err := noJTI.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "invalid.token.string",
		"expired": expiredString,
		"forged":  forgedString,
		"no jti":  noJTIString,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Authenticate(ctx, token)
			assert.ErrorIs(t, err, shared.ErrUnauthenticated)
		})
	}
	tokens.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthService_Authenticate_TokenOfAnotherUser(t *testing.T) {
	ctx := context.Background()
	svc, users, tokens := newAuthService()
	user := &models.User{ID: "user-123", Email: "test@example.com", Password: hashed(t, "password123")}

	token, stored := loginForToken(t, svc, users, tokens, user)

	tampered := *stored
	tampered.UserID = "someone-else"
	tokens.On("GetByID", ctx, stored.ID).Return(&tampered, nil).Once()

	_, _, err := svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthService_Logout_Twice(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthService()

	tokens.On("Delete", ctx, "token-1").Return(nil).Once()
	tokens.On("Delete", ctx, "token-1").Return(notFound("token")).Once()

	assert.NoError(t, svc.Logout(ctx, "token-1"))
	assert.ErrorIs(t, svc.Logout(ctx, "token-1"), shared.ErrUnauthenticated)
}

func TestAuthService_PruneExpired(t *testing.T) {
	ctx := context.Background()
	svc, _, tokens := newAuthService()

	tokens.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()

	n, err := svc.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

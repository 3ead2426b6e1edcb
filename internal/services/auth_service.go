package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"articles/internal/models"
	"articles/internal/repositories"
	"articles/internal/shared"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService handles registration, credential checks and the bearer token
// lifecycle. A token is honored only while its row exists in the token store,
// so deleting the row revokes it even though the JWT itself is still signed.
type AuthService struct {
	userRepo  repositories.UserRepository
	tokenRepo repositories.TokenRepository
	jwtSecret []byte
	tokenTTL  time.Duration // Lifetime of an issued token
	hashCost  int

	// dummyHash is compared against when the email is unknown, at the same
	// cost as real hashes.
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	s := &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
	return s.WithHashCost(bcrypt.DefaultCost)
}

// WithHashCost overrides the bcrypt cost and rebuilds the dummy hash at that
// cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.New().String()), cost)
	return s
}

// Register validates the input, hashes the password and stores the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func emailTaken() error {
	verr := shared.NewValidationError()
	verr.Add("email", "The email has already been taken.")
	return verr
}

// Login checks the credentials and issues a new bearer token. Unknown email
// and wrong password both return shared.ErrInvalidCredentials after doing the
// same bcrypt work.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, *models.User, error) {
	if err := validateStruct(in); err != nil {
		return "", nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return "", nil, fmt.Errorf("failed to look up user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return "", nil, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User) (string, error) {
	now := time.Now()
	record := &models.Token{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti": record.ID,
		"sub": user.ID,
		"iat": now.Unix(),
		"exp": record.ExpiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return "", err
	}
	return tokenString, nil
}

// Authenticate resolves a bearer token to its user. It returns the token ID
// so the caller can revoke exactly this token on logout.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, string, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrUnauthenticated, err)
	}

	tokenID, _ := claims["jti"].(string)
	userID, _ := claims["sub"].(string)
	if tokenID == "" || userID == "" {
		return nil, "", fmt.Errorf("%w: token is missing jti or sub", shared.ErrUnauthenticated)
	}

	record, err := s.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: token revoked", shared.ErrUnauthenticated)
		}
		return nil, "", err
	}
	if record.UserID != userID || !time.Now().Before(record.ExpiresAt) {
		return nil, "", fmt.Errorf("%w: token no longer valid", shared.ErrUnauthenticated)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: token owner no longer exists", shared.ErrUnauthenticated)
		}
		return nil, "", err
	}
	return user, tokenID, nil
}

func (s *AuthService) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// Logout revokes the token with the given ID.
func (s *AuthService) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: token already revoked", shared.ErrUnauthenticated)
		}
		return err
	}
	return nil
}

// PruneExpired removes expired token rows and reports how many went.
func (s *AuthService) PruneExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx, time.Now())
}

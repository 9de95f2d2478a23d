package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rainydayslabs/storefront-core/internal/errors"
	"github.com/rainydayslabs/storefront-core/internal/models"
	repository "github.com/rainydayslabs/storefront-core/internal/repositories"
	"github.com/rainydayslabs/storefront-core/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login and the stored shopper profile.
// Accounts live in the same key-value store as the rest of the session
// state, keyed by lower-cased email.
type UserService struct {
	mu          sync.Mutex
	kv          store.Store
	rateLimiter repository.RateLimitRepository
	jwtKey      []byte
}

// NewUserService builds the service. rateLimiter may be nil when no redis
// instance is configured; login then skips the attempt limit.
func NewUserService(kv store.Store, rateLimiter repository.RateLimitRepository, jwtKey []byte) *UserService {
	return &UserService{kv: kv, rateLimiter: rateLimiter, jwtKey: jwtKey}
}

// storedAccount is the persisted form. User.Password is excluded from JSON
// everywhere else, so the hash gets its own field here.
type storedAccount struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func (s *UserService) loadAccounts(ctx context.Context) (map[string]storedAccount, error) {
	accounts := make(map[string]storedAccount)

	if _, err := s.kv.Get(ctx, store.ProfileKey, &accounts); err != nil {
		return nil, errors.StorageError("Failed to load user accounts").WithError(err)
	}

	return accounts, nil
}

func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	email := strings.ToLower(req.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}

	if _, exists := accounts[email]; exists {
		return nil, errors.DuplicateEntryError("Email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("Failed to secure password").WithError(err)
	}

	user := models.User{
		ID:        uuid.New(),
		Name:      req.Name,
		Email:     email,
		CreatedAt: time.Now(),
	}

	accounts[email] = storedAccount{User: user, PasswordHash: string(hashedPassword)}

	if err := s.kv.Set(ctx, store.ProfileKey, accounts); err != nil {
		return nil, errors.StorageError("Failed to save user account").WithError(err)
	}

	return &user, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	email := strings.ToLower(req.Email)

	remaining := 0

	if s.rateLimiter != nil {
		allowed, rem, retryAfter, err := s.rateLimiter.CheckLoginRateLimit(ctx, email)
		if err != nil {
			return nil, errors.ThirdPartyError("Rate limit check failed").WithError(err)
		}

		if !allowed {
			return &models.LoginResponse{
				Success:    false,
				Message:    "Too many login attempts. Please try again later.",
				RetryAfter: retryAfter,
			}, nil
		}

		remaining = rem
	}

	s.mu.Lock()
	accounts, err := s.loadAccounts(ctx)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	account, exists := accounts[email]
	if !exists || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, nil
	}

	claims := &models.Claims{
		UserID:  account.ID,
		Email:   account.Email,
		IsAdmin: account.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtKey)
	if err != nil {
		return nil, errors.InternalError("Failed to generate authentication token").WithError(err)
	}

	return &models.LoginResponse{
		Success:   true,
		Token:     tokenString,
		ExpiresIn: int(time.Until(claims.ExpiresAt.Time).Seconds()),
	}, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {

	s.mu.Lock()
	accounts, err := s.loadAccounts(ctx)
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}

	account, exists := accounts[strings.ToLower(email)]
	if !exists {
		return nil, errors.NotFoundError("User not found")
	}

	return &account.User, nil
}

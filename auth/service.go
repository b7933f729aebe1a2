package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrTokenRevoked signals a token that was logged out.
	ErrTokenRevoked = errors.New("auth: token revoked")
)

// Service handles authentication business logic.
type Service struct {
	repo      Repository
	jwtSecret []byte
	now       func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// LoginResult bundles the token and domain user returned after a successful login.
type LoginResult struct {
	Token string
	User  User
}

// NewService creates a new authentication service.
func NewService(repo Repository, jwtSecret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
		revoked:   make(map[string]time.Time),
	}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if len(req.Password) < 8 {
		return User{}, ErrWeakPassword
	}
	if req.Email == "" || req.Name == "" {
		return User{}, fmt.Errorf("auth: email and name are required")
	}

	role := Role(strings.ToUpper(strings.TrimSpace(string(req.Role))))
	if role == "" {
		role = RoleStudent
	}
	if !isValidRole(role) {
		return User{}, fmt.Errorf("auth: invalid role %q", role)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, CreateUserParams{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(passwordHash),
		Role:         role,
	})
}

// Login authenticates a user and returns a JWT token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

// GetUserByID retrieves user information by ID.
func (s *Service) GetUserByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// VerifyToken validates a JWT token and returns its claims. Revoked tokens
// fail with ErrTokenRevoked.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	if s.isRevoked(tokenString) {
		return Claims{}, ErrTokenRevoked
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, fmt.Errorf("auth: invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, fmt.Errorf("auth: invalid user_id in token")
	}
	roleStr, ok := claims["user_type"].(string)
	if !ok {
		return Claims{}, fmt.Errorf("auth: invalid user_type in token")
	}
	role := Role(roleStr)
	if !isValidRole(role) {
		return Claims{}, fmt.Errorf("auth: invalid role %q in token", roleStr)
	}

	out := Claims{UserID: userID, Role: role}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Revoke rejects tokenString from now on. Tokens that do not verify are
// ignored; revoking twice is harmless.
func (s *Service) Revoke(tokenString string) error {
	claims, err := s.VerifyToken(tokenString)
	if errors.Is(err, ErrTokenRevoked) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for tok, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, tok)
		}
	}
	exp := claims.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(TokenTTL)
	}
	s.revoked[tokenString] = exp
	return nil
}

func (s *Service) isRevoked(tokenString string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[tokenString]
	return ok
}

// generateToken creates a JWT token for the user.
func (s *Service) generateToken(userID int64, role Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":   strconv.FormatInt(userID, 10),
		"user_type": string(role),
		"exp":       now.Add(TokenTTL).Unix(),
		"iat":       now.Unix(),
		// jti keeps tokens issued within one second distinct.
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func isValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleStudent:
		return true
	default:
		return false
	}
}

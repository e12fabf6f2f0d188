// Package auth handles shopper sign-up and login. Passwords are stored as
// bcrypt hashes and sessions are HS256-signed JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshika/basketwise/internal/domain"
)

// MinimumAge is the youngest age accepted at sign-up.
const MinimumAge = 15

var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrUserExists         = errors.New("auth: email or username already exists")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// SignUpInput carries the account fields; every field is required.
type SignUpInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Age      int
	Gender   string
}

// Claims is the payload of a session token.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c Claims) UserID() string {
	return c.Subject
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type userStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
}

// Service signs users up, logs them in and verifies their tokens.
type Service struct {
	users  userStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *zap.Logger
}

// NewService returns a Service issuing tokens that live for ttl.
func NewService(users userStore, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: logger.Named("auth"),
	}
}

// SignUp validates in and creates the account.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Gender = strings.TrimSpace(in.Gender)

	if in.Name == "" || in.Email == "" || in.Username == "" || in.Password == "" || in.Age == 0 || in.Gender == "" {
		return domain.User{}, fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if in.Age < MinimumAge {
		return domain.User{}, fmt.Errorf("%w: you must be at least %d years old", ErrInvalidInput, MinimumAge)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Age:          in.Age,
		Gender:       in.Gender,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (Token, domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Token{}, domain.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return Token{}, domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return Token{}, domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Token{}, domain.User{}, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return Token{}, domain.User{}, err
	}
	return token, user, nil
}

// User returns the account behind a verified token.
func (s *Service) User(ctx context.Context, claims Claims) (domain.User, error) {
	return s.users.Get(ctx, claims.UserID())
}

func (s *Service) issue(user domain.User) (Token, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expires}, nil
}

// Verify parses a token issued by this service.
func (s *Service) Verify(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

// Claims is what the API puts into every access token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users     UserRepository
	secret    []byte
	ttl       time.Duration
	validate  *validator.Validate
	duplicate error
	now       func() time.Time
}

// NewAuthService signs HS256 tokens with secret. duplicateErr is the repository error for a taken username.
func NewAuthService(users UserRepository, secret string, ttl time.Duration, duplicateErr error) *AuthService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AuthService{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		validate:  validator.New(),
		duplicate: duplicateErr,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	if err := validationError(s.validate.Struct(req)); err != nil {
		return model.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if s.duplicate != nil && errors.Is(err, s.duplicate) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	if err := validationError(s.validate.Struct(req)); err != nil {
		return model.TokenPair{}, err
	}
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.TokenPair{}, ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return model.TokenPair{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign token: %w", err)
	}
	return model.TokenPair{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		ExpiresIn:    int64(s.ttl / time.Second),
		TokenType:    "Bearer",
	}, nil
}

// ParseToken validates signature and expiry and returns the claims.
func (s *AuthService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify adapts ParseToken to the bearer middleware.
func (s *AuthService) Verify(token string) (any, error) {
	return s.ParseToken(token)
}

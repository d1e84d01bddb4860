package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errTaken = errors.New("taken")

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := NewAuthService(users, "secret", time.Minute, errTaken)

	users.On("Create", ctx, mock.MatchedBy(func(u model.User) bool {
		return u.Username == "ana" && u.Role == model.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password1")) == nil
	})).Return(model.User{ID: 1, Username: "ana"}, nil).Once()

	u, err := service.Register(ctx, model.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	users.On("Create", ctx, mock.Anything).Return(model.User{}, errTaken).Once()
	_, err = service.Register(ctx, model.RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	_, err = service.Register(ctx, model.RegisterRequest{Username: "a", Email: "bad", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_LoginAndParse(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := NewAuthService(users, "secret", time.Minute, errTaken)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("FindByUsername", ctx, "ana").Return(model.User{ID: 7, Username: "ana", Role: model.RoleAdmin, PasswordHash: string(hash)}, nil)
	users.On("FindByUsername", ctx, "ghost").Return(model.User{}, ErrNotFound)

	pair, err := service.Login(ctx, model.LoginRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)

	claims, err := service.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, "7", claims.Subject)

	_, err = service.Login(ctx, model.LoginRequest{Username: "ana", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, model.LoginRequest{Username: "ghost", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	now = now.Add(2 * time.Minute)
	_, err = service.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ParseToken_WrongSecret(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	users.On("FindByUsername", ctx, "ana").Return(model.User{ID: 1, Username: "ana", PasswordHash: string(hash)}, nil)

	issuer := NewAuthService(users, "one", time.Minute, nil)
	pair, err := issuer.Login(ctx, model.LoginRequest{Username: "ana", Password: "password1"})
	require.NoError(t, err)

	other := NewAuthService(users, "two", time.Minute, nil)
	_, err = other.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = other.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

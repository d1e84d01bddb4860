package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthService_Get(t *testing.T) {
	s := NewHealthService()
	assert.NoError(t, s.Get())

	s.Register("db", pingFunc(func(context.Context) error { return nil }))
	assert.NoError(t, s.Get())

	s.Register("redis", pingFunc(func(context.Context) error { return errors.New("refused") }))
	err := s.Get()
	assert.ErrorContains(t, err, "redis: refused")
}

package services

import (
	"context"
	"fmt"
	"time"
)

// Pinger is anything the health check can probe, a redis adapter for instance.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthService struct {
	deps map[string]Pinger
}

func NewHealthService() *HealthService {
	return &HealthService{deps: map[string]Pinger{}}
}

func (s *HealthService) Register(name string, p Pinger) {
	s.deps[name] = p
}

// Get probes every registered dependency and reports the first failure.
func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for name, p := range s.deps {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

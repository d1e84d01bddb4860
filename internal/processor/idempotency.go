package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/redis"
)

var (
	ErrAlreadyProcessed   = errors.New("job already processed")
	ErrLockAcquireFailed  = errors.New("failed to acquire processing lock")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

type IdempotencyConfig struct {
	LockTTL      time.Duration
	ProcessedTTL time.Duration
	MaxRetries   int

	RetryKeyPrefix     string
	LockKeyPrefix      string
	ProcessedKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		ProcessedTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "delivery:retry:",
		LockKeyPrefix:      "delivery:lock:",
		ProcessedKeyPrefix: "delivery:processed:",
	}
}

// IdempotencyService makes sure a delivery job reaches the provider at most once
// per success, even when several consumers see the same stream entry.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(adapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{redis: adapter, config: config}
}

type ProcessingContext struct {
	JobID      string
	RetryCount int
	IsRetry    bool
	locked     bool
}

// AcquireProcessingLock checks the processed marker and the retry budget, then takes
// the per-job lock. A failing redis read of the marker does not block processing.
func (s *IdempotencyService) AcquireProcessingLock(_ context.Context, jobID string) (*ProcessingContext, error) {
	done, err := s.redis.Exist(s.config.ProcessedKeyPrefix + jobID)
	if err != nil {
		logger.Warn("failed to check processed marker", "job_id", jobID, "error", err)
	} else if done > 0 {
		return nil, ErrAlreadyProcessed
	}

	retries, err := s.GetRetryCount(context.Background(), jobID)
	if err != nil {
		logger.Warn("failed to read retry counter", "job_id", jobID, "error", err)
	}
	if retries >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: job_id=%s, retries=%d", ErrMaxRetriesExceeded, jobID, retries)
	}

	stamp := []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
	acquired, err := s.redis.SetNX(s.config.LockKeyPrefix+jobID, stamp, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &ProcessingContext{
		JobID:      jobID,
		RetryCount: retries,
		IsRetry:    retries > 0,
		locked:     true,
	}, nil
}

func (s *IdempotencyService) MarkSuccess(_ context.Context, pc *ProcessingContext) error {
	if err := s.redis.Set(s.config.ProcessedKeyPrefix+pc.JobID, []byte("1"), s.config.ProcessedTTL); err != nil {
		return fmt.Errorf("failed to mark as processed: %w", err)
	}
	s.del(s.config.RetryKeyPrefix + pc.JobID)
	s.unlock(pc)
	return nil
}

// MarkFailure bumps the retry counter and frees the lock for the next attempt.
func (s *IdempotencyService) MarkFailure(_ context.Context, pc *ProcessingContext, reason error) error {
	n, err := s.redis.Incr(s.config.RetryKeyPrefix+pc.JobID, s.config.ProcessedTTL)
	if err != nil {
		logger.Error("failed to increment retry counter", "job_id", pc.JobID, "error", err)
	}
	s.unlock(pc)
	logger.Warn("delivery failed, will retry",
		"job_id", pc.JobID,
		"retry_count", n,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return err
}

func (s *IdempotencyService) ReleaseLock(_ context.Context, pc *ProcessingContext) {
	if pc == nil || !pc.locked {
		return
	}
	s.unlock(pc)
}

func (s *IdempotencyService) unlock(pc *ProcessingContext) {
	s.del(s.config.LockKeyPrefix + pc.JobID)
	pc.locked = false
}

func (s *IdempotencyService) del(key string) {
	if err := s.redis.Del(key); err != nil {
		logger.Warn("failed to delete key", "key", key, "error", err)
	}
}

func (s *IdempotencyService) GetRetryCount(_ context.Context, jobID string) (int, error) {
	b, err := s.redis.Get(s.config.RetryKeyPrefix + jobID)
	if err != nil {
		if errors.Is(err, redis.NilError) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.Atoi(string(b))
}

func (s *IdempotencyService) IsProcessed(_ context.Context, jobID string) (bool, error) {
	n, err := s.redis.Exist(s.config.ProcessedKeyPrefix + jobID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

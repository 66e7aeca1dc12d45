package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when a key has no row.
var ErrNotFound = errors.New("setting not found")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=settings
type Repository interface {
	GetValue(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, setting Setting) error
	List(ctx context.Context) ([]Setting, error)
}

// Service reads configuration with a read-through cache. Values change rarely;
// every circulation operation consults them, so hits must not touch the
// database. Set invalidates the cached key.
type Service struct {
	repo Repository

	mu    sync.RWMutex
	cache map[string]string
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		cache: make(map[string]string),
	}
}

// Get returns the raw value for key, or def when no row exists. Storage
// failures also fall back to def: missing configuration is never fatal.
func (s *Service) Get(ctx context.Context, key, def string) string {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()

	if ok {
		return v
	}

	v, err := s.repo.GetValue(ctx, key)
	if err != nil {
		return def
	}

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()

	return v
}

func (s *Service) GetInt(ctx context.Context, key string, def int) int {
	v := s.Get(ctx, key, "")
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func (s *Service) GetFloat(ctx context.Context, key string, def float64) float64 {
	v := s.Get(ctx, key, "")
	if v == "" {
		return def
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}

	return f
}

func (s *Service) GetDecimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	v := s.Get(ctx, key, "")
	if v == "" {
		return def
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}

	return d
}

func (s *Service) GetBool(ctx context.Context, key string, def bool) bool {
	v := s.Get(ctx, key, "")
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

// Set writes the value and drops it from the cache so the next read sees the
// stored row.
func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Upsert(ctx, Setting{Key: key, Value: value}); err != nil {
		return fmt.Errorf("updating setting %q: %w", key, err)
	}

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	return nil
}

// All lists every stored setting, bypassing the cache.
func (s *Service) All(ctx context.Context) ([]Setting, error) {
	return s.repo.List(ctx)
}

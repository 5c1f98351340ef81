package profit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fetches the raw attribution inputs for one day.
type Loader interface {
	LoadDayInputs(ctx context.Context, date time.Time) (DayInputs, error)
}

// Service coordinates report computation with the cache layer. Concurrent
// requests for the same day collapse into a single build.
type Service struct {
	loader Loader
	cache  *Cache
	group  singleflight.Group
}

// NewService wires a Loader with a Cache helper.
func NewService(loader Loader, cache *Cache) *Service {
	return &Service{loader: loader, cache: cache}
}

// ProfitSummary returns the cost attribution report for a day, serving
// from the versioned cache when warm.
func (s *Service) ProfitSummary(ctx context.Context, date time.Time) (*DayProfitReport, error) {
	key, err := s.cache.BuildKey(ctx, keyProfitSummary(date))
	if err != nil {
		return nil, fmt.Errorf("profit: build cache key: %w", err)
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var report DayProfitReport
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
			inputs, err := s.loader.LoadDayInputs(ctx, date)
			if err != nil {
				return nil, err
			}
			return Compute(inputs), nil
		})
		if err != nil {
			return nil, err
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}

	return value.(*DayProfitReport), nil
}

// Warm precomputes and caches the report for a day, used by the overnight
// job so the morning dashboard load is already hot.
func (s *Service) Warm(ctx context.Context, date time.Time) error {
	_, err := s.ProfitSummary(ctx, date)
	return err
}

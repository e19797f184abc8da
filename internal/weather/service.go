package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Service orchestrates per-variable provider requests, assembles the results
// and memoizes tables in the advisory context.
type Service struct {
	provider    Provider
	cache       TableCache
	log         zerolog.Logger
	concurrency int
	inflight    singleflight.Group
}

// NewService creates a new Service. concurrency bounds parallel provider
// requests; values below 1 mean one request at a time.
func NewService(provider Provider, cache TableCache, concurrency int, log zerolog.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		provider:    provider,
		cache:       cache,
		log:         log.With().Str("component", "weather").Logger(),
		concurrency: concurrency,
	}
}

// Fetch returns the assembled table for a region and period, fetching it on
// first use. A variable that fails to download only drops its column; missing
// precipitation is fatal.
func (s *Service) Fetch(ctx context.Context, regionName string, period Period) (*Table, error) {
	region, err := LookupRegion(regionName)
	if err != nil {
		return nil, err
	}

	key := Key(region.Name, period)
	if t, ok := s.cache.GetTable(key); ok {
		return t, nil
	}

	v, err, _ := s.inflight.Do(key, func() (interface{}, error) {
		if t, ok := s.cache.GetTable(key); ok {
			return t, nil
		}
		t, err := s.fetchTable(ctx, region, period)
		if err != nil {
			return nil, err
		}
		return s.cache.PutTable(key, t), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

func (s *Service) fetchTable(ctx context.Context, region Region, period Period) (*Table, error) {
	var (
		mu        sync.Mutex
		raw       = make(map[Variable]RawSeries, len(TrackedVariables))
		precipErr error
	)

	s.log.Debug().Str("region", region.Name).Str("period", period.String()).Msg("fetching climate series")

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, v := range TrackedVariables {
		v := v
		g.Go(func() error {
			series, err := s.provider.FetchSeries(gCtx, SeriesRequest{
				Region:    region,
				Variable:  v,
				StartYear: period.Start.Year,
				EndYear:   period.End.Year,
			})
			if err != nil {
				// Isolated per variable: the column is dropped, the others continue.
				ferr := &FetchError{Region: region.Name, Variable: v, Err: err}
				s.log.Warn().Err(ferr).Str("provider", s.provider.Name()).Msg("variable fetch failed")
				if v == VarPrecipitation {
					mu.Lock()
					precipErr = ferr
					mu.Unlock()
				}
				return nil
			}
			mu.Lock()
			raw[v] = series
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := Assemble(region.Name, period, raw)
	if err != nil {
		// Keep the upstream failure visible behind the empty result it caused.
		if precipErr != nil {
			return nil, fmt.Errorf("%s: %w: %w", region.Name, err, precipErr)
		}
		return nil, fmt.Errorf("%s: %w", region.Name, err)
	}
	s.log.Info().
		Str("region", region.Name).
		Int("rows", len(table.Rows)).
		Strs("columns", table.Columns).
		Msg("climate table assembled")
	return table, nil
}

// FetchAll fetches every catalog region for the period. Regions that fail are
// logged and left out; an error is returned only when none succeeded.
func (s *Service) FetchAll(ctx context.Context, period Period) (map[string]*Table, error) {
	var (
		mu     sync.Mutex
		tables = make(map[string]*Table)
		errs   []error
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, name := range RegionNames() {
		name := name
		g.Go(func() error {
			t, err := s.Fetch(gCtx, name, period)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.Warn().Err(err).Str("region", name).Msg("region fetch failed")
				errs = append(errs, err)
				return nil
			}
			tables[name] = t
			return nil
		})
	}
	_ = g.Wait()

	if len(tables) == 0 {
		if len(errs) == 0 {
			return nil, ErrNoPrecipitation
		}
		return nil, fmt.Errorf("no region could be fetched: %w", errors.Join(errs...))
	}
	return tables, nil
}

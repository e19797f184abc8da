package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Warmer precomputes the analysis for one region so the first user request is served from cache.
type Warmer interface {
	Warm(ctx context.Context, region string) error
}

// Scheduler periodically warms the advisory caches for configured regions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	regions   []string
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

// New creates a new Scheduler. timeout bounds one region's warm-up.
func New(regions []string, interval, timeout time.Duration, warmer Warmer, log zerolog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		regions:   regions,
		interval:  interval,
		timeout:   timeout,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.regions) == 0 || s.interval <= 0 {
		s.log.Info().Msg("no warm-up regions or interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info().Strs("regions", s.regions).Dur("interval", s.interval).Msg("cache warm-up scheduled")
	return nil
}

// RunOnce warms every region concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.log.Debug().Msg("running cache warm-up job")
	start := time.Now()

	var wg sync.WaitGroup
	for _, region := range s.regions {
		region := region
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.warmer.Warm(ctx, region); err != nil {
				s.log.Warn().Err(err).Str("region", region).Msg("cache warm-up failed")
			}
		}()
	}
	wg.Wait()
	s.log.Info().Dur("took", time.Since(start)).Int("regions", len(s.regions)).Msg("completed cache warm-up job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWarmer struct {
	mu      sync.Mutex
	regions []string
	fail    map[string]bool
}

func (w *recordingWarmer) Warm(ctx context.Context, region string) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("warm-up without deadline")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regions = append(w.regions, region)
	if w.fail[region] {
		return errors.New("boom")
	}
	return nil
}

func (w *recordingWarmer) seen() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := append([]string(nil), w.regions...)
	sort.Strings(out)
	return out
}

func TestRunOnceWarmsEveryRegion(t *testing.T) {
	w := &recordingWarmer{fail: map[string]bool{"Chaco": true}}
	s := New([]string{"Salta", "Chaco", "Jujuy"}, time.Hour, time.Second, w, zerolog.Nop())

	s.RunOnce()
	assert.Equal(t, []string{"Chaco", "Jujuy", "Salta"}, w.seen())
}

func TestStartWithoutRegionsIsNoop(t *testing.T) {
	w := &recordingWarmer{}
	s := New(nil, time.Hour, 0, w, zerolog.Nop())
	require.NoError(t, s.Start())
	s.Stop()
	assert.Empty(t, w.seen())
}

func TestStartRunsImmediately(t *testing.T) {
	w := &recordingWarmer{}
	s := New([]string{"Salta"}, time.Hour, time.Second, w, zerolog.Nop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(w.seen()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

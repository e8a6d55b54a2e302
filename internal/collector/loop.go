package collector

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/climacan/climacan/internal/ingest"
	"github.com/climacan/climacan/internal/model"
	"github.com/climacan/climacan/internal/writer"
)

// State names of the polling state machine.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateWriting     State = "writing"
	StateSleeping    State = "sleeping"
	StateBackoff     State = "backoff"
)

// Status is a point-in-time snapshot of a loop's progress, safe to read from
// other goroutines.
type Status struct {
	Source              model.Source `json:"source"`
	State               State        `json:"state"`
	LastPollAt          time.Time    `json:"lastPollAt"`
	LastSuccessAt       time.Time    `json:"lastSuccessAt"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
}

// Writer is what the loop needs from the persistence layer.
type Writer interface {
	Write(ctx context.Context, batch []model.ObservationPoint) (writer.WriteResult, error)
}

// Config holds the per-loop cadence knobs.
type Config struct {
	PollInterval time.Duration
	BackoffBase  time.Duration
	BackoffMax   time.Duration
}

// Loop drives one provider through fetch → normalize → write cycles forever.
// Each loop owns its state exclusively; the only resource shared with the
// sibling loop is the writer's target store.
type Loop[P any] struct {
	provider ingest.Provider[P]
	writer   Writer
	cfg      Config

	mu     sync.Mutex
	status Status
}

func New[P any](provider ingest.Provider[P], w Writer, cfg Config) *Loop[P] {
	return &Loop[P]{
		provider: provider,
		writer:   w,
		cfg:      cfg,
		status: Status{
			Source: provider.Source(),
			State:  StateIdle,
		},
	}
}

func (l *Loop[P]) Name() string {
	return l.provider.Name()
}

func (l *Loop[P]) Source() model.Source {
	return l.provider.Source()
}

// Status returns a snapshot of the loop's collector state.
func (l *Loop[P]) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Run executes the polling state machine until ctx is cancelled. There is no
// terminal state of its own; cancellation comes from the process signal.
func (l *Loop[P]) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		var wait time.Duration
		if l.runCycle(ctx) {
			l.setState(StateSleeping)
			wait = l.cfg.PollInterval
		} else {
			l.setState(StateBackoff)
			failures := l.Status().ConsecutiveFailures
			wait = BackoffDelay(l.cfg.BackoffBase, l.cfg.BackoffMax, failures)
			log.Printf("collector %s: backing off %s after %d consecutive failures",
				l.Name(), wait, failures)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle performs one fetch → normalize → write pass and reports whether it
// succeeded. Failures are contained here; they never cross into the sibling
// loop.
func (l *Loop[P]) runCycle(ctx context.Context) bool {
	l.mu.Lock()
	l.status.State = StateFetching
	l.status.LastPollAt = time.Now().UTC()
	l.mu.Unlock()

	payload, err := l.provider.Fetch(ctx)
	if err != nil {
		l.recordFailure()
		log.Printf("collector %s: fetch failed (%s): %v", l.Name(), ingest.KindOf(err), err)
		return false
	}

	l.setState(StateNormalizing)
	res := l.provider.Normalize(payload)
	if res.Skipped > 0 {
		log.Printf("collector %s: skipped %d malformed entries", l.Name(), res.Skipped)
	}
	if len(res.Points) == 0 {
		log.Printf("collector %s: cycle produced no points", l.Name())
		l.recordSuccess()
		return true
	}

	l.setState(StateWriting)
	wres, err := l.writer.Write(ctx, res.Points)
	if err != nil {
		// Points already accepted before the failure stay written; delivery is
		// at-least-once per cycle, not atomic across the batch.
		l.recordFailure()
		log.Printf("collector %s: write failed after %d accepted points: %v",
			l.Name(), wres.Accepted, err)
		return false
	}
	if len(wres.Rejected) > 0 {
		log.Printf("collector %s: store rejected %d of %d points (first: %s)",
			l.Name(), len(wres.Rejected), len(res.Points), wres.Rejected[0].Reason)
	}

	l.recordSuccess()
	log.Printf("collector %s: wrote %d of %d points", l.Name(), wres.Accepted, len(res.Points))
	return true
}

func (l *Loop[P]) setState(s State) {
	l.mu.Lock()
	l.status.State = s
	l.mu.Unlock()
}

func (l *Loop[P]) recordFailure() {
	l.mu.Lock()
	l.status.ConsecutiveFailures++
	l.mu.Unlock()
}

func (l *Loop[P]) recordSuccess() {
	l.mu.Lock()
	l.status.ConsecutiveFailures = 0
	l.status.LastSuccessAt = time.Now().UTC()
	l.mu.Unlock()
}

// BackoffDelay returns the wait before the next fetch attempt: the base delay
// doubled for every consecutive failure beyond the first, capped at max.
func BackoffDelay(base, max time.Duration, failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	delay := base
	for i := 1; i < failures; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}

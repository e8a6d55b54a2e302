package supervisor

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/climacan/climacan/internal/collector"
	"github.com/climacan/climacan/internal/model"
)

// Collector is one provider's polling loop as the supervisor sees it.
type Collector interface {
	Name() string
	Source() model.Source
	Status() collector.Status
	Run(ctx context.Context)
}

// WorkerHandle tracks one running collector. The supervisor never restarts a
// worker: a handle that stops being alive stays dead until the whole process
// is restarted externally.
type WorkerHandle struct {
	collector Collector
	alive     atomic.Bool
	done      chan struct{}
}

func (h *WorkerHandle) Name() string {
	return h.collector.Name()
}

func (h *WorkerHandle) Source() model.Source {
	return h.collector.Source()
}

// Alive reports whether the worker goroutine is still running.
func (h *WorkerHandle) Alive() bool {
	return h.alive.Load()
}

// Status returns the collector's current state snapshot.
func (h *WorkerHandle) Status() collector.Status {
	return h.collector.Status()
}

// Done is closed when the worker goroutine exits.
func (h *WorkerHandle) Done() <-chan struct{} {
	return h.done
}

// Supervisor owns the worker handles. Workers share nothing with each other
// beyond the writer's target store.
type Supervisor struct {
	handles []*WorkerHandle
}

// StartAll launches one goroutine per collector and returns the supervisor
// holding their liveness handles. A worker that panics is logged and marked
// dead; its sibling keeps running.
func StartAll(ctx context.Context, collectors ...Collector) *Supervisor {
	s := &Supervisor{}

	for _, c := range collectors {
		h := &WorkerHandle{
			collector: c,
			done:      make(chan struct{}),
		}
		h.alive.Store(true)

		go func(c Collector, h *WorkerHandle) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("supervisor: worker %s crashed: %v", c.Name(), r)
				}
				h.alive.Store(false)
				close(h.done)
			}()
			log.Printf("supervisor: worker %s started", c.Name())
			c.Run(ctx)
			log.Printf("supervisor: worker %s stopped", c.Name())
		}(c, h)

		s.handles = append(s.handles, h)
	}

	return s
}

// Handles returns the liveness handles of all started workers.
func (s *Supervisor) Handles() []*WorkerHandle {
	return s.handles
}

// Wait blocks until ctx is cancelled or every worker has stopped on its own.
// This is the keep-alive of the whole process.
func (s *Supervisor) Wait(ctx context.Context) {
	allDone := make(chan struct{})
	go func() {
		for _, h := range s.handles {
			<-h.done
		}
		close(allDone)
	}()

	select {
	case <-ctx.Done():
	case <-allDone:
		log.Printf("supervisor: all workers stopped")
	}
}

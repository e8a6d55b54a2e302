package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/climacan/climacan/internal/collector"
	"github.com/climacan/climacan/internal/model"
)

type fakeCollector struct {
	name   string
	source model.Source
	run    func(ctx context.Context)
}

func (c *fakeCollector) Name() string {
	return c.name
}

func (c *fakeCollector) Source() model.Source {
	return c.source
}

func (c *fakeCollector) Status() collector.Status {
	return collector.Status{Source: c.source, State: collector.StateIdle}
}

func (c *fakeCollector) Run(ctx context.Context) {
	if c.run != nil {
		c.run(ctx)
		return
	}
	<-ctx.Done()
}

func TestStartAllTracksLiveness(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sup := StartAll(ctx,
		&fakeCollector{name: "aemet", source: model.SourceAEMET},
		&fakeCollector{name: "grafcan", source: model.SourceGrafcan},
	)

	handles := sup.Handles()
	if len(handles) != 2 {
		t.Fatalf("expected 2 handles, got %d", len(handles))
	}
	for _, h := range handles {
		if !h.Alive() {
			t.Fatalf("expected worker %s alive after start", h.Name())
		}
	}

	cancel()
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-time.After(time.Second):
			t.Fatalf("worker %s did not stop on cancellation", h.Name())
		}
		if h.Alive() {
			t.Fatalf("expected worker %s dead after stop", h.Name())
		}
	}
}

func TestCrashedWorkerDoesNotTakeDownSibling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crashing := &fakeCollector{
		name:   "aemet",
		source: model.SourceAEMET,
		run:    func(ctx context.Context) { panic("boom") },
	}
	steady := &fakeCollector{name: "grafcan", source: model.SourceGrafcan}

	sup := StartAll(ctx, crashing, steady)
	handles := sup.Handles()

	select {
	case <-handles[0].Done():
	case <-time.After(time.Second):
		t.Fatal("crashed worker was not marked done")
	}

	if handles[0].Alive() {
		t.Error("expected crashed worker to be dead")
	}
	if !handles[1].Alive() {
		t.Error("expected sibling worker to keep running")
	}
}

func TestWaitReturnsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	sup := StartAll(ctx, &fakeCollector{name: "aemet", source: model.SourceAEMET})

	done := make(chan struct{})
	go func() {
		sup.Wait(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
}

func TestWaitReturnsWhenAllWorkersStop(t *testing.T) {
	ctx := context.Background()

	short := &fakeCollector{
		name:   "aemet",
		source: model.SourceAEMET,
		run:    func(ctx context.Context) {},
	}
	sup := StartAll(ctx, short)

	done := make(chan struct{})
	go func() {
		sup.Wait(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after all workers stopped")
	}
}

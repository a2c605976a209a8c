package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

type recordingAuditor struct {
	mu     sync.Mutex
	events []domain.AccessEvent
	block  chan struct{}
}

func (a *recordingAuditor) Process(_ context.Context, e domain.AccessEvent) error {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *recordingAuditor) snapshot() []domain.AccessEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AccessEvent, len(a.events))
	copy(out, a.events)
	return out
}

type countingMetrics struct {
	mu        sync.Mutex
	dropped   int
	processed int
}

func (m *countingMetrics) QueueDepth(string, int) {}

func (m *countingMetrics) Dropped() {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

func (m *countingMetrics) Processed(string, time.Duration) {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func TestDispatcher_PreservesPerSubjectOrder(t *testing.T) {
	auditor := &recordingAuditor{}
	d := NewDispatcher(4, 64, auditor, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 20; i++ {
		subject := fmt.Sprintf("s%d", i%3)
		if !d.TryEnqueue(domain.AccessEvent{ID: fmt.Sprintf("%s-%02d", subject, i), SubjectID: subject}) {
			t.Fatalf("unexpected drop at %d", i)
		}
	}
	cancel()
	d.Wait()

	events := auditor.snapshot()
	if len(events) != 20 {
		t.Fatalf("expected 20 processed events, got %d", len(events))
	}
	last := map[string]string{}
	for _, e := range events {
		if prev, ok := last[e.SubjectID]; ok && prev > e.ID {
			t.Fatalf("events for %s out of order: %s after %s", e.SubjectID, e.ID, prev)
		}
		last[e.SubjectID] = e.ID
	}
}

func TestDispatcher_TryEnqueueDropsWhenFull(t *testing.T) {
	auditor := &recordingAuditor{}
	metrics := &countingMetrics{}
	d := NewDispatcher(1, 2, auditor, metrics, zerolog.Nop())

	// Workers not started: the single shard fills after two events.
	accepted := 0
	for i := 0; i < 5; i++ {
		if d.TryEnqueue(domain.AccessEvent{ID: fmt.Sprint(i), Path: "/admin"}) {
			accepted++
		}
	}
	if accepted != 2 {
		t.Fatalf("expected 2 accepted events, got %d", accepted)
	}
	if metrics.dropped != 3 {
		t.Fatalf("expected 3 drops, got %d", metrics.dropped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	d.Wait()

	if got := len(auditor.snapshot()); got != 2 {
		t.Fatalf("expected queued events drained on shutdown, got %d", got)
	}
	if metrics.processed != 2 {
		t.Fatalf("expected 2 processed observations, got %d", metrics.processed)
	}
}

func TestDispatcher_ShardIndexStable(t *testing.T) {
	d := NewDispatcher(8, 1, &recordingAuditor{}, nil, zerolog.Nop())
	first := d.shardIndex("subject-1")
	for i := 0; i < 10; i++ {
		if d.shardIndex("subject-1") != first {
			t.Fatal("shard index must be deterministic")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Metrics observes the dispatcher. All methods must be cheap.
type Metrics interface {
	QueueDepth(workerID string, depth int)
	Dropped()
	Processed(kind string, elapsed time.Duration)
}

// Dispatcher routes access events to a fixed set of workers using consistent
// hashing on the event's shard key, guaranteeing per-subject ordering.
type Dispatcher struct {
	workers []chan domain.AccessEvent
	auditor ports.AccessAuditor
	metrics Metrics
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. metrics may be nil.
func NewDispatcher(numWorkers, buffer int, auditor ports.AccessAuditor, metrics Metrics, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = channelBuffer
	}
	d := &Dispatcher{
		workers: make([]chan domain.AccessEvent, numWorkers),
		auditor: auditor,
		metrics: metrics,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AccessEvent, buffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their queue and stop
// when ctx is cancelled; Wait blocks until they have.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// TryEnqueue hands event to the worker responsible for its shard key without
// blocking. It returns false, and counts a drop, when that worker is full.
func (d *Dispatcher) TryEnqueue(event domain.AccessEvent) bool {
	idx := d.shardIndex(event.ShardKey())
	select {
	case d.workers[idx] <- event:
		if d.metrics != nil {
			d.metrics.QueueDepth(strconv.Itoa(idx), len(d.workers[idx]))
		}
		return true
	default:
		if d.metrics != nil {
			d.metrics.Dropped()
		}
		return false
	}
}

// shardIndex maps a shard key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AccessEvent) {
	defer d.wg.Done()
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case event := <-ch:
			d.process(ctx, id, workerID, event)
		}
	}
}

// drain persists what is already queued using a short detached context.
func (d *Dispatcher) drain(id int, ch <-chan domain.AccessEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	workerID := strconv.Itoa(id)
	for {
		select {
		case event := <-ch:
			d.process(ctx, id, workerID, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, workerID string, event domain.AccessEvent) {
	start := time.Now()
	err := d.auditor.Process(ctx, event)
	if d.metrics != nil {
		d.metrics.QueueDepth(workerID, len(d.workers[id]))
		d.metrics.Processed(string(event.Kind), time.Since(start))
	}
	if err != nil {
		d.log.Error().Err(err).
			Str("event_id", event.ID).
			Str("kind", string(event.Kind)).
			Int("worker_id", id).
			Msg("access event processing failed")
	}
}

package sink

import (
	"log/slog"
	"sync"
	"time"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// Store is the slice of the persistence layer the writer drives.
type Store interface {
	UpsertServer(*model.ServerRecord) error
	DeleteServersBefore(cutoff time.Time) error
}

// op is one queued store write: either an upsert or the stale purge.
type op struct {
	record      *model.ServerRecord
	purgeBefore time.Time
}

// Writer funnels every store write of a scan cycle through one goroutine,
// so probe fan-out never produces concurrent writes. The channel is sized
// by the caller to the cycle's candidate count, which makes Enqueue
// non-blocking for the cycle's lifetime.
//
// The first store error is latched; the queue keeps draining after that
// (discarding writes) so producers and Drain never wedge, and the
// orchestrator aborts the cycle once it observes Err.
type Writer struct {
	store   Store
	ops     chan op
	pending sync.WaitGroup
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// NewWriter starts the consumer goroutine. capacity should cover every
// write the cycle can enqueue.
func NewWriter(store Store, capacity int) *Writer {
	w := &Writer{
		store: store,
		ops:   make(chan op, capacity),
		done:  make(chan struct{}),
	}
	go w.consume()
	return w
}

// Enqueue queues one tested record for upsert.
func (w *Writer) Enqueue(rec *model.ServerRecord) {
	w.pending.Add(1)
	w.ops <- op{record: rec}
}

// EnqueuePurge queues the stale-record purge so it is ordered after every
// upsert already in the queue.
func (w *Writer) EnqueuePurge(cutoff time.Time) {
	w.pending.Add(1)
	w.ops <- op{purgeBefore: cutoff}
}

// Drain blocks until every op enqueued so far has been applied.
func (w *Writer) Drain() {
	w.pending.Wait()
}

// Err reports the first store error, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close stops the consumer after the queue empties and reports the first
// store error. The writer must not be used after Close.
func (w *Writer) Close() error {
	close(w.ops)
	<-w.done
	return w.Err()
}

func (w *Writer) consume() {
	defer close(w.done)
	for o := range w.ops {
		w.apply(o)
		w.pending.Done()
	}
}

func (w *Writer) apply(o op) {
	if w.Err() != nil {
		return
	}

	var err error
	if !o.purgeBefore.IsZero() {
		err = w.store.DeleteServersBefore(o.purgeBefore)
	} else {
		err = w.store.UpsertServer(o.record)
	}
	if err != nil {
		w.latch(err)
	}
}

func (w *Writer) latch(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
		slog.Error("store_write_failed", "error", err)
	}
}

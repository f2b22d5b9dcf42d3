package persist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/steelfront/server/internal/game"
)

// batchAppender is the journal storage the writer flushes into.
type batchAppender interface {
	AppendBatch(ctx context.Context, cmds []game.Command) error
}

const journalFlushTimeout = 10 * time.Second

// JournalWriter buffers accepted commands in memory and flushes them to the
// journal in batches on its own goroutine. Recording a command never touches
// the database, so a slow or absent backend can't stall the tick loop. The
// journal stays an audit trail: a failed flush is logged and its batch
// dropped, never retried into the hot path.
type JournalWriter struct {
	sink batchAppender
	log  *zap.Logger

	mu  sync.Mutex
	buf []game.Command

	done chan struct{}
	wg   sync.WaitGroup
}

// NewJournalWriter starts the background flusher. interval is how often the
// buffer drains; Close flushes whatever remains.
func NewJournalWriter(sink batchAppender, interval time.Duration, log *zap.Logger) *JournalWriter {
	if interval <= 0 {
		interval = time.Second
	}
	w := &JournalWriter{
		sink: sink,
		log:  log,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run(interval)
	return w
}

// Record buffers one command. Safe to call from the tick goroutine.
func (w *JournalWriter) Record(cmd game.Command) {
	w.mu.Lock()
	w.buf = append(w.buf, cmd)
	w.mu.Unlock()
}

// Flush drains the buffer into the sink in arrival order.
func (w *JournalWriter) Flush() {
	w.mu.Lock()
	batch := w.buf
	w.buf = nil
	w.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalFlushTimeout)
	defer cancel()
	if err := w.sink.AppendBatch(ctx, batch); err != nil {
		w.log.Error("journal flush failed",
			zap.Int("commands", len(batch)),
			zap.Error(err))
	}
}

// Close stops the flusher and drains whatever is still buffered.
func (w *JournalWriter) Close() {
	close(w.done)
	w.wg.Wait()
	w.Flush()
}

func (w *JournalWriter) run(interval time.Duration) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Flush()
		case <-w.done:
			return
		}
	}
}

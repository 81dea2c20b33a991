package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

// maxPendingWrites represents the max number of writes that can be queued
// before callers block waiting for the writer.
const maxPendingWrites = 100

// write is a mutation of the chain waiting for the writer.
type write struct {
	ctx    context.Context
	apply  func(ch *ledger.Chain) (ledger.Block, error)
	result chan writeResult
}

type writeResult struct {
	block ledger.Block
	err   error
}

// =============================================================================

// worker is the single goroutine allowed to mutate and persist the chain.
type worker struct {
	state     *State
	wg        sync.WaitGroup
	mu        sync.RWMutex
	shut      chan struct{}
	shutOnce  sync.Once
	writes    chan write
	evHandler EventHandler
}

// runWorker creates a worker and starts the write goroutine.
func runWorker(state *State, evHandler EventHandler) {
	state.worker = &worker{
		state:     state,
		shut:      make(chan struct{}),
		writes:    make(chan write, maxPendingWrites),
		evHandler: evHandler,
	}

	state.worker.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer state.worker.wg.Done()
		hasStarted <- true
		state.worker.writeOperations()
	}()

	<-hasStarted
}

// shutdown terminates the goroutine performing work. Writes already queued
// are applied before the goroutine returns. Calls after the first only wait.
func (w *worker) shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: terminate goroutines")
		w.mu.Lock()
		close(w.shut)
		w.mu.Unlock()
	})

	w.wg.Wait()
}

// submit queues the mutation and waits for the writer to apply it. Once the
// mutation is queued it runs to completion even if the context is cancelled.
func (w *worker) submit(ctx context.Context, apply func(ch *ledger.Chain) (ledger.Block, error)) (ledger.Block, error) {
	wr := write{
		ctx:    ctx,
		apply:  apply,
		result: make(chan writeResult, 1),
	}

	if err := w.enqueue(ctx, wr); err != nil {
		return ledger.Block{}, err
	}

	res := <-wr.result
	return res.block, res.err
}

// enqueue places the write on the queue. The read lock keeps shutdown from
// closing the writer while a write is being queued.
func (w *worker) enqueue(ctx context.Context, wr write) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	select {
	case <-w.shut:
		return ErrShutdown
	default:
	}

	select {
	case w.writes <- wr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================

// writeOperations handles writes until shutdown.
func (w *worker) writeOperations() {
	w.evHandler("worker: writeOperations: G started")
	defer w.evHandler("worker: writeOperations: G completed")

	for {
		select {
		case wr := <-w.writes:
			wr.result <- w.runWrite(wr)

		case <-w.shut:
			w.drain()
			return
		}
	}
}

// drain applies writes that were queued before shutdown was signaled.
func (w *worker) drain() {
	for {
		select {
		case wr := <-w.writes:
			wr.result <- w.runWrite(wr)
		default:
			return
		}
	}
}

// runWrite applies a mutation and saves the chain. When the save fails the
// block stays in the in-memory chain and the error is returned.
func (w *worker) runWrite(wr write) writeResult {
	block, err := wr.apply(w.state.chain)
	if err != nil {
		return writeResult{err: err}
	}

	if err := w.state.chain.Save(context.WithoutCancel(wr.ctx), w.state.storage); err != nil {
		w.evHandler("worker: runWrite: block[%d]: ERROR: %s", block.Index, err)
		return writeResult{block: block, err: fmt.Errorf("%w: %w", ErrSave, err)}
	}

	return writeResult{block: block}
}

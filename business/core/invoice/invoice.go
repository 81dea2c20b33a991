// Package invoice provides the business rules for registering invoices on
// the ledger and querying them back.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xlerion/ivachain/business/sys/validate"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"go.uber.org/zap"
)

// Set of error variables for the invoice core.
var (
	ErrDuplicate  = errors.New("invoice number already registered")
	ErrNotFound   = errors.New("invoice not found")
	ErrNoCriteria = errors.New("at least one search criterion is required")
)

// Ledger represents the ledger behavior the core depends on.
type Ledger interface {
	Append(ctx context.Context, payload any, trace []ledger.TraceEvent) (ledger.Block, error)
	AddTrace(ctx context.Context, index uint64, status string, details string) (ledger.Block, error)
	Blocks() []ledger.Block
}

// Config sets the pauses between the processing stages.
type Config struct {
	ValidateDelay   time.Duration
	SealDelay       time.Duration
	DistributeDelay time.Duration
}

// Core manages the set of APIs for invoice access.
type Core struct {
	log    *zap.SugaredLogger
	ledger Ledger
	cfg    Config

	mu       sync.Mutex
	reserved map[string]struct{}

	wg       sync.WaitGroup
	shutCtx  context.Context
	shutdown context.CancelFunc
}

// NewCore constructs a core for invoice api access.
func NewCore(log *zap.SugaredLogger, ldg Ledger, cfg Config) *Core {
	ctx, cancel := context.WithCancel(context.Background())

	return &Core{
		log:      log,
		ledger:   ldg,
		cfg:      cfg,
		reserved: make(map[string]struct{}),
		shutCtx:  ctx,
		shutdown: cancel,
	}
}

// Shutdown waits for pending fund distributions to complete. When the
// context expires first the pending distributions are abandoned.
func (c *Core) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.shutdown()
		return nil

	case <-ctx.Done():
		c.shutdown()
		<-done
		return fmt.Errorf("pending distributions abandoned: %w", ctx.Err())
	}
}

// Register runs an invoice through the processing stages and seals it into
// the ledger. The fund distribution stage completes in the background after
// Register returns.
func (c *Core) Register(ctx context.Context, ni NewInvoice) (ledger.Block, error) {
	if err := validate.Check(ni); err != nil {
		return ledger.Block{}, fmt.Errorf("validating data: %w", err)
	}

	inv := Compute(ni)

	if err := c.reserve(inv.Number); err != nil {
		return ledger.Block{}, err
	}
	defer c.release(inv.Number)

	trace := []ledger.TraceEvent{
		ledger.NewTraceEvent(time.Now(), StatusReceived, fmt.Sprintf("Invoice %s received for processing.", inv.Number)),
	}

	if err := sleep(ctx, c.cfg.ValidateDelay); err != nil {
		return ledger.Block{}, err
	}
	trace = append(trace, ledger.NewTraceEvent(time.Now(), StatusValidating, "Invoice structure and data are being validated."))

	if err := sleep(ctx, c.cfg.SealDelay); err != nil {
		return ledger.Block{}, err
	}

	block, err := c.ledger.Append(ctx, inv, trace)
	if err != nil {
		return block, fmt.Errorf("append: %w", err)
	}

	details := fmt.Sprintf("Transaction sealed in block #%d with hash: %s...", block.Index, block.Hash[:20])
	block, err = c.ledger.AddTrace(ctx, block.Index, StatusSealed, details)
	if err != nil {
		return block, fmt.Errorf("trace sealed: %w", err)
	}

	c.log.Infow("invoice", "status", "sealed", "number", inv.Number, "index", block.Index, "hash", block.Hash)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.distribute(block.Index, inv)
	}()

	return block, nil
}

// =============================================================================

// distribute records the fund distribution after the configured pause.
func (c *Core) distribute(index uint64, inv Invoice) {
	if err := sleep(c.shutCtx, c.cfg.DistributeDelay); err != nil {
		c.log.Infow("invoice", "status", "distribution abandoned", "number", inv.Number, "index", index)
		return
	}

	details := "IVA distributed to the sector wallets: " + summarize(Distribute(inv.IVA))
	if _, err := c.ledger.AddTrace(c.shutCtx, index, StatusDistributed, details); err != nil {
		c.log.Errorw("invoice", "status", "distribution trace", "number", inv.Number, "index", index, "ERROR", err)
		return
	}

	c.log.Infow("invoice", "status", "distributed", "number", inv.Number, "index", index)
}

// reserve claims the invoice number until the invoice is sealed so two
// concurrent registrations can't both pass the duplicate check.
func (c *Core) reserve(number string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.reserved[number]; exists {
		return ErrDuplicate
	}

	for _, rec := range records(c.ledger.Blocks()) {
		if rec.Invoice.Number == number {
			return ErrDuplicate
		}
	}

	c.reserved[number] = struct{}{}
	return nil
}

func (c *Core) release(number string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.reserved, number)
}

// sleep pauses for the duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

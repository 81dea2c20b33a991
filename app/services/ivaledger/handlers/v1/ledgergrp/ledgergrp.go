// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xlerion/ivachain/business/web/errs"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/events"
	"github.com/xlerion/ivachain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Query returns every block of the chain in order.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Blocks(), http.StatusOK)
}

// QueryByIndex returns the block at the specified index.
func (h Handlers) QueryByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(r)
	if err != nil {
		return err
	}

	block, err := h.State.Block(index)
	if err != nil {
		if errors.Is(err, ledger.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("query: index[%d]: %w", index, err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Receipt returns a receipt for the block signed by the sealer key.
func (h Handlers) Receipt(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(r)
	if err != nil {
		return err
	}

	rct, err := h.State.Receipt(index)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBlockNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		case errors.Is(err, state.ErrNoSealer):
			return errs.NewTrusted(err, http.StatusNotImplemented)
		}
		return fmt.Errorf("receipt: index[%d]: %w", index, err)
	}

	return web.Respond(ctx, w, rct, http.StatusOK)
}

// Checkpoint returns the merkle root over every block hash.
func (h Handlers) Checkpoint(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cp, err := h.State.Checkpoint()
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	return web.Respond(ctx, w, cp, http.StatusOK)
}

// Proof returns the merkle proof that the block is covered by the
// checkpoint root.
func (h Handlers) Proof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(r)
	if err != nil {
		return err
	}

	p, err := h.State.Proof(index)
	if err != nil {
		if errors.Is(err, ledger.ErrBlockNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("proof: index[%d]: %w", index, err)
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// Validate walks the chain and reports the first block that fails, along
// with the result of the trace commitment check.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.Blocks()

	report := toValidation(len(blocks), ledger.Validate(blocks), ledger.ValidateTraces(blocks))

	return web.Respond(ctx, w, report, http.StatusOK)
}

// Events handles a web socket to provide ledger events to a client. Repeated
// kind query parameters restrict the stream to those event kinds.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, r.URL.Query()["kind"]...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

func parseIndex(r *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid index %q", web.Param(r, "index")), http.StatusBadRequest)
	}

	return index, nil
}

// Package invoicegrp maintains the group of handlers for invoice access.
package invoicegrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/xlerion/ivachain/business/core/invoice"
	"github.com/xlerion/ivachain/business/sys/metrics"
	"github.com/xlerion/ivachain/business/web/errs"
	"github.com/xlerion/ivachain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of invoice endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Invoice *invoice.Core
}

// Create runs a new invoice through the processing stages and returns the
// sealed block.
func (h Handlers) Create(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ni invoice.NewInvoice
	if err := web.Decode(r, &ni); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("register invoice", "traceid", v.TraceID, "number", ni.Number, "company_nit", ni.CompanyNIT)

	block, err := h.Invoice.Register(ctx, ni)
	if err != nil {
		if errors.Is(err, invoice.ErrDuplicate) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return fmt.Errorf("register: number[%s]: %w", ni.Number, err)
	}

	metrics.AddBlocks()

	return web.Respond(ctx, w, block, http.StatusCreated)
}

// Query returns every invoice on the ledger.
func (h Handlers) Query(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Invoice.Query(), http.StatusOK)
}

// QueryByNumber returns the invoice with the specified number.
func (h Handlers) QueryByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	number := web.Param(r, "number")

	rec, err := h.Invoice.QueryByNumber(number)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return fmt.Errorf("query: number[%s]: %w", number, err)
	}

	return web.Respond(ctx, w, rec, http.StatusOK)
}

// Search returns a page of the invoices matching the query string criteria.
func (h Handlers) Search(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	filter, err := parseFilter(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	pg, err := parsePage(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	recs, err := h.Invoice.Search(filter)
	if err != nil {
		if errors.Is(err, invoice.ErrNoCriteria) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return fmt.Errorf("search: %w", err)
	}

	return web.Respond(ctx, w, invoice.Paginate(recs, pg), http.StatusOK)
}

// Stats returns the totals over every invoice on the ledger.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Invoice.Stats(), http.StatusOK)
}

// Distribution returns how the collected IVA is split across sectors.
func (h Handlers) Distribution(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, invoice.DistributionConfig(), http.StatusOK)
}

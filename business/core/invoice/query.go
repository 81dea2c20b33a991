package invoice

import (
	"strings"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

// recentLimit is the number of invoices reported as recent in the stats.
const recentLimit = 5

// Paging limits for search results.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// QueryFilter holds the available fields a search can be filtered on. Empty
// fields are ignored. To is a date and includes the whole day. The amount
// bounds apply to the invoice total and are inclusive.
type QueryFilter struct {
	Number      string
	CompanyNIT  string
	CompanyName string
	From        time.Time
	To          time.Time
	MinTotal    *float64
	MaxTotal    *float64
}

func (qf QueryFilter) empty() bool {
	return qf.Number == "" && qf.CompanyNIT == "" && qf.CompanyName == "" &&
		qf.From.IsZero() && qf.To.IsZero() &&
		qf.MinTotal == nil && qf.MaxTotal == nil
}

func (qf QueryFilter) match(rec Record) bool {
	if !contains(rec.Invoice.Number, qf.Number) || !contains(rec.Invoice.CompanyNIT, qf.CompanyNIT) || !contains(rec.Invoice.CompanyName, qf.CompanyName) {
		return false
	}

	if qf.MinTotal != nil && rec.Invoice.Total < *qf.MinTotal {
		return false
	}
	if qf.MaxTotal != nil && rec.Invoice.Total > *qf.MaxTotal {
		return false
	}

	if qf.From.IsZero() && qf.To.IsZero() {
		return true
	}

	ts, err := time.Parse(ledger.TimeFormat, rec.Timestamp)
	if err != nil {
		return false
	}

	if !qf.From.IsZero() && ts.Before(qf.From) {
		return false
	}

	if !qf.To.IsZero() {
		y, m, d := qf.To.Date()
		end := time.Date(y, m, d+1, 0, 0, 0, 0, qf.To.Location())
		if !ts.Before(end) {
			return false
		}
	}

	return true
}

// =============================================================================

// Query returns every invoice on the ledger in chain order.
func (c *Core) Query() []Record {
	return records(c.ledger.Blocks())
}

// QueryByNumber returns the invoice with the specified number.
func (c *Core) QueryByNumber(number string) (Record, error) {
	for _, rec := range records(c.ledger.Blocks()) {
		if rec.Invoice.Number == number {
			return rec, nil
		}
	}

	return Record{}, ErrNotFound
}

// Search returns the invoices matching every criterion of the filter. At
// least one criterion must be set.
func (c *Core) Search(filter QueryFilter) ([]Record, error) {
	if filter.empty() {
		return nil, ErrNoCriteria
	}

	found := []Record{}
	for _, rec := range records(c.ledger.Blocks()) {
		if filter.match(rec) {
			found = append(found, rec)
		}
	}

	return found, nil
}

// Paginate returns the requested page of the records. A page number below 1
// is treated as the first page and PerPage is clamped to 1..MaxPerPage, with
// DefaultPerPage when unset. A page past the end is empty.
func Paginate(recs []Record, pg Page) Results {
	if pg.Number < 1 {
		pg.Number = 1
	}
	switch {
	case pg.PerPage <= 0:
		pg.PerPage = DefaultPerPage
	case pg.PerPage > MaxPerPage:
		pg.PerPage = MaxPerPage
	}

	total := len(recs)
	pages := (total + pg.PerPage - 1) / pg.PerPage

	items := []Record{}
	if start := (pg.Number - 1) * pg.PerPage; start < total {
		items = recs[start:min(start+pg.PerPage, total)]
	}

	return Results{
		Invoices: items,
		Pagination: Pagination{
			Page:    pg.Number,
			PerPage: pg.PerPage,
			Total:   total,
			Pages:   pages,
			HasNext: pg.Number < pages,
			HasPrev: pg.Number > 1,
		},
	}
}

// Stats computes the totals over every invoice on the ledger.
func (c *Core) Stats() Stats {
	recs := records(c.ledger.Blocks())

	var st Stats
	for _, rec := range recs {
		st.TotalIVA += rec.Invoice.IVA
		st.TotalAmount += rec.Invoice.Subtotal + rec.Invoice.IVA
	}

	st.Invoices = len(recs)
	st.TotalIVA = round(st.TotalIVA)
	st.TotalAmount = round(st.TotalAmount)
	if st.Invoices > 0 {
		st.AverageInvoice = round(st.TotalAmount / float64(st.Invoices))
	}
	st.Sectors = Distribute(st.TotalIVA)

	st.Recent = []Record{}
	for i := len(recs) - 1; i >= 0 && len(st.Recent) < recentLimit; i-- {
		st.Recent = append(st.Recent, recs[i])
	}

	return st
}

// =============================================================================

// records decodes the invoices held in the blocks, skipping genesis and any
// block whose payload isn't an invoice.
func records(blocks []ledger.Block) []Record {
	recs := make([]Record, 0, len(blocks))
	for _, b := range blocks {
		if b.IsGenesis() {
			continue
		}

		var inv Invoice
		if err := b.Decode(&inv); err != nil || inv.Number == "" {
			continue
		}

		recs = append(recs, Record{
			Index:     b.Index,
			Hash:      b.Hash,
			Timestamp: b.Timestamp,
			Invoice:   inv,
			Trace:     b.Trace,
		})
	}

	return recs
}

func contains(s string, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

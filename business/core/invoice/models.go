package invoice

import (
	"math"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

// IVARate is the value added tax rate applied to every subtotal.
const IVARate = 0.19

// Set of trace statuses an invoice moves through.
const (
	StatusReceived    = "Received by System"
	StatusValidating  = "Validating Data (DIAN)"
	StatusSealed      = "Sealed in Blockchain"
	StatusDistributed = "Funds Distributed (Treasury)"
)

// NewInvoice contains the information needed to register an invoice.
type NewInvoice struct {
	Number      string  `json:"number" validate:"required,max=100"`
	CompanyNIT  string  `json:"company_nit" validate:"required,min=5,max=50"`
	CompanyName string  `json:"company_name" validate:"required,min=2,max=200"`
	Subtotal    float64 `json:"subtotal" validate:"gt=0"`
	CreatedBy   string  `json:"created_by"`
}

// Invoice is the payload sealed into a block.
type Invoice struct {
	Number      string  `json:"number"`
	CompanyNIT  string  `json:"company_nit"`
	CompanyName string  `json:"company_name"`
	Subtotal    float64 `json:"subtotal"`
	IVA         float64 `json:"iva"`
	Total       float64 `json:"total"`
	CreatedBy   string  `json:"created_by"`
}

// Compute applies the IVA rate to the new invoice. Amounts are rounded to
// two decimals.
func Compute(ni NewInvoice) Invoice {
	iva := round(ni.Subtotal * IVARate)

	return Invoice{
		Number:      ni.Number,
		CompanyNIT:  ni.CompanyNIT,
		CompanyName: ni.CompanyName,
		Subtotal:    ni.Subtotal,
		IVA:         iva,
		Total:       round(ni.Subtotal + iva),
		CreatedBy:   ni.CreatedBy,
	}
}

// Record is an invoice together with the block that holds it.
type Record struct {
	Index     uint64              `json:"index"`
	Hash      string              `json:"hash"`
	Timestamp string              `json:"timestamp"`
	Invoice   Invoice             `json:"invoice"`
	Trace     []ledger.TraceEvent `json:"trace"`
}

// Page selects a page of search results. Number starts at 1.
type Page struct {
	Number  int
	PerPage int
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Results is one page of search results.
type Results struct {
	Invoices   []Record   `json:"invoices"`
	Pagination Pagination `json:"pagination"`
}

// Stats summarizes the invoices on the ledger.
type Stats struct {
	Invoices       int          `json:"invoices"`
	TotalIVA       float64      `json:"total_iva"`
	TotalAmount    float64      `json:"total_amount"`
	AverageInvoice float64      `json:"average_invoice"`
	Sectors        []Allocation `json:"sectors"`
	Recent         []Record     `json:"recent"`
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

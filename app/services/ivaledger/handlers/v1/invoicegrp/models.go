package invoicegrp

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/xlerion/ivachain/business/core/invoice"
)

// dateLayout is the layout of the from and to search parameters.
const dateLayout = "2006-01-02"

// parseFilter builds the search filter from the query string.
func parseFilter(r *http.Request) (invoice.QueryFilter, error) {
	values := r.URL.Query()

	filter := invoice.QueryFilter{
		Number:      values.Get("number"),
		CompanyNIT:  values.Get("company_nit"),
		CompanyName: values.Get("company_name"),
	}

	if from := values.Get("from"); from != "" {
		t, err := time.Parse(dateLayout, from)
		if err != nil {
			return invoice.QueryFilter{}, fmt.Errorf("invalid from date %q", from)
		}
		filter.From = t
	}

	if to := values.Get("to"); to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return invoice.QueryFilter{}, fmt.Errorf("invalid to date %q", to)
		}
		filter.To = t
	}

	for _, bound := range []struct {
		name string
		dst  **float64
	}{
		{"min_amount", &filter.MinTotal},
		{"max_amount", &filter.MaxTotal},
	} {
		raw := values.Get(bound.name)
		if raw == "" {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return invoice.QueryFilter{}, fmt.Errorf("invalid %s %q", bound.name, raw)
		}
		*bound.dst = &v
	}

	return filter, nil
}

// parsePage reads the page and per_page parameters. A per_page above the
// maximum is lowered to it.
func parsePage(r *http.Request) (invoice.Page, error) {
	values := r.URL.Query()

	pg := invoice.Page{
		Number:  1,
		PerPage: invoice.DefaultPerPage,
	}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return invoice.Page{}, fmt.Errorf("invalid page %q", raw)
		}
		pg.Number = n
	}

	if raw := values.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return invoice.Page{}, fmt.Errorf("invalid per_page %q", raw)
		}
		pg.PerPage = min(n, invoice.MaxPerPage)
	}

	return pg, nil
}

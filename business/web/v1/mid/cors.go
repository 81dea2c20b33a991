package mid

import (
	"context"
	"net/http"
	"strings"

	"github.com/xlerion/ivachain/foundation/web"
)

// Cors sets the Cross-Origin Resource Sharing headers. The origin is either
// "*" or a comma separated list of allowed origins, in which case the request
// origin is echoed back only when it's on the list.
func Cors(origin string) web.Middleware {
	allowed := make(map[string]bool)
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	wildcard := len(allowed) == 0 || allowed["*"]

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			hdr := w.Header()

			switch reqOrigin := r.Header.Get("Origin"); {
			case wildcard:
				hdr.Set("Access-Control-Allow-Origin", "*")
			case allowed[reqOrigin]:
				hdr.Set("Access-Control-Allow-Origin", reqOrigin)
				hdr.Add("Vary", "Origin")
			}

			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding")
			hdr.Set("Access-Control-Max-Age", "86400")

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

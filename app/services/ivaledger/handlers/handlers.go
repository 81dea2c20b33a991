// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/xlerion/ivachain/app/services/ivaledger/handlers/debug/checkgrp"
	v1 "github.com/xlerion/ivachain/app/services/ivaledger/handlers/v1"
	"github.com/xlerion/ivachain/business/core/invoice"
	"github.com/xlerion/ivachain/business/core/user"
	"github.com/xlerion/ivachain/business/web/v1/mid"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/events"
	"github.com/xlerion/ivachain/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown    chan os.Signal
	Log         *zap.SugaredLogger
	State       *state.State
	Invoice     *invoice.Core
	User        *user.Core
	Evts        *events.Events
	CorsOrigin  string
	LegacyRoute bool
}

// APIMux constructs a http.Handler with all application routes defined.
func APIMux(cfg MuxConfig) http.Handler {
	origin := cfg.CorsOrigin
	if origin == "" {
		origin = "*"
	}

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(origin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors(origin))

	v1cfg := v1.Config{
		Log:     cfg.Log,
		State:   cfg.State,
		Invoice: cfg.Invoice,
		User:    cfg.User,
		Evts:    cfg.Evts,
	}

	// Load the v1 routes.
	v1.Routes(app, v1cfg)

	if cfg.LegacyRoute {
		v1.LegacyRoutes(app, v1cfg)
	}

	return app
}

// DebugStandardLibraryMux returns a private mux serving pprof and expvar.
// Nothing is registered on http.DefaultServeMux.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux adds the readiness and liveness checks to the profiling routes.
// Readiness fails while the ledger doesn't validate.
func DebugMux(build string, log *zap.SugaredLogger, ldg checkgrp.Validator) http.Handler {
	mux := DebugStandardLibraryMux()

	cgh := checkgrp.Handlers{
		Build:  build,
		Log:    log,
		Ledger: ldg,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}

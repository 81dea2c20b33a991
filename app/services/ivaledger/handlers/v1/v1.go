// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/xlerion/ivachain/app/services/ivaledger/handlers/v1/invoicegrp"
	"github.com/xlerion/ivachain/app/services/ivaledger/handlers/v1/ledgergrp"
	"github.com/xlerion/ivachain/app/services/ivaledger/handlers/v1/usergrp"
	"github.com/xlerion/ivachain/business/core/invoice"
	"github.com/xlerion/ivachain/business/core/user"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/events"
	"github.com/xlerion/ivachain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Invoice *invoice.Core
	User    *user.Core
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	usr := usergrp.Handlers{
		User: cfg.User,
	}

	app.Handle(http.MethodPost, version, "/users/register", usr.Register)
	app.Handle(http.MethodPost, version, "/users/login", usr.Login)

	inv := invoicegrp.Handlers{
		Log:     cfg.Log,
		Invoice: cfg.Invoice,
	}

	app.Handle(http.MethodPost, version, "/invoices", inv.Create)
	app.Handle(http.MethodGet, version, "/invoices", inv.Query)
	app.Handle(http.MethodGet, version, "/invoices/search", inv.Search)
	app.Handle(http.MethodGet, version, "/invoices/:number", inv.QueryByNumber)
	app.Handle(http.MethodGet, version, "/ledger/stats", inv.Stats)
	app.Handle(http.MethodGet, version, "/config/iva-distribution", inv.Distribution)

	ldg := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Evts: cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/ledger", ldg.Query)
	app.Handle(http.MethodGet, version, "/ledger/blocks/:index", ldg.QueryByIndex)
	app.Handle(http.MethodGet, version, "/ledger/blocks/:index/receipt", ldg.Receipt)
	app.Handle(http.MethodGet, version, "/ledger/blocks/:index/proof", ldg.Proof)
	app.Handle(http.MethodGet, version, "/ledger/checkpoint", ldg.Checkpoint)
	app.Handle(http.MethodPost, version, "/ledger/validate", ldg.Validate)
	app.Handle(http.MethodGet, version, "/events", ldg.Events)
}

// LegacyRoutes binds the unversioned routes used by the existing front end.
func LegacyRoutes(app *web.App, cfg Config) {
	usr := usergrp.Handlers{
		User: cfg.User,
	}
	inv := invoicegrp.Handlers{
		Log:     cfg.Log,
		Invoice: cfg.Invoice,
	}
	ldg := ledgergrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodPost, "", "/register", usr.Register)
	app.Handle(http.MethodPost, "", "/register-invoice", inv.Create)
	app.Handle(http.MethodGet, "", "/get-ledger", ldg.Query)
}

// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/triadchain/triadchain/app/services/node/handlers/v1/private"
	"github.com/triadchain/triadchain/app/services/node/handlers/v1/public"
	"github.com/triadchain/triadchain/foundation/events"
	"github.com/triadchain/triadchain/foundation/fractal/state"
	"github.com/triadchain/triadchain/foundation/nameservice"
	"github.com/triadchain/triadchain/foundation/web"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/fractal/stats", pbl.FractalStats)
	app.Handle(http.MethodGet, version, "/triangle/view/:address", pbl.Triangle)
	app.Handle(http.MethodGet, version, "/triangle/children/:address", pbl.TriangleChildren)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.BlocksByAddress)
	app.Handle(http.MethodGet, version, "/blocks/list/:address", pbl.BlocksByAddress)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitWalletTransaction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/tx/list", prv.Mempool)
	app.Handle(http.MethodGet, version, "/node/block/list/:from/:to", prv.BlocksByNumber)
	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/tx/submit", prv.SubmitNodeTransaction)
	app.Handle(http.MethodPost, version, "/node/peers", prv.AddPeer)
}

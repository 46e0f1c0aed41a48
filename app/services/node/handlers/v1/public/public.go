// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/triadchain/triadchain/business/web/errs"
	"github.com/triadchain/triadchain/foundation/events"
	"github.com/triadchain/triadchain/foundation/fractal/database"
	"github.com/triadchain/triadchain/foundation/fractal/geometry"
	"github.com/triadchain/triadchain/foundation/fractal/state"
	"github.com/triadchain/triadchain/foundation/nameservice"
	"github.com/triadchain/triadchain/foundation/web"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new wallet transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add wallet tran", "traceid", v.TraceID, "tx", signedTx, "address", signedTx.Address, "op", signedTx.Op)
	if err := h.State.SubmitWalletTransaction(signedTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, 0, len(mempool))
	for _, tran := range mempool {
		account, _ := tran.FromAccount()

		trans = append(trans, tx{
			Account: account,
			Name:    h.NS.Lookup(account),
			Address: tran.Address.String(),
			Op:      tran.Op,
			Sig:     tran.SignatureString(),
		})
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Triangle returns the record and derived geometry for one triangle.
func (h Handlers) Triangle(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	rec, err := h.State.QueryTriangle(addr)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	vs, err := h.State.QueryVertices(addr)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, h.toTriangle(rec, vs), http.StatusOK)
}

// TriangleChildren returns the records for the three children of a
// subdivided triangle.
func (h Handlers) TriangleChildren(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr, err := database.ToAddress(web.Param(r, "address"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	var out []triangle
	for _, child := range addr.Children() {
		rec, err := h.State.QueryTriangle(child)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return err
		}

		vs, err := h.State.QueryVertices(child)
		if err != nil {
			return err
		}

		out = append(out, h.toTriangle(rec, vs))
	}

	if len(out) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// FractalStats returns accounting over the whole fractal state.
func (h Handlers) FractalStats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats, err := h.State.QueryFractalStats()
	if err != nil {
		return err
	}

	info := fractalInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: len(h.State.RetrieveMempool()),
		Stats:       stats,
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// BlocksByAddress returns the blocks that touch the specified triangle
// address or its descendants. An empty address returns all blocks.
func (h Handlers) BlocksByAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var addr database.Address
	if addrStr := web.Param(r, "address"); addrStr != "" {
		var err error
		addr, err = database.ToAddress(addrStr)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
	}

	blocks, err := h.State.QueryBlocksByAddress(addr, true)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// =============================================================================

// toTriangle builds the API view of a triangle record.
func (h Handlers) toTriangle(rec database.Triangle, vs geometry.Vertices) triangle {
	var pts [3]point
	for i, p := range vs {
		pts[i] = point{X: p.X.String(), Y: p.Y.String()}
	}

	c := geometry.Centroid(vs)

	t := triangle{
		Address:        rec.Address.String(),
		State:          rec.State,
		Depth:          rec.Depth(),
		Owner:          rec.Owner,
		CreatedInBlock: rec.CreatedInBlock,
		Vertices:       pts,
		Centroid:       point{X: c.X.String(), Y: c.Y.String()},
		Area:           geometry.Area(vs),
	}

	if rec.Owner != "" {
		t.OwnerName = h.NS.Lookup(rec.Owner)
	}

	return t
}

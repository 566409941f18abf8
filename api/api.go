// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stakevault/stakevault/api/events"
	"github.com/stakevault/stakevault/api/staking"
	"github.com/stakevault/stakevault/api/subscriptions"
	"github.com/stakevault/stakevault/eventdb"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/metrics"
)

// Options tunes the assembled http handler.
type Options struct {
	AllowedOrigins string
	EventsLimit    uint64
	PprofOn        bool
	EnableMetrics  bool
}

// New assembles the full rest handler. The returned closer terminates
// hijacked websocket connections, which outlive the http server shutdown.
func New(svc *ledger.Service, eventDB *eventdb.EventDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	staking.New(svc).
		Mount(router, "/staking")
	events.New(eventDB, opts.EventsLimit).
		Mount(router, "/events")
	subs := subscriptions.New(svc.Ledger())
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
		router.Path("/metrics").Handler(metrics.HTTPHandler())
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	return handler.ServeHTTP, subs.Close
}

// Package server assembles the HTTP surface: the BillService Connect
// handler plus health and metrics endpoints.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/moneyshare/internal/config"
	"github.com/mmynk/moneyshare/internal/metrics"
	"github.com/mmynk/moneyshare/internal/middleware"
	"github.com/mmynk/moneyshare/pkg/api/apiconnect"
)

// NewRouter mounts svc and the operational endpoints on a chi router.
func NewRouter(cfg config.Config, svc apiconnect.BillServiceHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	if cfg.MetricsEnabled {
		r.Use(metrics.InstrumentHandler)
		r.Handle("/metrics", metrics.Handler())
	}

	r.Get("/healthz", health)

	path, handler := apiconnect.NewBillServiceHandler(svc,
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)
	r.Handle(path+"*", handler)

	return r
}

// New wraps handler in an HTTP server that also speaks HTTP/2 without TLS,
// which Connect and gRPC clients need.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

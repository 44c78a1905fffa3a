package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ekisa-team/stronghold/internal/model"
)

// NewServer creates the HTTP server exposing the registry API and metrics.
func NewServer(port int, version string, registry *model.Registry, gatherer prometheus.Gatherer) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewHandler(version, registry, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the HTTP handler for the registry API and metrics.
func NewHandler(version string, registry *model.Registry, gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()

	api := humago.New(mux, huma.DefaultConfig("Stronghold Models API", version))
	NewModelsHandler(api, registry)

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abczzz13/ipfilter"
)

// newRouter serves /healthz and /metrics directly and sends every other
// request through the active filter to upstream.
func newRouter(filters *ipfilter.Switch, metrics, upstream http.Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	router.Handle("/metrics", metrics)

	router.Group(func(r chi.Router) {
		r.Use(filters.Middleware)
		r.Handle("/*", upstream)
	})

	return router
}

func metricsHandler(registry *prom.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// upstreamHandler returns a reverse proxy to rawURL, or a handler answering
// "ok" when rawURL is empty.
func upstreamHandler(rawURL string) (http.Handler, error) {
	if rawURL == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, "ok")
		}), nil
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", rawURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", rawURL)
	}

	return httputil.NewSingleHostReverseProxy(target), nil
}

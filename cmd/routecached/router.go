package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/health"
	"github.com/jonwraymond/routecache/observe"
)

func defaultRoutes() []cache.Route {
	return []cache.Route{
		{Method: http.MethodGet, Path: "/products", Spec: cache.Always{ExpireSeconds: 300}},
		{Method: http.MethodGet, Path: "/me", Spec: cache.PerAuthToken{}},
		{Method: http.MethodGet, Path: "/search", Spec: cache.PerRequestURL{ExpireSeconds: 30}},
		{Method: http.MethodGet, Path: "/cart", Spec: cache.PerCustomCookie{CustomCookie: "cartId", ExpireSeconds: 120}},
		{Method: http.MethodGet, Path: "/time"},
	}
}

// newRouter mounts health endpoints and every route. Each route runs the
// request middleware outside the cache middleware, so hits are timed and
// logged like any other response.
func newRouter(zl zerolog.Logger, engine *cache.Engine, mw *observe.Middleware, routes []cache.Route, agg *health.Aggregator) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(zl))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(chimw.Recoverer)

	health.Mount(r, agg)

	for _, route := range routes {
		r.With(mw.Handler(route.Meta()), engine.Middleware(route)).
			Method(route.Method, route.Path, render(route))
	}
	return r
}

type document struct {
	Route      string    `json:"route"`
	Variant    string    `json:"variant,omitempty"`
	URL        string    `json:"url"`
	RequestID  string    `json:"request_id"`
	RenderedAt time.Time `json:"rendered_at"`
}

// render answers with a description of the request that produced the body.
// Repeating a request shows whether the body was replayed from the cache.
// ?format=text selects a raw text body instead of JSON.
func render(route cache.Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := hlog.IDFromRequest(r)
		doc := document{
			Route:      route.Method + " " + route.Path,
			Variant:    route.Meta().Variant,
			URL:        r.URL.RequestURI(),
			RequestID:  id.String(),
			RenderedAt: time.Now().UTC(),
		}
		hlog.FromRequest(r).Debug().Str("route", doc.Route).Msg("rendering response")

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = fmt.Fprintf(w, "%s rendered at %s for request %s\n", doc.Route, doc.RenderedAt.Format(time.RFC3339Nano), doc.RequestID)
			return
		}
		if err := cache.WriteJSON(w, doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

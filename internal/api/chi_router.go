// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sdss/valis/internal/auth"
	"github.com/sdss/valis/internal/middleware"
)

// Router assembles the chi route tree from the handler and middleware
// stacks.
type Router struct {
	handler *Handler
	auth    *auth.Middleware
	chimw   *ChiMiddleware
}

// NewRouter creates a router. authMW may be nil when auth_mode is "none".
func NewRouter(handler *Handler, authMW *auth.Middleware, chimw *ChiMiddleware) *Router {
	return &Router{
		handler: handler,
		auth:    authMW,
		chimw:   chimw,
	}
}

// SetupChi builds the full route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chimw.CORS())

	r.Get("/healthz", router.handler.HealthLive)
	r.Get("/healthz/ready", router.handler.HealthReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/valis", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/info", router.handler.Info)

		r.Route("/auth", func(r chi.Router) {
			r.Use(router.chimw.RateLimitAuth())
			r.With(router.chimw.RateLimitLogin()).Post("/login", router.handler.Login)
			r.Post("/verify", router.handler.Verify)
			r.Post("/refresh", router.handler.Refresh)
		})

		// Data endpoints share the default rate limit and, when configured,
		// bearer-token authentication.
		r.Group(func(r chi.Router) {
			r.Use(router.chimw.RateLimit())
			if router.auth != nil {
				r.Use(chiMiddleware(router.auth.Authenticate))
			}

			r.Route("/query", func(r chi.Router) {
				r.Get("/cone", router.handler.ConeSearch)
			})

			r.Route("/target", func(r chi.Router) {
				r.Get("/sdssid/{id}", router.handler.TargetBySdssID)
				r.Get("/catalogid/{id}", router.handler.TargetsByCatalogID)
				r.Get("/cartons", router.handler.CartonsList)
				r.Get("/cartons/{sdss_id}", router.handler.TargetCartons)
				r.Get("/pipes/{sdss_id}", router.handler.TargetPipes)
				r.Get("/spectra/{sdss_id}", router.handler.TargetSpectra)
			})

			r.Route("/files", func(r chi.Router) {
				r.Get("/products", router.handler.FilesProducts)
				r.Get("/spectrum", router.handler.FilesSpectrum)
				r.Get("/header", router.handler.FilesHeader)
				r.Get("/download", router.handler.FilesDownload)
			})

			r.Route("/maskbits", func(r chi.Router) {
				r.Get("/flags", router.handler.MaskbitsFlags)
				r.Get("/bits/{flag}", router.handler.MaskbitsBits)
				r.Get("/decode", router.handler.MaskbitsDecode)
				r.Get("/encode", router.handler.MaskbitsEncode)
			})
		})
	})

	return r
}

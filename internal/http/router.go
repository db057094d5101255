package httpapi

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/vending-machine-simulator/internal/idempotency"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID, WithTracing, WithLogging)
	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	r.Get("/products", app.listProductsHandler)
	r.Get("/products/{id}", app.getProductHandler)
	r.Get("/balance", app.balanceHandler)

	r.Group(func(r chi.Router) {
		if app.Idempotency != nil {
			r.Use(idempotency.Middleware(app.Idempotency, http.HandlerFunc(duplicateRequestHandler)))
		}
		r.Post("/money", app.insertMoneyHandler)
		r.Post("/purchases", app.purchaseHandler)
		r.Post("/change", app.changeHandler)
	})

	r.Get("/healthz", app.healthHandler)
	r.Get("/debug/metrics", app.metricsHandler)
	r.Handle("/debug/vars", expvar.Handler())
	r.Get("/openapi.yaml", app.openapiHandler)
	r.Get("/docs", app.docsHandler)
	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/bizledger/internal/handlers"
	"github.com/GregMSThompson/bizledger/internal/middleware"
)

func NewRouter(deps *handlers.Deps, demoToken string) chi.Router {
	r := chi.NewRouter()

	lmw := middleware.NewLoggerMiddleware(deps.Log)
	bmw := middleware.NewBusinessMiddleware(demoToken, deps.ResponseHandler)

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(lmw.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		deps.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	anh := handlers.NewAnalyticsHandlers(deps)
	txh := handlers.NewTransactionHandlers(deps)
	invh := handlers.NewInvoiceHandlers(deps)

	r.Route("/api", func(api chi.Router) {
		api.Use(bmw.BusinessScope)
		api.Mount("/analytics", anh.AnalyticsRoutes())
		api.Mount("/transactions", txh.TransactionRoutes())
		api.Mount("/invoices", invh.InvoiceRoutes())
		if deps.AISvc != nil {
			aih := handlers.NewAIHandlers(deps)
			api.Mount("/assistant", aih.AIRoutes())
		}
	})

	return r
}

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/middleware"
	"github.com/GregMSThompson/bizledger/internal/response"
)

type analyticsService interface {
	GetBusinessAnalytics(ctx context.Context, businessToken string) (dto.AnalyticsResponse, error)
}

type analyticsHandlers struct {
	ResponseHandler response.ResponseHandler
	AnalyticsSvc    analyticsService
}

func NewAnalyticsHandlers(deps *Deps) *analyticsHandlers {
	return &analyticsHandlers{
		ResponseHandler: deps.ResponseHandler,
		AnalyticsSvc:    deps.AnalyticsSvc,
	}
}

func (h *analyticsHandlers) AnalyticsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetAnalytics)
	return r
}

func (h *analyticsHandlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	token := middleware.BusinessToken(r.Context())
	resp, err := h.AnalyticsSvc.GetBusinessAnalytics(r.Context(), token)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

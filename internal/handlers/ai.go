package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/middleware"
	"github.com/GregMSThompson/bizledger/internal/response"
)

type aiService interface {
	Query(ctx context.Context, businessToken, sessionID, message string) (dto.AIQueryResponse, error)
}

type aiHandlers struct {
	ResponseHandler response.ResponseHandler
	AISvc           aiService
}

func NewAIHandlers(deps *Deps) *aiHandlers {
	return &aiHandlers{
		ResponseHandler: deps.ResponseHandler,
		AISvc:           deps.AISvc,
	}
}

func (h *aiHandlers) AIRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/query", h.Query)
	return r
}

// Query answers a natural-language question about the business. sessionId is
// optional; omitted sessions share the business's default conversation.
func (h *aiHandlers) Query(w http.ResponseWriter, r *http.Request) {
	var body dto.AIQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	body.Message = strings.TrimSpace(body.Message)
	if body.Message == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("message is required"))
		return
	}

	token := middleware.BusinessToken(r.Context())
	resp, err := h.AISvc.Query(r.Context(), token, body.SessionID, body.Message)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/middleware"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/internal/response"
)

type transactionService interface {
	ListTransactions(ctx context.Context, businessToken string, q dto.TransactionQuery) ([]models.Transaction, error)
	RecordPayment(ctx context.Context, businessToken string, req dto.RecordPaymentRequest) (*models.Transaction, error)
}

type transactionHandlers struct {
	ResponseHandler response.ResponseHandler
	TransactionSvc  transactionService
}

func NewTransactionHandlers(deps *Deps) *transactionHandlers {
	return &transactionHandlers{
		ResponseHandler: deps.ResponseHandler,
		TransactionSvc:  deps.TransactionSvc,
	}
}

func (h *transactionHandlers) TransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTransactions)
	r.Post("/", h.RecordPayment)
	return r
}

func (h *transactionHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := dto.TransactionQuery{
		Status:        q.Get("status"),
		Type:          q.Get("type"),
		PaymentMethod: q.Get("paymentMethod"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("limit must be a non-negative integer"))
			return
		}
		query.Limit = limit
	}

	token := middleware.BusinessToken(r.Context())
	txs, err := h.TransactionSvc.ListTransactions(r.Context(), token, query)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, txs)
}

func (h *transactionHandlers) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	token := middleware.BusinessToken(r.Context())
	tx, err := h.TransactionSvc.RecordPayment(r.Context(), token, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tx)
}

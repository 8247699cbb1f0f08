package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/middleware"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/internal/response"
)

type invoiceService interface {
	ListInvoices(ctx context.Context, businessToken, status string) ([]models.Invoice, error)
	CreateInvoice(ctx context.Context, businessToken string, req dto.CreateInvoiceRequest) (*models.Invoice, error)
	PayInvoice(ctx context.Context, businessToken, invoiceNumber string, req dto.PayInvoiceRequest) (dto.PayInvoiceResult, error)
}

type invoiceHandlers struct {
	ResponseHandler response.ResponseHandler
	InvoiceSvc      invoiceService
}

func NewInvoiceHandlers(deps *Deps) *invoiceHandlers {
	return &invoiceHandlers{
		ResponseHandler: deps.ResponseHandler,
		InvoiceSvc:      deps.InvoiceSvc,
	}
}

func (h *invoiceHandlers) InvoiceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListInvoices)
	r.Post("/", h.CreateInvoice)
	r.Post("/{invoiceNumber}/pay", h.PayInvoice)
	return r
}

func (h *invoiceHandlers) ListInvoices(w http.ResponseWriter, r *http.Request) {
	token := middleware.BusinessToken(r.Context())
	invoices, err := h.InvoiceSvc.ListInvoices(r.Context(), token, r.URL.Query().Get("status"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, invoices)
}

func (h *invoiceHandlers) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
		return
	}
	token := middleware.BusinessToken(r.Context())
	inv, err := h.InvoiceSvc.CreateInvoice(r.Context(), token, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, inv)
}

// PayInvoice accepts an empty body; the payment method then defaults in the
// service.
func (h *invoiceHandlers) PayInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	var req dto.PayInvoiceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("invalid request body"))
			return
		}
	}
	token := middleware.BusinessToken(r.Context())
	result, err := h.InvoiceSvc.PayInvoice(r.Context(), token, invoiceNumber, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, result)
}

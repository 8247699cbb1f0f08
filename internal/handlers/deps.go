package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/bizledger/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	AnalyticsSvc    analyticsService
	TransactionSvc  transactionService
	InvoiceSvc      invoiceService
	AISvc           aiService
}

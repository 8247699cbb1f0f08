package dto

import "github.com/GregMSThompson/bizledger/internal/models"

type CreateInvoiceRequest struct {
	CustomerName string        `json:"customer_name"`
	Amount       models.Amount `json:"amount"`
	DueDate      string        `json:"due_date"` // YYYY-MM-DD
}

type PayInvoiceRequest struct {
	PaymentMethod      string `json:"payment_method"`
	PayerIdentityToken string `json:"payer_identity_token,omitempty"`
}

type PayInvoiceResult struct {
	InvoiceNumber string `json:"invoice_number"`
	Status        string `json:"status"`
	PaidAt        string `json:"paid_at"`
	TransactionID string `json:"transaction_id"`
}

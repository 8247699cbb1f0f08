package dto

import "github.com/GregMSThompson/bizledger/internal/models"

type TransactionQuery struct {
	Status        string
	Type          string
	PaymentMethod string
	Limit         int
}

type RecordPaymentRequest struct {
	Amount                models.Amount `json:"amount"`
	PaymentMethod         string        `json:"payment_method"`
	TransactionType       string        `json:"transaction_type,omitempty"`
	TransactionStatus     string        `json:"transaction_status,omitempty"`
	PayerIdentityToken    string        `json:"payer_identity_token,omitempty"`
	ReceiverIdentityToken string        `json:"receiver_identity_token,omitempty"`
	Description           string        `json:"description,omitempty"`
}

package models

import (
	"time"
)

const (
	TransactionTypePayment = "payment"
	TransactionTypeRefund  = "refund"
	TransactionTypeFee     = "fee"
)

const (
	TransactionStatusCompleted = "completed"
	TransactionStatusPending   = "pending"
	TransactionStatusFailed    = "failed"
)

// Transaction is a money movement recorded against a business. Identity tokens
// are opaque and only ever compared for equality.
type Transaction struct {
	TransactionID         string    `firestore:"transaction_id" json:"transaction_id"`
	BusinessIdentityToken string    `firestore:"business_identity_token" json:"business_identity_token"`
	ReceiverIdentityToken string    `firestore:"receiver_identity_token" json:"receiver_identity_token,omitempty"`
	PayerIdentityToken    string    `firestore:"payer_identity_token" json:"payer_identity_token,omitempty"`
	TransactionType       string    `firestore:"transaction_type" json:"transaction_type"`
	Amount                Amount    `firestore:"amount" json:"amount"`
	TransactionDate       string    `firestore:"transaction_date" json:"transaction_date"` // ISO-8601
	TransactionStatus     string    `firestore:"transaction_status" json:"transaction_status"`
	PaymentMethod         string    `firestore:"payment_method" json:"payment_method"`
	Description           string    `firestore:"description,omitempty" json:"description,omitempty"`
	CreatedAt             time.Time `firestore:"created_at" json:"created_at"`
}

// BelongsTo reports whether the transaction is attributed to the business,
// either as its canonical owner or as the receiver of the funds.
func (t *Transaction) BelongsTo(businessToken string) bool {
	if businessToken == "" {
		return false
	}
	return t.BusinessIdentityToken == businessToken || t.ReceiverIdentityToken == businessToken
}

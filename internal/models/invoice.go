package models

import "strings"

const (
	InvoiceStatusPaid    = "paid"
	InvoiceStatusPending = "pending"
)

type Invoice struct {
	InvoiceNumber         string `firestore:"invoice_number" json:"invoice_number"`
	BusinessIdentityToken string `firestore:"business_identity_token" json:"business_identity_token"`
	CustomerName          string `firestore:"customer_name,omitempty" json:"customer_name,omitempty"`
	Amount                Amount `firestore:"amount" json:"amount"`
	DueDate               string `firestore:"due_date" json:"due_date"`
	Status                string `firestore:"status" json:"status"`
	CreatedAt             string `firestore:"created_at" json:"created_at"`
	PaidAt                string `firestore:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// IsPaid compares the status case-insensitively, matching how stored records
// are read elsewhere.
func (inv *Invoice) IsPaid() bool {
	return strings.EqualFold(strings.TrimSpace(inv.Status), InvoiceStatusPaid)
}

package store

import (
	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/bizledger/internal/models"
)

// Firestore decodes by reflection, so amount is read into an untyped field
// and coerced the same way the JSON and SQLite backends coerce it.
type transactionDoc struct {
	models.Transaction
	Amount any `firestore:"amount"`
}

type invoiceDoc struct {
	models.Invoice
	Amount any `firestore:"amount"`
}

func decodeTransaction(doc *firestore.DocumentSnapshot) (models.Transaction, error) {
	var d transactionDoc
	if err := doc.DataTo(&d); err != nil {
		return models.Transaction{}, err
	}
	tx := d.Transaction
	tx.Amount = coerceAmount(d.Amount)
	if tx.TransactionID == "" {
		tx.TransactionID = doc.Ref.ID
	}
	return tx, nil
}

func decodeInvoice(doc *firestore.DocumentSnapshot) (models.Invoice, error) {
	var d invoiceDoc
	if err := doc.DataTo(&d); err != nil {
		return models.Invoice{}, err
	}
	inv := d.Invoice
	inv.Amount = coerceAmount(d.Amount)
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = doc.Ref.ID
	}
	return inv, nil
}

func coerceAmount(v any) models.Amount {
	switch n := v.(type) {
	case int64:
		return models.Amount(n)
	case float64:
		return models.Amount(n)
	case string:
		return models.ParseAmount(n)
	default:
		return 0
	}
}

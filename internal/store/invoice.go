package store

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

type invoiceStore struct {
	client *firestore.Client
}

func NewInvoiceStore(client *firestore.Client) *invoiceStore {
	return &invoiceStore{client: client}
}

func (s *invoiceStore) collection() *firestore.CollectionRef {
	return s.client.Collection("invoices")
}

func (s *invoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	docs, err := s.collection().Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list invoices", err)
	}
	out := make([]models.Invoice, 0, len(docs))
	for _, d := range docs {
		inv, err := decodeInvoice(d)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse invoice data", err)
		}
		out = append(out, inv)
	}
	return out, nil
}

func (s *invoiceStore) Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	doc, err := s.collection().Doc(invoiceNumber).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NewNotFoundError("invoice not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get invoice", err)
	}
	inv, err := decodeInvoice(doc)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse invoice data", err)
	}
	return &inv, nil
}

func (s *invoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	_, err := s.collection().Doc(invoice.InvoiceNumber).Create(ctx, invoice)
	if err != nil {
		return wrapWriteError("create", "invoice "+invoice.InvoiceNumber, err)
	}
	return nil
}

// MarkPaid moves a pending invoice to paid inside a transaction, so a
// concurrent payment that committed first makes this one fail.
func (s *invoiceStore) MarkPaid(ctx context.Context, invoiceNumber, paidAt string) error {
	ref := s.collection().Doc(invoiceNumber)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errs.NewNotFoundError("invoice not found")
			}
			return errs.NewDatabaseError("read", "failed to get invoice", err)
		}
		inv, err := decodeInvoice(doc)
		if err != nil {
			return errs.NewDatabaseError("read", "failed to parse invoice data", err)
		}
		if inv.IsPaid() {
			return errs.NewAlreadyExistsError("invoice already paid")
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: models.InvoiceStatusPaid},
			{Path: "paid_at", Value: paidAt},
		})
	})
	if err != nil {
		var notFound *errs.NotFoundError
		var exists *errs.AlreadyExistsError
		var dbErr *errs.DatabaseError
		if errors.As(err, &notFound) || errors.As(err, &exists) || errors.As(err, &dbErr) {
			return err
		}
		return wrapWriteError("update", "invoice "+invoiceNumber, err)
	}
	return nil
}

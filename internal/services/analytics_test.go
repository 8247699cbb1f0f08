package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/helpers"
)

type fakeTransactionStore struct {
	txs       []models.Transaction
	listErr   error
	appendErr error
	appended  []*models.Transaction
}

func (f *fakeTransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	return f.txs, f.listErr
}

func (f *fakeTransactionStore) Append(ctx context.Context, tx *models.Transaction) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, tx)
	f.txs = append(f.txs, *tx)
	return nil
}

type fakeInvoiceLister struct {
	invoices []models.Invoice
	err      error
}

func (f *fakeInvoiceLister) List(ctx context.Context) ([]models.Invoice, error) {
	return f.invoices, f.err
}

func TestGetBusinessAnalytics(t *testing.T) {
	txs := &fakeTransactionStore{txs: []models.Transaction{
		tx("B1", "completed", "payment", 120, "2026-10-15T09:00:00+08:00", "DUITNOW"),
		tx("B2", "completed", "payment", 999, "2026-10-15T09:00:00+08:00", "DUITNOW"),
	}}
	invoices := &fakeInvoiceLister{invoices: []models.Invoice{
		{InvoiceNumber: "INV-1", BusinessIdentityToken: "B1", Status: "pending"},
	}}
	svc := NewAnalyticsService(txs, invoices, "DEMO", myt)
	svc.clockNow = func() time.Time { return aggNow.UTC() }

	got, err := svc.GetBusinessAnalytics(helpers.TestCtx(), "B1")
	if err != nil {
		t.Fatalf("GetBusinessAnalytics error: %v", err)
	}
	if got.BusinessToken != "B1" {
		t.Fatalf("business token = %q", got.BusinessToken)
	}
	if got.Analytics.Revenue.Total != 120 {
		t.Fatalf("revenue = %v, want 120", got.Analytics.Revenue.Total)
	}
	if got.Analytics.PendingInvoices != 1 {
		t.Fatalf("pending invoices = %d, want 1", got.Analytics.PendingInvoices)
	}
	if got.GeneratedAt.Location() != myt {
		t.Fatalf("generatedAt should be in the configured zone, got %v", got.GeneratedAt.Location())
	}
	if got.Analytics.DailyRevenue[6].Date != "2026-10-15" {
		t.Fatalf("today bucket = %s", got.Analytics.DailyRevenue[6].Date)
	}
}

func TestGetBusinessAnalyticsDefaultsToDemoToken(t *testing.T) {
	txs := &fakeTransactionStore{txs: []models.Transaction{
		tx("DEMO", "completed", "payment", 10, "2026-10-15", "FPX"),
	}}
	svc := NewAnalyticsService(txs, &fakeInvoiceLister{}, "DEMO", myt)
	svc.clockNow = func() time.Time { return aggNow }

	got, err := svc.GetBusinessAnalytics(helpers.TestCtx(), "")
	if err != nil {
		t.Fatalf("GetBusinessAnalytics error: %v", err)
	}
	if got.BusinessToken != "DEMO" || got.Analytics.Revenue.Total != 10 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestGetBusinessAnalyticsStoreError(t *testing.T) {
	storeErr := errors.New("boom")
	svc := NewAnalyticsService(&fakeTransactionStore{}, &fakeInvoiceLister{err: storeErr}, "DEMO", myt)

	_, err := svc.GetBusinessAnalytics(helpers.TestCtx(), "B1")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/internal/store/jsonstore"
	"github.com/GregMSThompson/bizledger/pkg/helpers"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type fakeInvoiceStore struct {
	invoices map[string]*models.Invoice
	paid     []string
}

func newFakeInvoiceStore(invoices ...models.Invoice) *fakeInvoiceStore {
	f := &fakeInvoiceStore{invoices: map[string]*models.Invoice{}}
	for i := range invoices {
		inv := invoices[i]
		f.invoices[inv.InvoiceNumber] = &inv
	}
	return f
}

func (f *fakeInvoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	out := make([]models.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (f *fakeInvoiceStore) Get(ctx context.Context, number string) (*models.Invoice, error) {
	inv, ok := f.invoices[number]
	if !ok {
		return nil, errs.NewNotFoundError("invoice not found")
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	if _, ok := f.invoices[inv.InvoiceNumber]; ok {
		return errs.NewAlreadyExistsError("invoice already exists")
	}
	cp := *inv
	f.invoices[inv.InvoiceNumber] = &cp
	return nil
}

func (f *fakeInvoiceStore) MarkPaid(ctx context.Context, number, paidAt string) error {
	inv, ok := f.invoices[number]
	if !ok {
		return errs.NewNotFoundError("invoice not found")
	}
	if inv.IsPaid() {
		return errs.NewAlreadyExistsError("invoice already paid")
	}
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = paidAt
	f.paid = append(f.paid, number)
	return nil
}

var invoiceNumberPattern = regexp.MustCompile(`^INV-20261015-[0-9A-F]{6}$`)

func TestCreateInvoice(t *testing.T) {
	store := newFakeInvoiceStore()
	svc := NewInvoiceService(store, &fakeTransactionStore{}, NoopPublisher{}, "DEMO", myt)
	svc.clockNow = func() time.Time { return aggNow }

	got, err := svc.CreateInvoice(helpers.TestCtx(), "B1", dto.CreateInvoiceRequest{
		CustomerName: " Kedai Runcit ",
		Amount:       250,
		DueDate:      "2026-11-01",
	})
	if err != nil {
		t.Fatalf("CreateInvoice error: %v", err)
	}
	if !invoiceNumberPattern.MatchString(got.InvoiceNumber) {
		t.Fatalf("invoice number = %q", got.InvoiceNumber)
	}
	if got.Status != models.InvoiceStatusPending || got.CustomerName != "Kedai Runcit" {
		t.Fatalf("unexpected invoice: %+v", got)
	}
	if _, ok := store.invoices[got.InvoiceNumber]; !ok {
		t.Fatalf("invoice not stored")
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc := NewInvoiceService(newFakeInvoiceStore(), &fakeTransactionStore{}, NoopPublisher{}, "DEMO", myt)

	for _, req := range []dto.CreateInvoiceRequest{
		{Amount: 0, DueDate: "2026-11-01"},
		{Amount: 10, DueDate: "next week"},
		{Amount: 10},
	} {
		_, err := svc.CreateInvoice(helpers.TestCtx(), "B1", req)
		var vErr *errs.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestListInvoices(t *testing.T) {
	store := newFakeInvoiceStore(
		models.Invoice{InvoiceNumber: "A", BusinessIdentityToken: "B1", Status: "paid", CreatedAt: "2026-10-01T10:00:00+08:00"},
		models.Invoice{InvoiceNumber: "B", BusinessIdentityToken: "B1", Status: "pending", CreatedAt: "2026-10-03T10:00:00+08:00"},
		models.Invoice{InvoiceNumber: "C", BusinessIdentityToken: "B2", Status: "pending", CreatedAt: "2026-10-05T10:00:00+08:00"},
	)
	svc := NewInvoiceService(store, &fakeTransactionStore{}, NoopPublisher{}, "DEMO", myt)

	got, err := svc.ListInvoices(helpers.TestCtx(), "B1", "")
	if err != nil {
		t.Fatalf("ListInvoices error: %v", err)
	}
	if len(got) != 2 || got[0].InvoiceNumber != "B" || got[1].InvoiceNumber != "A" {
		t.Fatalf("unexpected invoices: %+v", got)
	}

	got, err = svc.ListInvoices(helpers.TestCtx(), "B1", "PAID")
	if err != nil {
		t.Fatalf("ListInvoices error: %v", err)
	}
	if len(got) != 1 || got[0].InvoiceNumber != "A" {
		t.Fatalf("status filter mismatch: %+v", got)
	}
}

func TestPayInvoice(t *testing.T) {
	store := newFakeInvoiceStore(models.Invoice{
		InvoiceNumber:         "INV-1",
		BusinessIdentityToken: "B1",
		Amount:                300,
		DueDate:               "2026-10-20",
		Status:                "pending",
	})
	txs := &fakeTransactionStore{}
	pub := &fakePublisher{}
	svc := NewInvoiceService(store, txs, pub, "DEMO", myt)
	svc.clockNow = func() time.Time { return aggNow }

	got, err := svc.PayInvoice(helpers.TestCtx(), "B1", "INV-1", dto.PayInvoiceRequest{PaymentMethod: "fpx"})
	if err != nil {
		t.Fatalf("PayInvoice error: %v", err)
	}
	if got.Status != models.InvoiceStatusPaid || got.PaidAt == "" || got.TransactionID == "" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if store.invoices["INV-1"].Status != models.InvoiceStatusPaid {
		t.Fatalf("invoice not marked paid")
	}
	if len(txs.appended) != 1 {
		t.Fatalf("expected one payment transaction, got %d", len(txs.appended))
	}
	paid := txs.appended[0]
	if paid.Amount != 300 || paid.PaymentMethod != "FPX" || paid.TransactionStatus != models.TransactionStatusCompleted {
		t.Fatalf("payment transaction mismatch: %+v", paid)
	}
	if len(pub.events) != 1 || pub.events[0].Type != dto.EventInvoicePaid {
		t.Fatalf("event mismatch: %+v", pub.events)
	}

	summary := ComputeAnalytics(txs.txs, []models.Invoice{*store.invoices["INV-1"]}, "B1", aggNow)
	if summary.Revenue.Total != 300 || summary.PaidInvoices != 1 {
		t.Fatalf("analytics after payment: revenue=%v paid=%d", summary.Revenue.Total, summary.PaidInvoices)
	}
}

func TestPayInvoiceErrors(t *testing.T) {
	store := newFakeInvoiceStore(
		models.Invoice{InvoiceNumber: "PAID", BusinessIdentityToken: "B1", Amount: 1, Status: "paid"},
		models.Invoice{InvoiceNumber: "OTHER", BusinessIdentityToken: "B2", Amount: 1, Status: "pending"},
	)
	txs := &fakeTransactionStore{}
	svc := NewInvoiceService(store, txs, NoopPublisher{}, "DEMO", myt)

	var exists *errs.AlreadyExistsError
	if _, err := svc.PayInvoice(helpers.TestCtx(), "B1", "PAID", dto.PayInvoiceRequest{}); !errors.As(err, &exists) {
		t.Fatalf("expected already-exists error, got %v", err)
	}

	var notFound *errs.NotFoundError
	if _, err := svc.PayInvoice(helpers.TestCtx(), "B1", "OTHER", dto.PayInvoiceRequest{}); !errors.As(err, &notFound) {
		t.Fatalf("expected not-found for another business's invoice, got %v", err)
	}
	if _, err := svc.PayInvoice(helpers.TestCtx(), "B1", "MISSING", dto.PayInvoiceRequest{}); !errors.As(err, &notFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if len(txs.appended) != 0 || len(store.paid) != 0 {
		t.Fatalf("failed payments must not write anything")
	}
}

// gatedInvoiceStore holds every Get until all callers have read the invoice,
// so concurrent payments all observe it as pending.
type gatedInvoiceStore struct {
	*jsonstore.InvoiceStore
	readers sync.WaitGroup
}

func (g *gatedInvoiceStore) Get(ctx context.Context, number string) (*models.Invoice, error) {
	inv, err := g.InvoiceStore.Get(ctx, number)
	g.readers.Done()
	g.readers.Wait()
	return inv, err
}

func TestPayInvoiceConcurrentPaymentsRecordOnce(t *testing.T) {
	dir := t.TempDir()
	ctx := helpers.TestCtx()
	invoices := jsonstore.NewInvoiceStore(dir, logger.NewTest())
	txs := jsonstore.NewTransactionStore(dir, logger.NewTest())
	if err := invoices.Create(ctx, &models.Invoice{
		InvoiceNumber:         "INV-RACE",
		BusinessIdentityToken: "B1",
		Amount:                100,
		DueDate:               "2026-10-20",
		Status:                models.InvoiceStatusPending,
	}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	const payers = 2
	gated := &gatedInvoiceStore{InvoiceStore: invoices}
	gated.readers.Add(payers)
	svc := NewInvoiceService(gated, txs, NoopPublisher{}, "DEMO", myt)
	svc.clockNow = func() time.Time { return aggNow }

	errCh := make(chan error, payers)
	for i := 0; i < payers; i++ {
		go func() {
			_, err := svc.PayInvoice(ctx, "B1", "INV-RACE", dto.PayInvoiceRequest{PaymentMethod: "FPX"})
			errCh <- err
		}()
	}

	var succeeded, rejected int
	for i := 0; i < payers; i++ {
		err := <-errCh
		var exists *errs.AlreadyExistsError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &exists):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Fatalf("succeeded=%d rejected=%d, want 1 and 1", succeeded, rejected)
	}

	recorded, err := txs.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	stored, err := invoices.List(ctx)
	if err != nil {
		t.Fatalf("List invoices error: %v", err)
	}
	summary := ComputeAnalytics(recorded, stored, "B1", aggNow)
	if len(recorded) != 1 || summary.Revenue.Total != 100 {
		t.Fatalf("payment txs=%d revenue=%v, want 1 and 100", len(recorded), summary.Revenue.Total)
	}
}

package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

func TestWrapWriteError(t *testing.T) {
	var exists *errs.AlreadyExistsError
	if err := wrapWriteError("create", "invoice X", status.Error(codes.AlreadyExists, "dup")); !errors.As(err, &exists) {
		t.Fatalf("expected already-exists, got %v", err)
	}

	var notFound *errs.NotFoundError
	if err := wrapWriteError("update", "invoice X", status.Error(codes.NotFound, "gone")); !errors.As(err, &notFound) {
		t.Fatalf("expected not-found, got %v", err)
	}

	cause := status.Error(codes.Unavailable, "down")
	var dbErr *errs.DatabaseError
	err := wrapWriteError("update", "invoice X", cause)
	if !errors.As(err, &dbErr) || dbErr.Operation != "update" || !errors.Is(err, cause) {
		t.Fatalf("expected wrapped database error, got %v", err)
	}
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		in   any
		want models.Amount
	}{
		{int64(12), 12},
		{12.5, 12.5},
		{"12.50", 12.5},
		{" 7 ", 7},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 0},
		{map[string]any{"v": 1}, 0},
	}
	for _, tt := range tests {
		if got := coerceAmount(tt.in); got != tt.want {
			t.Errorf("coerceAmount(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFirestoreMalformedAmountsWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	business := "biz-" + uuid.NewString()
	amounts := map[string]any{
		"TXN-STR-" + uuid.NewString():  "12.50",
		"TXN-NULL-" + uuid.NewString(): nil,
		"TXN-BAD-" + uuid.NewString():  "abc",
	}
	for id, amount := range amounts {
		_, err := client.Collection("transactions").Doc(id).Set(ctx, map[string]any{
			"transaction_id":          id,
			"business_identity_token": business,
			"transaction_type":        models.TransactionTypePayment,
			"transaction_status":      models.TransactionStatusCompleted,
			"transaction_date":        "2026-10-15T14:30:00+08:00",
			"amount":                  amount,
		})
		if err != nil {
			t.Fatalf("seed transaction error: %v", err)
		}
	}

	listed, err := NewTransactionStore(client).List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	var total models.Amount
	var seen int
	for _, tx := range listed {
		if tx.BusinessIdentityToken != business {
			continue
		}
		seen++
		total += tx.Amount
	}
	if seen != len(amounts) || total != 12.5 {
		t.Fatalf("seen=%d total=%v, want %d and 12.5", seen, total, len(amounts))
	}

	number := "INV-" + uuid.NewString()
	_, err = client.Collection("invoices").Doc(number).Set(ctx, map[string]any{
		"invoice_number":          number,
		"business_identity_token": business,
		"amount":                  "250",
		"status":                  models.InvoiceStatusPending,
	})
	if err != nil {
		t.Fatalf("seed invoice error: %v", err)
	}
	inv, err := NewInvoiceStore(client).Get(ctx, number)
	if err != nil {
		t.Fatalf("get invoice error: %v", err)
	}
	if inv.Amount != 250 {
		t.Fatalf("invoice amount = %v, want 250", inv.Amount)
	}
}

func TestFirestoreStoresWithEmulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "test-project")
	if err != nil {
		t.Fatalf("firestore client error: %v", err)
	}
	defer client.Close()

	business := "biz-" + uuid.NewString()
	now := time.Date(2026, time.October, 15, 6, 30, 0, 0, time.UTC)

	txs := NewTransactionStore(client)
	tx := &models.Transaction{
		TransactionID:         "TXN-" + uuid.NewString(),
		BusinessIdentityToken: business,
		TransactionType:       models.TransactionTypePayment,
		TransactionStatus:     models.TransactionStatusCompleted,
		Amount:                42.5,
		TransactionDate:       "2026-10-15T14:30:00+08:00",
		PaymentMethod:         "DUITNOW",
		CreatedAt:             now,
	}
	if err := txs.Append(ctx, tx); err != nil {
		t.Fatalf("append error: %v", err)
	}
	var exists *errs.AlreadyExistsError
	if err := txs.Append(ctx, tx); !errors.As(err, &exists) {
		t.Fatalf("expected duplicate append to fail, got %v", err)
	}

	listed, err := txs.List(ctx)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	var found bool
	for _, got := range listed {
		if got.TransactionID == tx.TransactionID {
			found = true
			if got.Amount != 42.5 || got.BusinessIdentityToken != business {
				t.Fatalf("round trip mismatch: %+v", got)
			}
		}
	}
	if !found {
		t.Fatalf("appended transaction not listed")
	}

	invoices := NewInvoiceStore(client)
	inv := &models.Invoice{
		InvoiceNumber:         "INV-" + uuid.NewString(),
		BusinessIdentityToken: business,
		Amount:                100,
		DueDate:               "2026-10-30",
		Status:                models.InvoiceStatusPending,
		CreatedAt:             "2026-10-15T14:30:00+08:00",
	}
	if err := invoices.Create(ctx, inv); err != nil {
		t.Fatalf("create invoice error: %v", err)
	}
	if err := invoices.MarkPaid(ctx, inv.InvoiceNumber, "2026-10-15T15:00:00+08:00"); err != nil {
		t.Fatalf("mark paid error: %v", err)
	}
	if err := invoices.MarkPaid(ctx, inv.InvoiceNumber, "2026-10-15T16:00:00+08:00"); !errors.As(err, &exists) {
		t.Fatalf("expected second payment to fail, got %v", err)
	}
	got, err := invoices.Get(ctx, inv.InvoiceNumber)
	if err != nil {
		t.Fatalf("get invoice error: %v", err)
	}
	if got.Status != models.InvoiceStatusPaid || got.PaidAt == "" {
		t.Fatalf("invoice not updated: %+v", got)
	}

	var notFound *errs.NotFoundError
	if _, err := invoices.Get(ctx, "missing-"+uuid.NewString()); !errors.As(err, &notFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	ai := NewAIStore(client)
	for i, content := range []string{"first", "second", "third"} {
		err := ai.SaveMessage(ctx, business, "s1", models.AIMessage{
			Role:      "user",
			Content:   content,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("save message error: %v", err)
		}
	}
	msgs, err := ai.ListMessages(ctx, business, "s1", 2)
	if err != nil {
		t.Fatalf("list messages error: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "second" || msgs[1].Content != "third" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

package jsonstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

func TestTransactionStoreMissingFileIsEmpty(t *testing.T) {
	s := NewTransactionStore(t.TempDir(), logger.NewTest())

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d", len(got))
	}
}

func TestTransactionStoreLenientDecoding(t *testing.T) {
	dir := t.TempDir()
	raw := `[
  {"transaction_id": "t1", "business_identity_token": "B1", "amount": "12.50", "transaction_status": "completed"},
  {"transaction_id": "t2", "business_identity_token": "B1", "amount": null},
  {"transaction_id": "t3", "business_identity_token": "B1", "amount": "abc"},
  {"transaction_id": 7},
  "not an object"
]`
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := NewTransactionStore(dir, logger.NewTest())

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 decodable records, got %d", len(got))
	}
	if got[0].Amount != 12.5 || got[1].Amount != 0 || got[2].Amount != 0 {
		t.Fatalf("amount coercion mismatch: %v %v %v", got[0].Amount, got[1].Amount, got[2].Amount)
	}
}

func TestTransactionStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	s := NewTransactionStore(dir, logger.NewTest())

	_, err := s.List(context.Background())
	var dbErr *errs.DatabaseError
	if !errors.As(err, &dbErr) {
		t.Fatalf("expected database error, got %v", err)
	}
}

func TestTransactionStoreConcurrentAppends(t *testing.T) {
	s := NewTransactionStore(t.TempDir(), logger.NewTest())
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errCh <- s.Append(ctx, &models.Transaction{
				TransactionID:         fmt.Sprintf("t%d", i),
				BusinessIdentityToken: "B1",
				Amount:                1,
			})
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != n {
		t.Fatalf("expected %d records, got %d", n, len(got))
	}
}

func TestTransactionStoreDuplicateID(t *testing.T) {
	s := NewTransactionStore(t.TempDir(), logger.NewTest())
	ctx := context.Background()

	if err := s.Append(ctx, &models.Transaction{TransactionID: "t1"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	var exists *errs.AlreadyExistsError
	if err := s.Append(ctx, &models.Transaction{TransactionID: "t1"}); !errors.As(err, &exists) {
		t.Fatalf("expected already-exists, got %v", err)
	}
}

func TestInvoiceStoreLifecycle(t *testing.T) {
	s := NewInvoiceStore(t.TempDir(), logger.NewTest())
	ctx := context.Background()

	inv := &models.Invoice{InvoiceNumber: "INV-1", BusinessIdentityToken: "B1", Amount: 50, Status: "pending"}
	if err := s.Create(ctx, inv); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	var exists *errs.AlreadyExistsError
	if err := s.Create(ctx, inv); !errors.As(err, &exists) {
		t.Fatalf("expected already-exists, got %v", err)
	}

	if err := s.MarkPaid(ctx, "INV-1", "2026-10-16T09:00:00+08:00"); err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	got, err := s.Get(ctx, "INV-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != "paid" || got.PaidAt != "2026-10-16T09:00:00+08:00" {
		t.Fatalf("invoice not marked paid: %+v", got)
	}
	if err := s.MarkPaid(ctx, "INV-1", "2026-10-17T09:00:00+08:00"); !errors.As(err, &exists) {
		t.Fatalf("expected already-exists on second payment, got %v", err)
	}

	var notFound *errs.NotFoundError
	if _, err := s.Get(ctx, "INV-2"); !errors.As(err, &notFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := s.MarkPaid(ctx, "INV-2", "2026-10-16T09:00:00+08:00"); !errors.As(err, &notFound) {
		t.Fatalf("expected not-found on payment, got %v", err)
	}
}

func TestAIStoreHistory(t *testing.T) {
	s := NewAIStore(t.TempDir(), logger.NewTest())
	ctx := context.Background()
	base := time.Now()

	for i, content := range []string{"one", "two", "three"} {
		if err := s.SaveMessage(ctx, "B1", "s1", models.AIMessage{Role: "user", Content: content, CreatedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("SaveMessage error: %v", err)
		}
	}
	if err := s.SaveMessage(ctx, "B1", "s2", models.AIMessage{Role: "user", Content: "other session"}); err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}
	if err := s.SaveMessage(ctx, "B2", "s1", models.AIMessage{Role: "user", Content: "other business"}); err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}

	got, err := s.ListMessages(ctx, "B1", "s1", 2)
	if err != nil {
		t.Fatalf("ListMessages error: %v", err)
	}
	if len(got) != 2 || got[0].Content != "two" || got[1].Content != "three" {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestAIStorePrunesExpired(t *testing.T) {
	s := NewAIStore(t.TempDir(), logger.NewTest())
	ctx := context.Background()

	if err := s.SaveMessage(ctx, "B1", "s1", models.AIMessage{Role: "user", Content: "stale", ExpiresAt: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}
	if err := s.SaveMessage(ctx, "B1", "s1", models.AIMessage{Role: "user", Content: "fresh"}); err != nil {
		t.Fatalf("SaveMessage error: %v", err)
	}

	got, err := s.ListMessages(ctx, "B1", "s1", 0)
	if err != nil {
		t.Fatalf("ListMessages error: %v", err)
	}
	if len(got) != 1 || got[0].Content != "fresh" {
		t.Fatalf("expected stale message pruned, got %+v", got)
	}
}

package jsonstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

type TransactionStore struct {
	c *collection[models.Transaction]
}

func NewTransactionStore(dir string, log *slog.Logger) *TransactionStore {
	return &TransactionStore{c: newCollection[models.Transaction](dir, "transactions", log)}
}

func (s *TransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	return s.c.list()
}

func (s *TransactionStore) Append(ctx context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	return s.c.update(func(txs []models.Transaction) ([]models.Transaction, error) {
		for i := range txs {
			if tx.TransactionID != "" && txs[i].TransactionID == tx.TransactionID {
				return nil, errs.NewAlreadyExistsError("transaction " + tx.TransactionID + " already exists")
			}
		}
		return append(txs, *tx), nil
	})
}

// ReplaceAll overwrites the collection. Used by the seeder.
func (s *TransactionStore) ReplaceAll(ctx context.Context, txs []models.Transaction) error {
	return s.c.update(func([]models.Transaction) ([]models.Transaction, error) {
		return txs, nil
	})
}

type InvoiceStore struct {
	c *collection[models.Invoice]
}

func NewInvoiceStore(dir string, log *slog.Logger) *InvoiceStore {
	return &InvoiceStore{c: newCollection[models.Invoice](dir, "invoices", log)}
}

func (s *InvoiceStore) List(ctx context.Context) ([]models.Invoice, error) {
	return s.c.list()
}

func (s *InvoiceStore) Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error) {
	invoices, err := s.c.list()
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		if invoices[i].InvoiceNumber == invoiceNumber {
			return &invoices[i], nil
		}
	}
	return nil, errs.NewNotFoundError("invoice not found")
}

func (s *InvoiceStore) Create(ctx context.Context, invoice *models.Invoice) error {
	return s.c.update(func(invoices []models.Invoice) ([]models.Invoice, error) {
		for i := range invoices {
			if invoices[i].InvoiceNumber == invoice.InvoiceNumber {
				return nil, errs.NewAlreadyExistsError("invoice " + invoice.InvoiceNumber + " already exists")
			}
		}
		return append(invoices, *invoice), nil
	})
}

// MarkPaid moves a pending invoice to paid under the collection's write lock,
// so only one of several concurrent payments succeeds.
func (s *InvoiceStore) MarkPaid(ctx context.Context, invoiceNumber, paidAt string) error {
	return s.c.update(func(invoices []models.Invoice) ([]models.Invoice, error) {
		for i := range invoices {
			if invoices[i].InvoiceNumber != invoiceNumber {
				continue
			}
			if invoices[i].IsPaid() {
				return nil, errs.NewAlreadyExistsError("invoice already paid")
			}
			invoices[i].Status = models.InvoiceStatusPaid
			invoices[i].PaidAt = paidAt
			return invoices, nil
		}
		return nil, errs.NewNotFoundError("invoice not found")
	})
}

func (s *InvoiceStore) ReplaceAll(ctx context.Context, invoices []models.Invoice) error {
	return s.c.update(func([]models.Invoice) ([]models.Invoice, error) {
		return invoices, nil
	})
}

type aiRecord struct {
	BusinessToken string           `json:"business_token"`
	SessionID     string           `json:"session_id"`
	Message       models.AIMessage `json:"message"`
}

type AIStore struct {
	c *collection[aiRecord]
}

func NewAIStore(dir string, log *slog.Logger) *AIStore {
	return &AIStore{c: newCollection[aiRecord](dir, "ai_messages", log)}
}

// SaveMessage also prunes expired messages so the file does not grow without
// bound.
func (s *AIStore) SaveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error {
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	return s.c.update(func(records []aiRecord) ([]aiRecord, error) {
		kept := records[:0]
		for _, r := range records {
			if !r.Message.ExpiresAt.IsZero() && r.Message.ExpiresAt.Before(now) {
				continue
			}
			kept = append(kept, r)
		}
		return append(kept, aiRecord{BusinessToken: businessToken, SessionID: sessionID, Message: msg}), nil
	})
}

// ListMessages returns the latest limit messages of the session, oldest first.
func (s *AIStore) ListMessages(ctx context.Context, businessToken, sessionID string, limit int) ([]models.AIMessage, error) {
	records, err := s.c.list()
	if err != nil {
		return nil, err
	}
	var out []models.AIMessage
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.BusinessToken != businessToken || r.SessionID != sessionID {
			continue
		}
		out = append(out, r.Message)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	models.ReverseMessages(out)
	return out, nil
}

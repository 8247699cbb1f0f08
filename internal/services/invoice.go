package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/helpers"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type invoiceStore interface {
	List(ctx context.Context) ([]models.Invoice, error)
	Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	MarkPaid(ctx context.Context, invoiceNumber, paidAt string) error
}

type transactionAppender interface {
	Append(ctx context.Context, tx *models.Transaction) error
}

type invoiceService struct {
	store     invoiceStore
	txs       transactionAppender
	events    eventPublisher
	demoToken string
	loc       *time.Location
	clockNow  func() time.Time
}

func NewInvoiceService(store invoiceStore, txs transactionAppender, events eventPublisher, demoToken string, loc *time.Location) *invoiceService {
	if loc == nil {
		loc = time.Local
	}
	return &invoiceService{
		store:     store,
		txs:       txs,
		events:    events,
		demoToken: demoToken,
		loc:       loc,
		clockNow:  time.Now,
	}
}

// ListInvoices returns the business's invoices, most recently created first,
// optionally narrowed to one status.
func (s *invoiceService) ListInvoices(ctx context.Context, businessToken, status string) ([]models.Invoice, error) {
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Invoice, 0)
	for _, inv := range all {
		if inv.BusinessIdentityToken != businessToken {
			continue
		}
		if status != "" && normalize(inv.Status) != normalize(status) {
			continue
		}
		out = append(out, inv)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, businessToken string, req dto.CreateInvoiceRequest) (*models.Invoice, error) {
	log := logger.FromContext(ctx)
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)

	if req.Amount <= 0 {
		return nil, errs.NewValidationError("amount must be greater than 0")
	}
	dueDate := strings.TrimSpace(req.DueDate)
	if _, err := time.ParseInLocation(dayLayout, dueDate, s.loc); err != nil {
		return nil, errs.NewValidationError("due_date must be YYYY-MM-DD")
	}

	now := s.clockNow().In(s.loc)
	number, err := newInvoiceNumber(now)
	if err != nil {
		return nil, err
	}
	inv := &models.Invoice{
		InvoiceNumber:         number,
		BusinessIdentityToken: businessToken,
		CustomerName:          strings.TrimSpace(req.CustomerName),
		Amount:                req.Amount,
		DueDate:               dueDate,
		Status:                models.InvoiceStatusPending,
		CreatedAt:             now.Format(time.RFC3339),
	}

	if err := s.store.Create(ctx, inv); err != nil {
		log.Error("failed to create invoice", "error", err)
		return nil, err
	}

	log.Info("invoice created", "invoice_number", inv.InvoiceNumber)
	return inv, nil
}

// PayInvoice marks a pending invoice paid and records the matching completed
// payment. Invoices owned by another business are reported as missing. The
// store performs the pending to paid transition atomically, so of two
// concurrent payments only one records a transaction.
func (s *invoiceService) PayInvoice(ctx context.Context, businessToken, invoiceNumber string, req dto.PayInvoiceRequest) (dto.PayInvoiceResult, error) {
	log := logger.FromContext(ctx).With("invoice_number", invoiceNumber)
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)

	inv, err := s.store.Get(ctx, invoiceNumber)
	if err != nil {
		return dto.PayInvoiceResult{}, err
	}
	if inv.BusinessIdentityToken != businessToken {
		return dto.PayInvoiceResult{}, errs.NewNotFoundError("invoice not found")
	}
	if normalize(inv.Status) == models.InvoiceStatusPaid {
		return dto.PayInvoiceResult{}, errs.NewAlreadyExistsError("invoice already paid")
	}

	now := s.clockNow().In(s.loc)
	paidAt := now.Format(time.RFC3339)
	tx := &models.Transaction{
		TransactionID:         "TXN-" + uuid.NewString(),
		BusinessIdentityToken: businessToken,
		ReceiverIdentityToken: businessToken,
		PayerIdentityToken:    req.PayerIdentityToken,
		TransactionType:       models.TransactionTypePayment,
		Amount:                inv.Amount,
		TransactionDate:       paidAt,
		TransactionStatus:     models.TransactionStatusCompleted,
		PaymentMethod:         strings.ToUpper(helpers.FirstNonEmpty(strings.TrimSpace(req.PaymentMethod), unknownPaymentMethod)),
		Description:           "Payment for invoice " + inv.InvoiceNumber,
		CreatedAt:             now,
	}

	if err := s.store.MarkPaid(ctx, inv.InvoiceNumber, paidAt); err != nil {
		log.Error("failed to mark invoice paid", "error", err)
		return dto.PayInvoiceResult{}, err
	}
	if err := s.txs.Append(ctx, tx); err != nil {
		log.Error("failed to record invoice payment", "error", err)
		return dto.PayInvoiceResult{}, err
	}

	result := dto.PayInvoiceResult{
		InvoiceNumber: inv.InvoiceNumber,
		Status:        models.InvoiceStatusPaid,
		PaidAt:        paidAt,
		TransactionID: tx.TransactionID,
	}
	publishEvent(ctx, s.events, dto.EventInvoicePaid, businessToken, now, result)
	log.Info("invoice paid", "transaction_id", tx.TransactionID)
	return result, nil
}

func newInvoiceNumber(now time.Time) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	return "INV-" + now.Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

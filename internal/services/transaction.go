package services

import (
	"context"
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

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type transactionStore interface {
	List(ctx context.Context) ([]models.Transaction, error)
	Append(ctx context.Context, tx *models.Transaction) error
}

type transactionService struct {
	store     transactionStore
	events    eventPublisher
	demoToken string
	loc       *time.Location
	clockNow  func() time.Time
}

func NewTransactionService(store transactionStore, events eventPublisher, demoToken string, loc *time.Location) *transactionService {
	if loc == nil {
		loc = time.Local
	}
	return &transactionService{
		store:     store,
		events:    events,
		demoToken: demoToken,
		loc:       loc,
		clockNow:  time.Now,
	}
}

// ListTransactions returns the business's transactions, newest first.
func (s *transactionService) ListTransactions(ctx context.Context, businessToken string, q dto.TransactionQuery) ([]models.Transaction, error) {
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0)
	for i := range all {
		tx := all[i]
		if !tx.BelongsTo(businessToken) {
			continue
		}
		if q.Status != "" && normalize(tx.TransactionStatus) != normalize(q.Status) {
			continue
		}
		if q.Type != "" && normalize(tx.TransactionType) != normalize(q.Type) {
			continue
		}
		if q.PaymentMethod != "" && paymentMethodKey(tx.PaymentMethod) != paymentMethodKey(q.PaymentMethod) {
			continue
		}
		out = append(out, tx)
	}

	sortNewestFirst(out, s.loc)

	limit := helpers.ClampLimit(q.Limit, defaultTransactionLimit, maxTransactionLimit)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordPayment appends a simulated transaction for the business. No money
// moves; the record only feeds analytics.
func (s *transactionService) RecordPayment(ctx context.Context, businessToken string, req dto.RecordPaymentRequest) (*models.Transaction, error) {
	log := logger.FromContext(ctx)
	businessToken = helpers.FirstNonEmpty(businessToken, s.demoToken)

	if req.Amount <= 0 {
		return nil, errs.NewValidationError("amount must be greater than 0")
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, errs.NewValidationError("payment_method is required")
	}
	txType := normalize(helpers.FirstNonEmpty(req.TransactionType, models.TransactionTypePayment))
	if !isKnownTransactionType(txType) {
		return nil, errs.NewValidationError("unsupported transaction_type: " + req.TransactionType)
	}
	status := normalize(helpers.FirstNonEmpty(req.TransactionStatus, models.TransactionStatusCompleted))
	if !isKnownTransactionStatus(status) {
		return nil, errs.NewValidationError("unsupported transaction_status: " + req.TransactionStatus)
	}

	now := s.clockNow().In(s.loc)
	tx := &models.Transaction{
		TransactionID:         "TXN-" + uuid.NewString(),
		BusinessIdentityToken: businessToken,
		ReceiverIdentityToken: helpers.FirstNonEmpty(req.ReceiverIdentityToken, businessToken),
		PayerIdentityToken:    req.PayerIdentityToken,
		TransactionType:       txType,
		Amount:                req.Amount,
		TransactionDate:       now.Format(time.RFC3339),
		TransactionStatus:     status,
		PaymentMethod:         strings.ToUpper(method),
		Description:           req.Description,
		CreatedAt:             now,
	}

	if err := s.store.Append(ctx, tx); err != nil {
		log.Error("failed to record transaction", "error", err)
		return nil, err
	}

	publishEvent(ctx, s.events, dto.EventTransactionRecorded, businessToken, now, tx)
	log.Info("transaction recorded",
		"transaction_id", tx.TransactionID,
		"transaction_type", tx.TransactionType,
		"transaction_status", tx.TransactionStatus,
	)
	return tx, nil
}

// sortNewestFirst orders by transaction date; undated records sink to the end.
func sortNewestFirst(txs []models.Transaction, loc *time.Location) {
	sort.SliceStable(txs, func(i, j int) bool {
		ti, okI := parseRecordDate(txs[i].TransactionDate, loc)
		tj, okJ := parseRecordDate(txs[j].TransactionDate, loc)
		if okI != okJ {
			return okI
		}
		return ti.After(tj)
	})
}

func isKnownTransactionType(t string) bool {
	switch t {
	case models.TransactionTypePayment, models.TransactionTypeRefund, models.TransactionTypeFee:
		return true
	}
	return false
}

func isKnownTransactionStatus(s string) bool {
	switch s {
	case models.TransactionStatusCompleted, models.TransactionStatusPending, models.TransactionStatusFailed:
		return true
	}
	return false
}

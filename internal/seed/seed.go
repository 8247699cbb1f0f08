// Package seed builds the deterministic demo data set loaded by cmd/seed.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

const (
	Days         = 60
	invoiceCount = 12

	// PartnerToken pays the demo business; its transactions reach the business
	// only through the receiver token.
	PartnerToken = "BIZ-PARTNER-0001"
)

var paymentMethods = []string{"FPX", "CARD", "EWALLET", "DUITNOW", "CASH"}

var customers = []string{"Kedai Runcit Ah Seng", "Warung Mak Cik", "Syarikat Jaya", "Tech Hub Sdn Bhd"}

type Dataset struct {
	Transactions []models.Transaction
	Invoices     []models.Invoice
}

// Generate returns the same records for the same token and day. Transactions
// cover the Days days ending on now's calendar day in loc.
func Generate(businessToken string, now time.Time, loc *time.Location) Dataset {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var ds Dataset
	n := 0
	for daysAgo := Days - 1; daysAgo >= 0; daysAgo-- {
		day := today.AddDate(0, 0, -daysAgo)
		perDay := 1 + (daysAgo*7)%3
		for i := 0; i < perDay; i++ {
			n++
			at := day.Add(time.Duration(9+(i*3)%9) * time.Hour).Add(time.Duration((n*17)%60) * time.Minute)
			if at.After(now) {
				at = now
			}
			ds.Transactions = append(ds.Transactions, transaction(businessToken, n, at))
		}
	}

	for i := 0; i < invoiceCount; i++ {
		created := today.AddDate(0, 0, -(Days-1)+i*5).Add(10 * time.Hour)
		inv := models.Invoice{
			InvoiceNumber:         fmt.Sprintf("INV-SEED-%s-%02d", businessToken, i+1),
			BusinessIdentityToken: businessToken,
			CustomerName:          customers[i%len(customers)],
			Amount:                amount(300+i*125, i*11),
			DueDate:               created.AddDate(0, 0, 14).Format(time.DateOnly),
			Status:                models.InvoiceStatusPending,
			CreatedAt:             created.Format(time.RFC3339),
		}
		if i%3 != 2 {
			inv.Status = models.InvoiceStatusPaid
			inv.PaidAt = created.AddDate(0, 0, 3+i%4).Format(time.RFC3339)
		}
		ds.Invoices = append(ds.Invoices, inv)
	}
	return ds
}

func transaction(businessToken string, n int, at time.Time) models.Transaction {
	tx := models.Transaction{
		TransactionID:         fmt.Sprintf("TXN-SEED-%s-%04d", businessToken, n),
		BusinessIdentityToken: businessToken,
		ReceiverIdentityToken: businessToken,
		TransactionType:       models.TransactionTypePayment,
		Amount:                amount(40+(n*37)%960, (n*13)%100),
		TransactionDate:       at.Format(time.RFC3339),
		TransactionStatus:     models.TransactionStatusCompleted,
		PaymentMethod:         paymentMethods[n%len(paymentMethods)],
		Description:           "Demo sale",
		CreatedAt:             at.UTC(),
	}

	switch {
	case n%13 == 0:
		tx.TransactionType = models.TransactionTypeRefund
		tx.Amount = amount(20+(n*7)%80, 0)
		tx.Description = "Demo refund"
	case n%9 == 0:
		tx.TransactionType = models.TransactionTypeFee
		tx.Amount = amount(2, (n*3)%100)
		tx.Description = "Processing fee"
	case n%10 == 0:
		tx.BusinessIdentityToken = PartnerToken
		tx.PayerIdentityToken = PartnerToken
		tx.Description = "Partner settlement"
	}

	switch {
	case n%17 == 0:
		tx.TransactionStatus = models.TransactionStatusFailed
	case n%11 == 0:
		tx.TransactionStatus = models.TransactionStatusPending
	}
	return tx
}

func amount(ringgit, sen int) models.Amount {
	return models.ParseAmount(fmt.Sprintf("%d.%02d", ringgit, sen))
}

type TransactionWriter interface {
	Append(ctx context.Context, tx *models.Transaction) error
}

type InvoiceWriter interface {
	Create(ctx context.Context, invoice *models.Invoice) error
}

type transactionReplacer interface {
	ReplaceAll(ctx context.Context, txs []models.Transaction) error
}

type invoiceReplacer interface {
	ReplaceAll(ctx context.Context, invoices []models.Invoice) error
}

type Result struct {
	Written int
	Skipped int
}

// Load writes ds into the stores. Records that already exist are skipped, so
// reseeding the same day is a no-op. With reset, stores that can replace their
// whole contents are overwritten instead.
func Load(ctx context.Context, txs TransactionWriter, invoices InvoiceWriter, ds Dataset, reset bool) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	if r, ok := txs.(transactionReplacer); ok && reset {
		if err := r.ReplaceAll(ctx, ds.Transactions); err != nil {
			return res, err
		}
		res.Written += len(ds.Transactions)
	} else {
		for i := range ds.Transactions {
			if err := skipExisting(txs.Append(ctx, &ds.Transactions[i]), &res); err != nil {
				return res, err
			}
		}
	}

	if r, ok := invoices.(invoiceReplacer); ok && reset {
		if err := r.ReplaceAll(ctx, ds.Invoices); err != nil {
			return res, err
		}
		res.Written += len(ds.Invoices)
	} else {
		for i := range ds.Invoices {
			if err := skipExisting(invoices.Create(ctx, &ds.Invoices[i]), &res); err != nil {
				return res, err
			}
		}
	}

	log.Info("seed loaded", "written", res.Written, "skipped", res.Skipped)
	return res, nil
}

func skipExisting(err error, res *Result) error {
	var exists *errs.AlreadyExistsError
	switch {
	case err == nil:
		res.Written++
	case errors.As(err, &exists):
		res.Skipped++
	default:
		return err
	}
	return nil
}

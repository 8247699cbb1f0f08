package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/helpers"
)

const (
	dayLayout            = "2006-01-02"
	dailyRevenueDays     = 7
	growthWindowDays     = 30
	unknownPaymentMethod = "UNKNOWN"
)

// Zone-less layouts are read in the caller's location.
var localDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	dayLayout,
}

var hundred = decimal.NewFromInt(100)

type methodAccumulator struct {
	amount decimal.Decimal
	count  int
}

// ComputeAnalytics derives the analytics summary for one business from
// unfiltered transaction and invoice collections. It performs no I/O and keeps
// no state; now fixes both "today" and the local time zone used for day
// bucketing.
//
// A transaction belongs to the business when either its business or receiver
// token matches. Invoices match on the business token only. An empty
// businessToken matches nothing, so records with blank tokens are never
// attributed to an unscoped caller. Records are never
// rejected: unknown statuses and types are counted in the totals only, and
// records with unparseable dates are left out of every date-bucketed figure.
func ComputeAnalytics(transactions []models.Transaction, invoices []models.Invoice, businessToken string, now time.Time) dto.AnalyticsSummary {
	loc := now.Location()
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	currentStart := today.AddDate(0, 0, -(growthWindowDays - 1))
	previousStart := currentStart.AddDate(0, 0, -growthWindowDays)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var (
		revenue, expenses, pendingAmt, failedAmt, monthly decimal.Decimal
		currentRevenue, previousRevenue                   decimal.Decimal

		txTotal, completed, pending, failed int
		currentTxs, previousTxs             int
	)
	methods := map[string]*methodAccumulator{}
	daily := map[string]decimal.Decimal{}

	for i := range transactions {
		tx := &transactions[i]
		if !tx.BelongsTo(businessToken) {
			continue
		}
		txTotal++

		amount := tx.Amount.Decimal()
		date, dated := parseRecordDate(tx.TransactionDate, loc)
		if dated {
			switch {
			case inRange(date, currentStart, tomorrow):
				currentTxs++
			case inRange(date, previousStart, currentStart):
				previousTxs++
			}
		}

		switch normalize(tx.TransactionStatus) {
		case models.TransactionStatusCompleted:
			completed++

			key := paymentMethodKey(tx.PaymentMethod)
			acc, ok := methods[key]
			if !ok {
				acc = &methodAccumulator{}
				methods[key] = acc
			}
			acc.amount = acc.amount.Add(amount)
			acc.count++

			switch normalize(tx.TransactionType) {
			case models.TransactionTypePayment:
				revenue = revenue.Add(amount)
				if !dated {
					continue
				}
				dayKey := date.Format(dayLayout)
				daily[dayKey] = daily[dayKey].Add(amount)
				if inRange(date, monthStart, monthEnd) {
					monthly = monthly.Add(amount)
				}
				switch {
				case inRange(date, currentStart, tomorrow):
					currentRevenue = currentRevenue.Add(amount)
				case inRange(date, previousStart, currentStart):
					previousRevenue = previousRevenue.Add(amount)
				}
			case models.TransactionTypeRefund, models.TransactionTypeFee:
				expenses = expenses.Add(amount)
			}

		case models.TransactionStatusPending:
			pending++
			pendingAmt = pendingAmt.Add(amount)

		case models.TransactionStatusFailed:
			failed++
			failedAmt = failedAmt.Add(amount)
		}
	}

	var invoiceTotal, paidInvoices, pendingInvoices, overdueInvoices int
	var currentInvoices, previousInvoices int
	for i := range invoices {
		inv := &invoices[i]
		if businessToken == "" || inv.BusinessIdentityToken != businessToken {
			continue
		}
		invoiceTotal++

		switch normalize(inv.Status) {
		case models.InvoiceStatusPaid:
			paidInvoices++
		case models.InvoiceStatusPending:
			pendingInvoices++
			if due, ok := parseRecordDate(inv.DueDate, loc); ok && due.Before(today) {
				overdueInvoices++
			}
		}

		if created, ok := parseRecordDate(inv.CreatedAt, loc); ok {
			switch {
			case inRange(created, currentStart, tomorrow):
				currentInvoices++
			case inRange(created, previousStart, currentStart):
				previousInvoices++
			}
		}
	}

	summary := dto.AnalyticsSummary{
		Revenue: dto.AmountMetric{
			Total:  money(revenue),
			Growth: percentChange(currentRevenue, previousRevenue),
		},
		Invoices: dto.CountMetric{
			Total:  invoiceTotal,
			Growth: percentChange(decimal.NewFromInt(int64(currentInvoices)), decimal.NewFromInt(int64(previousInvoices))),
		},
		Transactions: dto.CountMetric{
			Total:  txTotal,
			Growth: percentChange(decimal.NewFromInt(int64(currentTxs)), decimal.NewFromInt(int64(previousTxs))),
		},
		Expenses:              money(expenses),
		Balance:               money(revenue.Sub(expenses)),
		PendingAmount:         money(pendingAmt),
		FailedAmount:          money(failedAmt),
		CompletedTransactions: completed,
		PendingTransactions:   pending,
		FailedTransactions:    failed,
		PaymentMethods:        make(map[string]dto.PaymentMethodStat, len(methods)),
		DailyRevenue:          dailySeries(daily, today),
		MonthlyRevenue:        money(monthly),
		PaidInvoices:          paidInvoices,
		PendingInvoices:       pendingInvoices,
		OverdueInvoices:       overdueInvoices,
	}

	for key, acc := range methods {
		summary.PaymentMethods[key] = dto.PaymentMethodStat{
			Amount:     money(acc.amount),
			Count:      acc.count,
			Percentage: float64(acc.count) / float64(completed) * 100,
		}
	}
	if completed > 0 {
		summary.AvgTransactionValue = money(revenue.Div(decimal.NewFromInt(int64(completed))))
	}
	if txTotal > 0 {
		summary.SuccessRate = float64(completed) / float64(txTotal) * 100
		summary.FailureRate = float64(failed) / float64(txTotal) * 100
	}

	return summary
}

// dailySeries returns one entry per day for the trailing week ending today,
// oldest first, with zero revenue for days without payments.
func dailySeries(daily map[string]decimal.Decimal, today time.Time) []dto.DailyRevenue {
	out := make([]dto.DailyRevenue, 0, dailyRevenueDays)
	for offset := dailyRevenueDays - 1; offset >= 0; offset-- {
		day := time.Date(today.Year(), today.Month(), today.Day()-offset, 0, 0, 0, 0, today.Location())
		key := day.Format(dayLayout)
		out = append(out, dto.DailyRevenue{
			Date:     key,
			Revenue:  money(daily[key]),
			Weekday:  day.Format("Mon"),
			FullDate: day.Format("January 2, 2006"),
		})
	}
	return out
}

func percentChange(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		return nil
	}
	change := current.Sub(previous).Div(previous).Mul(hundred).Round(2)
	return helpers.Ptr(change.InexactFloat64())
}

// parseRecordDate reads an ISO-8601 timestamp or date and returns it in loc.
func parseRecordDate(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func paymentMethodKey(method string) string {
	key := strings.ToUpper(strings.TrimSpace(method))
	if key == "" {
		return unknownPaymentMethod
	}
	return key
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

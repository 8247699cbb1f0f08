package dto

import "time"

// AnalyticsSummary is the derived view of one business's transactions and
// invoices. It is recomputed on every request and never stored.
type AnalyticsSummary struct {
	Revenue      AmountMetric `json:"revenue"`
	Invoices     CountMetric  `json:"invoices"`
	Transactions CountMetric  `json:"transactions"`

	Expenses      float64 `json:"expenses"`
	Balance       float64 `json:"balance"`
	PendingAmount float64 `json:"pendingAmount"`
	FailedAmount  float64 `json:"failedAmount"`

	CompletedTransactions int `json:"completedTransactions"`
	PendingTransactions   int `json:"pendingTransactions"`
	FailedTransactions    int `json:"failedTransactions"`

	// PaymentMethods is keyed by payment method label. Percentage is the share of
	// completed transaction count, not of amount.
	PaymentMethods      map[string]PaymentMethodStat `json:"paymentMethods"`
	AvgTransactionValue float64                      `json:"avgTransactionValue"`
	DailyRevenue        []DailyRevenue               `json:"dailyRevenue"`
	MonthlyRevenue      float64                      `json:"monthlyRevenue"`

	PaidInvoices    int `json:"paidInvoices"`
	PendingInvoices int `json:"pendingInvoices"`
	OverdueInvoices int `json:"overdueInvoices"`

	SuccessRate float64 `json:"successRate"`
	FailureRate float64 `json:"failureRate"`
}

// AmountMetric and CountMetric carry Growth as the percentage change against
// the previous window, nil when the previous window had nothing to compare.
type AmountMetric struct {
	Total  float64  `json:"total"`
	Growth *float64 `json:"growth"`
}

type CountMetric struct {
	Total  int      `json:"total"`
	Growth *float64 `json:"growth"`
}

type PaymentMethodStat struct {
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type DailyRevenue struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Revenue  float64 `json:"revenue"`
	Weekday  string  `json:"weekday"`
	FullDate string  `json:"fullDate"`
}

type AnalyticsResponse struct {
	BusinessToken string           `json:"businessToken"`
	Analytics     AnalyticsSummary `json:"analytics"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

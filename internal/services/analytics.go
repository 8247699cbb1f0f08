package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type transactionLister interface {
	List(ctx context.Context) ([]models.Transaction, error)
}

type invoiceLister interface {
	List(ctx context.Context) ([]models.Invoice, error)
}

type analyticsService struct {
	txs       transactionLister
	invoices  invoiceLister
	demoToken string
	loc       *time.Location
	clockNow  func() time.Time
}

func NewAnalyticsService(txs transactionLister, invoices invoiceLister, demoToken string, loc *time.Location) *analyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &analyticsService{
		txs:       txs,
		invoices:  invoices,
		demoToken: demoToken,
		loc:       loc,
		clockNow:  time.Now,
	}
}

func (s *analyticsService) GetBusinessAnalytics(ctx context.Context, businessToken string) (dto.AnalyticsResponse, error) {
	log := logger.FromContext(ctx)
	if businessToken == "" {
		businessToken = s.demoToken
	}

	var (
		txs      []models.Transaction
		invoices []models.Invoice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.txs.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load analytics inputs", "error", err)
		return dto.AnalyticsResponse{}, err
	}

	now := s.clockNow().In(s.loc)
	summary := ComputeAnalytics(txs, invoices, businessToken, now)

	log.Debug("analytics computed",
		"transactions", summary.Transactions.Total,
		"invoices", summary.Invoices.Total,
	)
	return dto.AnalyticsResponse{
		BusinessToken: businessToken,
		Analytics:     summary,
		GeneratedAt:   now,
	}, nil
}

package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"

	amqpclient "github.com/GregMSThompson/bizledger/internal/client/amqp"
	vertexclient "github.com/GregMSThompson/bizledger/internal/client/vertex"
	"github.com/GregMSThompson/bizledger/internal/config"
	"github.com/GregMSThompson/bizledger/internal/dto"
	"github.com/GregMSThompson/bizledger/internal/models"
	"github.com/GregMSThompson/bizledger/internal/services"
	"github.com/GregMSThompson/bizledger/internal/store"
	"github.com/GregMSThompson/bizledger/internal/store/jsonstore"
	"github.com/GregMSThompson/bizledger/internal/store/sqlitestore"
	"github.com/GregMSThompson/bizledger/pkg/logger"
)

type TransactionStore interface {
	List(ctx context.Context) ([]models.Transaction, error)
	Append(ctx context.Context, tx *models.Transaction) error
}

type InvoiceStore interface {
	List(ctx context.Context) ([]models.Invoice, error)
	Get(ctx context.Context, invoiceNumber string) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	MarkPaid(ctx context.Context, invoiceNumber, paidAt string) error
}

type AIStore interface {
	SaveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error
	ListMessages(ctx context.Context, businessToken, sessionID string, limit int) ([]models.AIMessage, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event dto.Event) error
}

type Bootstrap struct {
	Log *slog.Logger

	Transactions TransactionStore
	Invoices     InvoiceStore
	AIMessages   AIStore

	// VertexAdapter is nil when the assistant is not configured.
	VertexAdapter *vertexclient.Adapter
	Events        EventPublisher

	firestore *firestore.Client
	sqlite    *sql.DB
	publisher *amqpclient.Publisher
}

// Run wires the logger, the configured store backend and the optional
// external clients. Log is always set, even when an error is returned, and
// anything opened before the failure is already closed.
func Run(cfg *config.Config) (bs *Bootstrap, err error) {
	applicationCtx := context.Background()
	bs = new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() {
		if err != nil {
			if cerr := bs.Close(); cerr != nil {
				bs.Log.Warn("cleanup after failed bootstrap", "error", cerr)
			}
		}
	}()

	if err = bs.initStores(applicationCtx, cfg); err != nil {
		return bs, err
	}

	if cfg.VertexEnabled() {
		bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
		if err != nil {
			return bs, fmt.Errorf("init vertex: %w", err)
		}
	}

	bs.Events = services.NoopPublisher{}
	if cfg.AMQPURL != "" {
		bs.publisher, err = amqpclient.NewPublisher(bs.Log, cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return bs, fmt.Errorf("init amqp: %w", err)
		}
		bs.Events = bs.publisher
	}

	bs.Log.Info("bootstrap complete",
		"store_backend", cfg.StoreBackend,
		"assistant", bs.VertexAdapter != nil,
		"events", bs.publisher != nil,
	)
	return bs, nil
}

func (bs *Bootstrap) initStores(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreBackend {
	case config.BackendFile:
		bs.Transactions = jsonstore.NewTransactionStore(cfg.DataDir, bs.Log)
		bs.Invoices = jsonstore.NewInvoiceStore(cfg.DataDir, bs.Log)
		bs.AIMessages = jsonstore.NewAIStore(cfg.DataDir, bs.Log)
	case config.BackendSQLite:
		db, err := sqlitestore.Open(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		bs.sqlite = db
		bs.Transactions = sqlitestore.NewTransactionStore(db)
		bs.Invoices = sqlitestore.NewInvoiceStore(db)
		bs.AIMessages = sqlitestore.NewAIStore(db)
	case config.BackendFirestore:
		client, err := InitFirestore(ctx, cfg.ProjectID)
		if err != nil {
			return fmt.Errorf("init firestore: %w", err)
		}
		bs.firestore = client
		bs.Transactions = store.NewTransactionStore(client)
		bs.Invoices = store.NewInvoiceStore(client)
		bs.AIMessages = store.NewAIStore(client)
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return nil
}

// Close releases every client Run opened. Calling it again is a no-op.
func (bs *Bootstrap) Close() error {
	var errList []error
	if bs.publisher != nil {
		errList = append(errList, bs.publisher.Close())
		bs.publisher = nil
	}
	if bs.VertexAdapter != nil {
		errList = append(errList, bs.VertexAdapter.Close())
		bs.VertexAdapter = nil
	}
	if bs.firestore != nil {
		errList = append(errList, bs.firestore.Close())
		bs.firestore = nil
	}
	if bs.sqlite != nil {
		errList = append(errList, bs.sqlite.Close())
		bs.sqlite = nil
	}
	return errors.Join(errList...)
}

package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection() *firestore.CollectionRef {
	return s.client.Collection("transactions")
}

// List returns every transaction in the collection. Scoping to a business is
// left to the caller, which also matches on the receiver token.
func (s *transactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	iter := s.collection().Documents(ctx)
	defer iter.Stop()

	out := make([]models.Transaction, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list transactions", err)
		}
		tx, err := decodeTransaction(doc)
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *transactionStore) Append(ctx context.Context, tx *models.Transaction) error {
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	_, err := s.collection().Doc(tx.TransactionID).Create(ctx, tx)
	if err != nil {
		return wrapWriteError("create", "transaction "+tx.TransactionID, err)
	}
	return nil
}

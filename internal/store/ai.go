package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/bizledger/internal/errs"
	"github.com/GregMSThompson/bizledger/internal/models"
)

type aiStore struct {
	client *firestore.Client
}

func NewAIStore(client *firestore.Client) *aiStore {
	return &aiStore{client: client}
}

// Messages expire through a Firestore TTL policy on expiresAt.
func (s *aiStore) messagesCollection(businessToken, sessionID string) *firestore.CollectionRef {
	return s.client.Collection("businesses").Doc(businessToken).
		Collection("ai_sessions").Doc(sessionID).
		Collection("messages")
}

func (s *aiStore) SaveMessage(ctx context.Context, businessToken, sessionID string, msg models.AIMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	_, _, err := s.messagesCollection(businessToken, sessionID).Add(ctx, msg)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to save AI message", err)
	}
	return nil
}

// ListMessages returns the latest limit messages, oldest first.
func (s *aiStore) ListMessages(ctx context.Context, businessToken, sessionID string, limit int) ([]models.AIMessage, error) {
	query := s.messagesCollection(businessToken, sessionID).Query.OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []models.AIMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list AI messages", err)
		}
		var msg models.AIMessage
		if err := doc.DataTo(&msg); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse AI message data", err)
		}
		out = append(out, msg)
	}

	models.ReverseMessages(out)
	return out, nil
}

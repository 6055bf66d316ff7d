package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

const defaultSubscriptionsCollection = "subscriptions"

type subscriptionDoc struct {
	ID                 string     `bson:"_id"`
	Tier               string     `bson:"tier"`
	PriceID            string     `bson:"price_id,omitempty"`
	Status             string     `bson:"status"`
	ProviderSubID      string     `bson:"provider_sub_id,omitempty"`
	ProviderCustomerID string     `bson:"provider_customer_id,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
	TrialEndsAt        *time.Time `bson:"trial_ends_at,omitempty"`
	CancelledAt        *time.Time `bson:"cancelled_at,omitempty"`
}

// MongoStore persists subscriptions in a mongo collection, one document
// per user keyed by the user UUID.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore creates a subscription store backed by the given database.
func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	if collection == "" {
		collection = defaultSubscriptionsCollection
	}
	return &MongoStore{coll: db.Collection(collection)}
}

func (s *MongoStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var doc subscriptionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &Subscription{
		UserID:             userID,
		Tier:               entitlement.ParseTier(doc.Tier),
		PriceID:            doc.PriceID,
		Status:             Status(doc.Status),
		ProviderSubID:      doc.ProviderSubID,
		ProviderCustomerID: doc.ProviderCustomerID,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
		TrialEndsAt:        doc.TrialEndsAt,
		CancelledAt:        doc.CancelledAt,
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, sub *Subscription) error {
	doc := subscriptionDoc{
		ID:                 sub.UserID.String(),
		Tier:               string(sub.Tier),
		PriceID:            sub.PriceID,
		Status:             string(sub.Status),
		ProviderSubID:      sub.ProviderSubID,
		ProviderCustomerID: sub.ProviderCustomerID,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
		TrialEndsAt:        sub.TrialEndsAt,
		CancelledAt:        sub.CancelledAt,
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

package usage

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

const defaultUsersCollection = "users"

type counterDoc struct {
	Day     string `bson:"day"`
	Month   string `bson:"month"`
	Daily   int64  `bson:"daily"`
	Monthly int64  `bson:"monthly"`
	Total   int64  `bson:"total"`
}

type userDoc struct {
	ID    string                `bson:"_id"`
	Tier  string                `bson:"tier"`
	Usage map[string]counterDoc `bson:"usage,omitempty"`
}

// MongoStore persists user tiers and usage counters in a mongo
// collection, one document per user keyed by the user UUID.
//
// Increment is implemented as a sequence of conditional UpdateOne calls
// whose filters encode both the quota bound and the calendar window, so
// each attempt is atomic on the server. Concurrent increments can never
// push a counter past its limit regardless of what the clients' cached
// snapshots said.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// MongoStoreOption configures a MongoStore.
type MongoStoreOption func(*MongoStore)

// WithUsersCollection overrides the collection name.
func WithUsersCollection(db *mongo.Database, name string) MongoStoreOption {
	return func(s *MongoStore) {
		if name != "" {
			s.coll = db.Collection(name)
		}
	}
}

// WithMongoClock overrides the time source, for tests.
func WithMongoClock(now func() time.Time) MongoStoreOption {
	return func(s *MongoStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMongoStore creates a store backed by the given database.
func NewMongoStore(db *mongo.Database, opts ...MongoStoreOption) *MongoStore {
	s := &MongoStore{
		coll: db.Collection(defaultUsersCollection),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot reads the user document and resolves counters to the current
// UTC windows. A counter whose stored window key is stale reads as zero.
func (s *MongoStore) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	var doc userDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrSnapshotFailed, err)
	}

	now := s.now().UTC()
	day, month := dayKey(now), monthKey(now)

	snap := &Snapshot{
		UserID:    userID,
		Tier:      entitlement.ParseTier(doc.Tier),
		Usage:     make(map[entitlement.Feature]Windows, len(doc.Usage)),
		FetchedAt: now,
	}
	for name, c := range doc.Usage {
		w := Windows{Total: c.Total}
		if c.Day == day {
			w.Daily = c.Daily
		}
		if c.Month == month {
			w.Monthly = c.Monthly
		}
		snap.Usage[entitlement.Feature(name)] = w
	}
	return snap, nil
}

// Increment adds amount to the feature counter iff the result stays
// within limit. Three conditional updates cover the possible document
// states (current windows, stale day, stale month or missing counter);
// a brand-new user is provisioned with an insert. When every attempt
// fails to match, the only remaining explanation is an exhausted quota.
func (s *MongoStore) Increment(ctx context.Context, userID uuid.UUID, feature entitlement.Feature, amount int64, limit entitlement.Quota) error {
	if amount <= 0 {
		return nil
	}
	// An amount that cannot fit an empty window can never succeed.
	if (limit.Daily != entitlement.Unlimited && amount > limit.Daily) ||
		(limit.Monthly != entitlement.Unlimited && amount > limit.Monthly) {
		return ErrQuotaExceeded
	}

	now := s.now().UTC()
	day, month := dayKey(now), monthKey(now)
	path := "usage." + string(feature)
	id := userID.String()

	// Both windows current: plain guarded increment.
	filter := bson.M{"_id": id, path + ".day": day, path + ".month": month}
	if limit.Daily != entitlement.Unlimited {
		filter[path+".daily"] = bson.M{"$lte": limit.Daily - amount}
	}
	if limit.Monthly != entitlement.Unlimited {
		filter[path+".monthly"] = bson.M{"$lte": limit.Monthly - amount}
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{
		path + ".daily":   amount,
		path + ".monthly": amount,
		path + ".total":   amount,
	}})
	if err != nil {
		return fmt.Errorf("usage increment: %w", err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	// Day rolled over within the same month: restart the daily counter.
	filter = bson.M{"_id": id, path + ".day": bson.M{"$ne": day}, path + ".month": month}
	if limit.Monthly != entitlement.Unlimited {
		filter[path+".monthly"] = bson.M{"$lte": limit.Monthly - amount}
	}
	res, err = s.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{path + ".day": day, path + ".daily": amount},
		"$inc": bson.M{path + ".monthly": amount, path + ".total": amount},
	})
	if err != nil {
		return fmt.Errorf("usage increment: %w", err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	// Month rolled over, or the counter does not exist yet on this
	// document ($ne matches a missing field): restart both windows.
	filter = bson.M{"_id": id, path + ".month": bson.M{"$ne": month}}
	res, err = s.coll.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			path + ".day":     day,
			path + ".month":   month,
			path + ".daily":   amount,
			path + ".monthly": amount,
		},
		"$inc": bson.M{path + ".total": amount},
	})
	if err != nil {
		return fmt.Errorf("usage increment: %w", err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	// No document at all: provision at zero on the free tier.
	_, err = s.coll.InsertOne(ctx, userDoc{
		ID:   id,
		Tier: string(entitlement.TierFree),
		Usage: map[string]counterDoc{
			string(feature): {Day: day, Month: month, Daily: amount, Monthly: amount, Total: amount},
		},
	})
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		// The document exists with current windows and none of the
		// guarded updates matched: the quota is exhausted.
		return ErrQuotaExceeded
	}
	return fmt.Errorf("usage increment: %w", err)
}

// SetTier updates the user's subscription tier, creating the record if
// necessary.
func (s *MongoStore) SetTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID.String()},
		bson.M{"$set": bson.M{"tier": string(entitlement.ParseTier(string(tier)))}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	return nil
}

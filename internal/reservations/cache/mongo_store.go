package cache

import (
	"context"
	"fmt"
	"time"

	mongotx "carbroker/pkg/db/mongo"
	"carbroker/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LocksCollection = "Reservation_locks"

type lockDocument struct {
	ID            string    `bson:"_id"`
	ReservationID string    `bson:"rez_id"`
	ParkID        string    `bson:"cars_park_id"`
	Pickup        time.Time `bson:"pickup"`
	Dropoff       time.Time `bson:"dropoff"`
	SavedAt       time.Time `bson:"saved_at"`
}

func toDocument(lock model.ReservationLock, now time.Time) lockDocument {
	return lockDocument{
		ID:            lock.Key(),
		ReservationID: lock.Identity.ReservationID,
		ParkID:        lock.Identity.ParkID,
		Pickup:        lock.Range.Pickup,
		Dropoff:       lock.Range.Dropoff,
		SavedAt:       now,
	}
}

func (d lockDocument) lock() model.ReservationLock {
	return model.ReservationLock{
		Identity: model.VehicleIdentity{ReservationID: d.ReservationID, ParkID: d.ParkID},
		Range:    model.DateRange{Pickup: d.Pickup.UTC(), Dropoff: d.Dropoff.UTC()},
	}
}

// MongoStore replaces the whole collection on every save, inside one
// transaction, so the stored set always equals one in-memory snapshot.
type MongoStore struct {
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
	timeout    time.Duration
}

func NewMongoStore(db *mongo.Database, txManager mongotx.TransactionManager, timeout time.Duration) *MongoStore {
	return &MongoStore{
		collection: db.Collection(LocksCollection),
		txManager:  txManager,
		timeout:    timeout,
	}
}

// withTimeout leaves SessionContexts alone; wrapping one would detach the
// operation from its transaction.
func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < s.timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MongoStore) LoadLocks(ctx context.Context) ([]model.ReservationLock, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find locks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []lockDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode locks: %w", err)
	}

	locks := make([]model.ReservationLock, 0, len(docs))
	for _, d := range docs {
		locks = append(locks, d.lock())
	}
	return locks, nil
}

func (s *MongoStore) SaveLocks(ctx context.Context, locks []model.ReservationLock) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(locks))
	for _, lock := range locks {
		docs = append(docs, toDocument(lock, now))
	}

	return s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.collection.DeleteMany(sessCtx, bson.M{}); err != nil {
			return fmt.Errorf("clear locks: %w", err)
		}
		if len(docs) == 0 {
			return nil
		}
		if _, err := s.collection.InsertMany(sessCtx, docs); err != nil {
			return fmt.Errorf("insert locks: %w", err)
		}
		return nil
	})
}

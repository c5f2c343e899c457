package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	applicationserrors "campusrent/internal/applications/errors"
	"campusrent/pkg/config"
	"campusrent/pkg/model"
)

const (
	LockCollectionName = "AllocationLocks"

	lockIDPrefix = "alloc_lock_"
)

// LockID builds the advisory-lock document id for an allocation.
func LockID(allocationID string) string {
	return lockIDPrefix + allocationID
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// LockRepository hands out advisory locks backed by unique _id inserts.
// The first insert wins; a TTL index on expires_at reaps stale holders
// from crashed requests.
type LockRepository interface {
	Acquire(ctx context.Context, allocationID string) error
	Release(ctx context.Context, allocationID string) error
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoLockRepository) Acquire(ctx context.Context, allocationID string) error {
	lock := model.AllocationLock{
		ID:        LockID(allocationID),
		ExpiresAt: time.Now().UTC().Add(r.cfg.AllocationLockTTL),
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", applicationserrors.ErrLockHeld, allocationID)
		}
		return fmt.Errorf("failed to acquire allocation lock [%s]: %w", allocationID, err)
	}

	return nil
}

func (r *mongoLockRepository) Release(ctx context.Context, allocationID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": LockID(allocationID)})
	if err != nil {
		return fmt.Errorf("failed to release allocation lock [%s]: %w", allocationID, err)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	eventserrors "campusrent/internal/events/errors"
	"campusrent/pkg/config"
	"campusrent/pkg/model"
)

const (
	AllocationCollectionName = "EventFacilityAllocations"
)

type mongoAllocationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type AllocationRepository interface {
	Create(ctx context.Context, allocation *model.EventFacilityAllocation) error
	FindByID(ctx context.Context, id string) (*model.EventFacilityAllocation, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error)
	FindByEventID(ctx context.Context, eventID string) ([]*model.EventFacilityAllocation, error)
	UpdateInPlace(ctx context.Context, id string, allocation *model.EventFacilityAllocation) error
}

func NewMongoAllocationRepository(cfg *config.Config) AllocationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAllocationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(AllocationCollectionName),
	}
}

func (r *mongoAllocationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAllocationRepository) Create(ctx context.Context, allocation *model.EventFacilityAllocation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	allocation.CreatedAt = now
	allocation.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, allocation)
	if err != nil {
		return fmt.Errorf("failed to create allocation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		allocation.ID = oid.Hex()
	}

	return nil
}

func (r *mongoAllocationRepository) FindByID(ctx context.Context, id string) (*model.EventFacilityAllocation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidAllocationID, id)
	}

	var allocation model.EventFacilityAllocation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&allocation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", eventserrors.ErrAllocationNotFound, id)
		}
		return nil, fmt.Errorf("failed to find allocation: %w", err)
	}

	return &allocation, nil
}

func (r *mongoAllocationRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidAllocationID, id)
		}
		objectIDs = append(objectIDs, objectID)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer cursor.Close(ctx)

	var allocations []*model.EventFacilityAllocation
	if err = cursor.All(ctx, &allocations); err != nil {
		return nil, fmt.Errorf("failed to decode allocations: %w", err)
	}

	return allocations, nil
}

func (r *mongoAllocationRepository) FindByEventID(ctx context.Context, eventID string) ([]*model.EventFacilityAllocation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "facility_name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for event [%s]: %w", eventID, err)
	}
	defer cursor.Close(ctx)

	var allocations []*model.EventFacilityAllocation
	if err = cursor.All(ctx, &allocations); err != nil {
		return nil, fmt.Errorf("failed to decode allocations: %w", err)
	}

	return allocations, nil
}

// UpdateInPlace edits an existing allocation's quota and pricing while
// preserving its identity, so recorded applications keep pointing at it.
func (r *mongoAllocationRepository) UpdateInPlace(ctx context.Context, id string, allocation *model.EventFacilityAllocation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", eventserrors.ErrInvalidAllocationID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"quantity":          allocation.Quantity,
			"max_per_business":  allocation.MaxPerBusiness,
			"student_price":     allocation.StudentPrice,
			"non_student_price": allocation.NonStudentPrice,
			"updated_at":        time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update allocation: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", eventserrors.ErrAllocationNotFound, id)
	}

	return nil
}

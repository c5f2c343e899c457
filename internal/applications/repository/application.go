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

	applicationserrors "campusrent/internal/applications/errors"
	"campusrent/pkg/config"
	mongotx "campusrent/pkg/db/mongo"
	"campusrent/pkg/model"
	"campusrent/pkg/sanitizer"
)

const (
	CollectionName = "Applications"
)

type mongoApplicationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ApplicationRepository interface {
	Create(ctx context.Context, application *model.Application) error
	FindByID(ctx context.Context, id string) (*model.Application, error)
	FindAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, error)
	Count(ctx context.Context, filter model.ApplicationFilter) (int64, error)

	SumActiveByAllocation(ctx context.Context, allocationID string) (int, error)
	SumActiveByAllocationForBusiness(ctx context.Context, allocationID, businessID string) (int, error)
	SumActiveByAllocations(ctx context.Context, allocationIDs []string) (map[string]int, error)
	ExistsActive(ctx context.Context, allocationID, businessID string) (bool, error)

	UpdateStatusIf(ctx context.Context, id string, fromStatuses []string, toStatus string, reason string) (bool, error)
	CancelActiveByEvent(ctx context.Context, eventID string) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoApplicationRepository(cfg *config.Config) ApplicationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoApplicationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoApplicationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoApplicationRepository) Create(ctx context.Context, application *model.Application) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	application.SubmittedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, application)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		application.ID = oid.Hex()
	}

	return nil
}

func (r *mongoApplicationRepository) FindByID(ctx context.Context, id string) (*model.Application, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", applicationserrors.ErrInvalidID, id)
	}

	var application model.Application
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&application)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", applicationserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}

	return &application, nil
}

func buildListFilter(filter model.ApplicationFilter) bson.M {
	query := bson.M{}

	if filter.EventID != "" {
		query["event_id"] = filter.EventID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.BusinessID != "" {
		query["business_id"] = filter.BusinessID
	}
	if filter.SearchQuery != "" {
		pattern := sanitizer.EscapeSearchQuery(filter.SearchQuery)
		query["$or"] = []bson.M{
			{"contact_name": bson.M{"$regex": pattern, "$options": "i"}},
			{"business_id": filter.SearchQuery},
		}
	}

	return query
}

func (r *mongoApplicationRepository) FindAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sortDir := -1
	if filter.SortOrder == "asc" {
		sortDir = 1
	}

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "submitted_at", Value: sortDir}})

	cursor, err := r.collection.Find(ctx, buildListFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer cursor.Close(ctx)

	var applications []*model.Application
	if err = cursor.All(ctx, &applications); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}

	return applications, nil
}

func (r *mongoApplicationRepository) Count(ctx context.Context, filter model.ApplicationFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildListFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}

	return count, nil
}

// activeStatuses are the statuses that consume quota.
var activeStatuses = []string{model.StatusPending, model.StatusApproved}

func (r *mongoApplicationRepository) sumActive(ctx context.Context, match bson.M) (int, error) {
	match["status"] = bson.M{"$in": activeStatuses}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$quantity"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate application quantities: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode aggregation result: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}

	return results[0].Total, nil
}

func (r *mongoApplicationRepository) SumActiveByAllocation(ctx context.Context, allocationID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.sumActive(ctx, bson.M{"allocation_id": allocationID})
}

func (r *mongoApplicationRepository) SumActiveByAllocationForBusiness(ctx context.Context, allocationID, businessID string) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.sumActive(ctx, bson.M{
		"allocation_id": allocationID,
		"business_id":   businessID,
	})
}

func (r *mongoApplicationRepository) SumActiveByAllocations(ctx context.Context, allocationIDs []string) (map[string]int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"allocation_id": bson.M{"$in": allocationIDs},
			"status":        bson.M{"$in": activeStatuses},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$allocation_id",
			"total": bson.M{"$sum": "$quantity"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate application quantities: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		AllocationID string `bson:"_id"`
		Total        int    `bson:"total"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode aggregation results: %w", err)
	}

	consumed := make(map[string]int, len(results))
	for _, result := range results {
		consumed[result.AllocationID] = result.Total
	}

	return consumed, nil
}

func (r *mongoApplicationRepository) ExistsActive(ctx context.Context, allocationID, businessID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"allocation_id": allocationID,
		"business_id":   businessID,
		"status":        bson.M{"$in": activeStatuses},
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check for active application: %w", err)
	}

	return count > 0, nil
}

// UpdateStatusIf flips the status only when the current status is one
// of fromStatuses. Reports whether a document transitioned; the filter
// is the optimistic-concurrency guard against double processing.
func (r *mongoApplicationRepository) UpdateStatusIf(ctx context.Context, id string, fromStatuses []string, toStatus string, reason string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", applicationserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": fromStatuses},
	}

	set := bson.M{
		"status":     toStatus,
		"decided_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	update := bson.M{"$set": set}

	if toStatus == model.StatusRejected && reason != "" {
		set["rejection_reason"] = reason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update application status: %w", err)
	}

	return result.ModifiedCount > 0, nil
}

// CancelActiveByEvent soft-cancels every quota-consuming application of
// an event. Runs inside the event-cancellation transaction.
func (r *mongoApplicationRepository) CancelActiveByEvent(ctx context.Context, eventID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"event_id": eventID,
		"status":   bson.M{"$in": activeStatuses},
	}

	update := bson.M{
		"$set": bson.M{
			"status":     model.StatusCancelled,
			"decided_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel applications for event [%s]: %w", eventID, err)
	}

	return result.ModifiedCount, nil
}

func (r *mongoApplicationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

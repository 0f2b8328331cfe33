package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoScheduleRepository struct {
	collection *mongo.Collection
	clock      domain.Clock
}

func NewMongoScheduleRepository(db *mongo.Database, clock domain.Clock) *MongoScheduleRepository {
	coll := db.Collection("workout_schedules")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// One live entry per (user, date). $in in a partial filter needs MongoDB 6.0+.
	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status": bson.M{"$in": domain.LiveScheduleStatuses},
			}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "catalog_item_id", Value: 1}, {Key: "date", Value: 1}}},
	})

	return &MongoScheduleRepository{
		collection: coll,
		clock:      orSystemClock(clock),
	}
}

func (r *MongoScheduleRepository) UpsertForDay(ctx context.Context, entry *domain.ScheduleEntry) (*domain.ScheduleEntry, error) {
	stamp(r.clock, &entry.CreatedAt, &entry.UpdatedAt)
	day := entry.Date

	filter := bson.M{
		"user_id": entry.UserID,
		"date":    day,
		"status":  bson.M{"$in": domain.LiveScheduleStatuses},
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"plan_id":         entry.PlanID,
			"catalog_item_id": entry.CatalogItemID,
			"week":            entry.Week,
			"day":             entry.Day,
			"status":          domain.ScheduleScheduled,
			"target_steps":    entry.TargetSteps,
			"actual_steps":    0,
			"created_at":      entry.CreatedAt,
			"updated_at":      entry.UpdatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.ScheduleEntry
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost an insert race; the winner holds the slot.
			return r.FindForDay(ctx, entry.UserID, day)
		}
		return nil, fmt.Errorf("failed to upsert schedule entry: %w", err)
	}
	return &stored, nil
}

func (r *MongoScheduleRepository) FindForDay(ctx context.Context, userID string, day time.Time) (*domain.ScheduleEntry, error) {
	return r.findOne(ctx, bson.M{
		"user_id": userID,
		"date":    day,
		"status":  bson.M{"$in": domain.LiveScheduleStatuses},
	})
}

func (r *MongoScheduleRepository) FindForDayAndItem(ctx context.Context, userID, catalogItemID string, day time.Time) (*domain.ScheduleEntry, error) {
	return r.findOne(ctx, bson.M{
		"user_id":         userID,
		"catalog_item_id": catalogItemID,
		"date":            day,
		"status":          bson.M{"$in": domain.LiveScheduleStatuses},
	})
}

func (r *MongoScheduleRepository) findOne(ctx context.Context, filter bson.M) (*domain.ScheduleEntry, error) {
	var entry domain.ScheduleEntry
	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrScheduleEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *MongoScheduleRepository) List(ctx context.Context, userID string, f domain.ScheduleFilter) ([]*domain.ScheduleEntry, error) {
	filter := bson.M{"user_id": userID}
	dateRange := bson.M{}
	if !f.From.IsZero() {
		dateRange["$gte"] = f.From
	}
	if !f.To.IsZero() {
		dateRange["$lte"] = f.To
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*domain.ScheduleEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoScheduleRepository) UpdateStatus(ctx context.Context, id string, status domain.ScheduleStatus) error {
	return r.updateByID(ctx, id, bson.M{
		"status":     status,
		"updated_at": r.clock.Now(),
	})
}

func (r *MongoScheduleRepository) MarkCompleted(ctx context.Context, id, sessionID string, actualSteps int) error {
	return r.updateByID(ctx, id, bson.M{
		"status":               domain.ScheduleCompleted,
		"completed_session_id": sessionID,
		"actual_steps":         actualSteps,
		"updated_at":           r.clock.Now(),
	})
}

func (r *MongoScheduleRepository) updateByID(ctx context.Context, id string, set bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrScheduleEntryNotFound
	}
	return nil
}

func (r *MongoScheduleRepository) CancelScheduledFrom(ctx context.Context, userID string, from time.Time, reason string) (int64, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.ScheduleScheduled,
		"date":    bson.M{"$gte": from},
	}
	update := bson.M{
		"$set": bson.M{
			"status":              domain.ScheduleCancelled,
			"cancellation_reason": reason,
			"updated_at":          r.clock.Now(),
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel schedule entries: %w", err)
	}
	return result.ModifiedCount, nil
}

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

type MongoDailyResolutionRepository struct {
	collection *mongo.Collection
	clock      domain.Clock
}

func NewMongoDailyResolutionRepository(db *mongo.Database, clock domain.Clock) *MongoDailyResolutionRepository {
	coll := db.Collection("daily_workouts")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	})

	return &MongoDailyResolutionRepository{
		collection: coll,
		clock:      orSystemClock(clock),
	}
}

func (r *MongoDailyResolutionRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*domain.DailyResolution, error) {
	var res domain.DailyResolution
	err := r.collection.FindOne(ctx, dayKey(userID, date)).Decode(&res)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrDailyResolutionNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *MongoDailyResolutionRepository) Upsert(ctx context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	stamp(r.clock, &res.CreatedAt, &res.UpdatedAt)
	onInsert := bson.M{
		"completed":  res.Completed,
		"created_at": res.CreatedAt,
	}
	if res.CompletedSessionID != "" {
		onInsert["completed_session_id"] = res.CompletedSessionID
	}
	if res.ActiveSessionID != "" {
		onInsert["active_session_id"] = res.ActiveSessionID
	}

	update := bson.M{
		"$set": bson.M{
			"catalog_item_id":   res.CatalogItemID,
			"schedule_entry_id": res.ScheduleEntryID,
			"target_steps":      res.TargetSteps,
			"updated_at":        res.UpdatedAt,
		},
		"$setOnInsert": onInsert,
	}
	return r.upsert(ctx, res.UserID, res.Date, update)
}

func (r *MongoDailyResolutionRepository) InsertIfAbsent(ctx context.Context, res *domain.DailyResolution) (*domain.DailyResolution, error) {
	stamp(r.clock, &res.CreatedAt, &res.UpdatedAt)
	onInsert := bson.M{
		"catalog_item_id":   res.CatalogItemID,
		"schedule_entry_id": res.ScheduleEntryID,
		"target_steps":      res.TargetSteps,
		"completed":         res.Completed,
		"created_at":        res.CreatedAt,
		"updated_at":        res.UpdatedAt,
	}
	if res.CompletedSessionID != "" {
		onInsert["completed_session_id"] = res.CompletedSessionID
	}
	if res.ActiveSessionID != "" {
		onInsert["active_session_id"] = res.ActiveSessionID
	}
	return r.upsert(ctx, res.UserID, res.Date, bson.M{"$setOnInsert": onInsert})
}

// upsert applies update to the (user, date) record, creating it if needed.
// A duplicate key means a concurrent insert won, so the update is retried
// once against the now-existing record.
func (r *MongoDailyResolutionRepository) upsert(ctx context.Context, userID string, date time.Time, update bson.M) (*domain.DailyResolution, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.DailyResolution
	err := r.collection.FindOneAndUpdate(ctx, dayKey(userID, date), update, opts).Decode(&stored)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOneAndUpdate(ctx, dayKey(userID, date), update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily workout: %w", err)
	}
	return &stored, nil
}

func (r *MongoDailyResolutionRepository) RepairReference(ctx context.Context, id, catalogItemID, scheduleEntryID string) (*domain.DailyResolution, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	update := bson.M{
		"$set": bson.M{
			"catalog_item_id":   catalogItemID,
			"schedule_entry_id": scheduleEntryID,
			"updated_at":        r.clock.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var stored domain.DailyResolution
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&stored)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrDailyResolutionNotFound
		}
		return nil, err
	}
	return &stored, nil
}

func (r *MongoDailyResolutionRepository) SetActiveSession(ctx context.Context, userID string, date time.Time, sessionID string) error {
	return r.updateDay(ctx, userID, date, bson.M{
		"$set": bson.M{
			"active_session_id": sessionID,
			"updated_at":        r.clock.Now(),
		},
	})
}

func (r *MongoDailyResolutionRepository) MarkCompleted(ctx context.Context, userID string, date time.Time, sessionID string) error {
	return r.updateDay(ctx, userID, date, bson.M{
		"$set": bson.M{
			"completed":            true,
			"completed_session_id": sessionID,
			"updated_at":           r.clock.Now(),
		},
		"$unset": bson.M{"active_session_id": ""},
	})
}

func (r *MongoDailyResolutionRepository) updateDay(ctx context.Context, userID string, date time.Time, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, dayKey(userID, date), update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrDailyResolutionNotFound
	}
	return nil
}

func (r *MongoDailyResolutionRepository) List(ctx context.Context, userID string, from, to time.Time) ([]*domain.DailyResolution, error) {
	filter := bson.M{
		"user_id": userID,
		"date": bson.M{
			"$gte": from,
			"$lte": to,
		},
	}
	return r.find(ctx, filter)
}

func (r *MongoDailyResolutionRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.DailyResolution, error) {
	return r.find(ctx, bson.M{"date": date})
}

func (r *MongoDailyResolutionRepository) find(ctx context.Context, filter bson.M) ([]*domain.DailyResolution, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.DailyResolution
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoDailyResolutionRepository) DeleteFrom(ctx context.Context, userID string, from time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": from},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily workouts: %w", err)
	}
	return result.DeletedCount, nil
}

// dayKey expects date to already be a midnight instant.
func dayKey(userID string, date time.Time) bson.M {
	return bson.M{"user_id": userID, "date": date}
}

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

type MongoWorkoutSessionRepository struct {
	collection *mongo.Collection
	clock      domain.Clock
}

func NewMongoWorkoutSessionRepository(db *mongo.Database, clock domain.Clock) *MongoWorkoutSessionRepository {
	coll := db.Collection("workout_sessions")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "catalog_item_id", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "session_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})

	return &MongoWorkoutSessionRepository{
		collection: coll,
		clock:      orSystemClock(clock),
	}
}

func (r *MongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) error {
	stamp(r.clock, &session.CreatedAt, &session.UpdatedAt)

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *MongoWorkoutSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var session domain.WorkoutSession
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// SaveCompletion only matches sessions still in progress so two racing
// completions cannot both succeed.
func (r *MongoWorkoutSessionRepository) SaveCompletion(ctx context.Context, session *domain.WorkoutSession) error {
	oid, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	stamp(r.clock, nil, &session.UpdatedAt)

	update := bson.M{
		"$set": bson.M{
			"status":           session.Status,
			"end_time":         session.EndTime,
			"duration_seconds": session.DurationSeconds,
			"metrics":          session.Metrics,
			"updated_at":       session.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": domain.SessionInProgress}, update)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionAlreadyCompleted
	}
	return nil
}

// SaveProgress writes running metrics. Like SaveCompletion it only matches
// sessions still in progress.
func (r *MongoWorkoutSessionRepository) SaveProgress(ctx context.Context, session *domain.WorkoutSession) error {
	oid, err := primitive.ObjectIDFromHex(session.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	stamp(r.clock, nil, &session.UpdatedAt)

	update := bson.M{
		"$set": bson.M{
			"metrics":    session.Metrics,
			"updated_at": session.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": domain.SessionInProgress}, update)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionAlreadyCompleted
	}
	return nil
}

func (r *MongoWorkoutSessionRepository) FindActive(ctx context.Context, userID, catalogItemID string) (*domain.WorkoutSession, error) {
	filter := bson.M{
		"user_id":         userID,
		"catalog_item_id": catalogItemID,
		"status":          domain.SessionInProgress,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: -1}})

	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *MongoWorkoutSessionRepository) List(ctx context.Context, userID string, f domain.SessionFilter) ([]*domain.WorkoutSession, int64, error) {
	filter := bson.M{"user_id": userID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	startRange := bson.M{}
	if !f.From.IsZero() {
		startRange["$gte"] = f.From
	}
	if !f.To.IsZero() {
		startRange["$lte"] = f.To
	}
	if len(startRange) > 0 {
		filter["start_time"] = startRange
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	sessions := []*domain.WorkoutSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *MongoWorkoutSessionRepository) SetRouteArchive(ctx context.Context, id, url string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{
			"route_archive_url": url,
			"updated_at":        r.clock.Now(),
		},
	})
	return err
}

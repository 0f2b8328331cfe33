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

type MongoChallengeRepository struct {
	collection *mongo.Collection
}

func NewMongoChallengeRepository(db *mongo.Database) *MongoChallengeRepository {
	coll := db.Collection("challenges")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoChallengeRepository{
		collection: coll,
	}
}

func (r *MongoChallengeRepository) Create(ctx context.Context, def *domain.ChallengeDefinition) error {
	def.CreatedAt = time.Now()
	def.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, def)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateChallenge
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		def.ID = oid.Hex()
	}
	return nil
}

func (r *MongoChallengeRepository) GetByKey(ctx context.Context, key string) (*domain.ChallengeDefinition, error) {
	var def domain.ChallengeDefinition
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&def)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, err
	}
	return &def, nil
}

func (r *MongoChallengeRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.ChallengeDefinition, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.ChallengeDefinition{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *MongoChallengeRepository) ListActive(ctx context.Context) ([]*domain.ChallengeDefinition, error) {
	return r.find(ctx, bson.M{"is_active": true})
}

func (r *MongoChallengeRepository) find(ctx context.Context, filter bson.M) ([]*domain.ChallengeDefinition, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "duration_days", Value: 1}, {Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	defs := []*domain.ChallengeDefinition{}
	if err := cursor.All(ctx, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

type MongoEnrollmentRepository struct {
	collection *mongo.Collection
}

func NewMongoEnrollmentRepository(db *mongo.Database) *MongoEnrollmentRepository {
	coll := db.Collection("user_challenges")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// At most one active enrollment per (user, challenge).
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "challenge_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status": domain.EnrollmentActive,
			}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	})

	return &MongoEnrollmentRepository{
		collection: coll,
	}
}

func (r *MongoEnrollmentRepository) Create(ctx context.Context, e *domain.ChallengeEnrollment) error {
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, e)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyEnrolled
		}
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid.Hex()
	}
	return nil
}

func (r *MongoEnrollmentRepository) GetActive(ctx context.Context, userID, challengeID string) (*domain.ChallengeEnrollment, error) {
	return r.findOne(ctx, bson.M{
		"user_id":      userID,
		"challenge_id": challengeID,
		"status":       domain.EnrollmentActive,
	})
}

func (r *MongoEnrollmentRepository) GetLatest(ctx context.Context, userID, challengeID string) (*domain.ChallengeEnrollment, error) {
	return r.findOne(ctx, bson.M{
		"user_id":      userID,
		"challenge_id": challengeID,
	})
}

func (r *MongoEnrollmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.ChallengeEnrollment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var e domain.ChallengeEnrollment
	err := r.collection.FindOne(ctx, filter, opts).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *MongoEnrollmentRepository) ListByUser(ctx context.Context, userID string, status domain.EnrollmentStatus) ([]*domain.ChallengeEnrollment, error) {
	filter := bson.M{"user_id": userID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*domain.ChallengeEnrollment{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoEnrollmentRepository) Save(ctx context.Context, e *domain.ChallengeEnrollment) error {
	oid, err := primitive.ObjectIDFromHex(e.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	e.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"daily_progress":        e.DailyProgress,
			"total_progress":        e.TotalProgress,
			"completion_percentage": e.CompletionPercentage,
			"status":                e.Status,
			"completed_at":          e.CompletedAt,
			"updated_at":            e.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrEnrollmentNotFound
	}
	return nil
}

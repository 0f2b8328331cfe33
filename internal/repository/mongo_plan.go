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

type MongoPlanRepository struct {
	collection *mongo.Collection
	clock      domain.Clock
}

func NewMongoPlanRepository(db *mongo.Database, clock domain.Clock) *MongoPlanRepository {
	coll := db.Collection("personalized_plans")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "end_date", Value: -1}}},
	})

	return &MongoPlanRepository{
		collection: coll,
		clock:      orSystemClock(clock),
	}
}

func (r *MongoPlanRepository) Create(ctx context.Context, plan *domain.PersonalizedPlan) error {
	stamp(r.clock, &plan.CreatedAt, &plan.UpdatedAt)

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePlan
		}
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		plan.ID = oid.Hex()
	}
	return nil
}

func (r *MongoPlanRepository) GetActiveByUser(ctx context.Context, userID string, today time.Time) (*domain.PersonalizedPlan, error) {
	filter := bson.M{
		"user_id":  userID,
		"end_date": bson.M{"$gte": today},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_date", Value: -1}})

	var plan domain.PersonalizedPlan
	err := r.collection.FindOne(ctx, filter, opts).Decode(&plan)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *MongoPlanRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

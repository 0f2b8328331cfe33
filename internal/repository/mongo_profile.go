package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	coll := db.Collection("user_profiles")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoProfileRepository{
		collection: coll,
	}
}

func (r *MongoProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *MongoProfileRepository) Upsert(ctx context.Context, profile *domain.UserProfile) (bool, error) {
	now := time.Now()
	profile.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"fitness_goals":         profile.FitnessGoals,
			"fitness_level":         profile.FitnessLevel,
			"daily_walking_time":    profile.DailyWalkingTime,
			"step_goal":             profile.StepGoal,
			"current_weight":        profile.CurrentWeight,
			"target_weight":         profile.TargetWeight,
			"height":                profile.Height,
			"body_parts_to_tone_up": profile.BodyPartsToToneUp,
			"focus_areas":           profile.FocusAreas,
			"bmi":                   profile.BMI,
			"bmi_category":          profile.BMICategory,
			"updated_at":            now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"user_id": profile.UserID}, update, opts).Err()
	created := err == mongo.ErrNoDocuments
	if err != nil && !created {
		return false, fmt.Errorf("failed to upsert profile: %w", err)
	}

	stored, err := r.GetByUserID(ctx, profile.UserID)
	if err != nil {
		return false, err
	}
	*profile = *stored
	return created, nil
}

func (r *MongoProfileRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

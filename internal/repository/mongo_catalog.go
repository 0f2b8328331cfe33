package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/mansoorceksport/stride/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	coll := db.Collection("workouts")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "intensity", Value: 1}, {Key: "category", Value: 1}}},
	})

	return &MongoCatalogRepository{
		collection: coll,
	}
}

func (r *MongoCatalogRepository) Create(ctx context.Context, item *domain.WorkoutCatalogItem) error {
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCatalogItem
		}
		return fmt.Errorf("failed to create workout: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		item.ID = oid.Hex()
	}
	return nil
}

func (r *MongoCatalogRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutCatalogItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var item domain.WorkoutCatalogItem
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// GetByIDs skips ids that are malformed or missing.
func (r *MongoCatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.WorkoutCatalogItem, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*domain.WorkoutCatalogItem{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.WorkoutCatalogItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoCatalogRepository) FindByName(ctx context.Context, name string) (*domain.WorkoutCatalogItem, error) {
	pattern := "^" + regexp.QuoteMeta(name) + "$"

	var item domain.WorkoutCatalogItem
	err := r.collection.FindOne(ctx, bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *MongoCatalogRepository) Find(ctx context.Context, filter domain.CatalogFilter) ([]*domain.WorkoutCatalogItem, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Intensity != "" {
		query["intensity"] = filter.Intensity
	}
	if len(filter.Categories) > 0 {
		query["category"] = bson.M{"$in": filter.Categories}
	}

	// Stable order keeps round-robin distribution reproducible.
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.WorkoutCatalogItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoCatalogRepository) Update(ctx context.Context, item *domain.WorkoutCatalogItem) error {
	oid, err := primitive.ObjectIDFromHex(item.ID)
	if err != nil {
		return domain.ErrInvalidID
	}
	item.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":               item.Name,
			"description":        item.Description,
			"type":               item.Type,
			"category":           item.Category,
			"intensity":          item.Intensity,
			"duration":           item.Duration,
			"calories_burned":    item.CaloriesBurned,
			"target_distance_km": item.TargetDistanceKm,
			"instructions":       item.Instructions,
			"updated_at":         item.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCatalogItem
		}
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrCatalogItemNotFound
	}
	return nil
}

// objectIDs converts hex ids, dropping any that do not parse.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoTimeout = 5 * time.Second

type mongoActivityRepo struct {
	col *mongo.Collection
}

func NewMongoActivityRepository(col *mongo.Collection) ActivityRepository {
	return &mongoActivityRepo{col: col}
}

// EnsureActivityIndexes creates the unique index on the client-generated id.
func EnsureActivityIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *mongoActivityRepo) GetAll(ctx context.Context) ([]Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer cur.Close(ctx)

	out := []Activity{}
	for cur.Next(ctx) {
		var a Activity
		if err := cur.Decode(&a); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = append(out, a)
	}
	return out, cur.Err()
}

func (r *mongoActivityRepo) GetByID(ctx context.Context, id string) (Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	var a Activity
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, err
	}
	return a, nil
}

func (r *mongoActivityRepo) Create(ctx context.Context, a *Activity) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *mongoActivityRepo) Update(ctx context.Context, a *Activity) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"id": a.ID}, bson.M{"$set": a})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoActivityRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

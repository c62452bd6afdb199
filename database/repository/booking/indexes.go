package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the lookup and overlap-scan indexes. The unique
// id index backs FindByID; the compound index covers the clash re-check
// and day queries.
func (repo *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "salon_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "client_id", Value: 1}},
		},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	// The unique constraint makes two first-ever creates for a day race on
	// the same upsert instead of inserting two revision documents.
	dayIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "salon_id", Value: 1},
			{Key: "date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.days.Indexes().CreateOne(ctx, dayIndex); err != nil {
		return fmt.Errorf("failed to create day revision index: %w", err)
	}
	return nil
}

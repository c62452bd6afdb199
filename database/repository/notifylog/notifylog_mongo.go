package notifylogRepo

import (
	"context"
	"fmt"

	"salonbook/database"
	"salonbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationLogRepo stores dispatch outcomes in mongo.
type MongoNotificationLogRepo struct {
	coll *mongo.Collection
}

func NewMongoNotificationLogRepo() *MongoNotificationLogRepo {
	return &MongoNotificationLogRepo{
		coll: database.DB().Collection("notification_log"),
	}
}

func (repo *MongoNotificationLogRepo) Append(ctx context.Context, entry models.NotificationLogEntry) error {
	if _, err := repo.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append notification log entry: %w", err)
	}
	return nil
}

func (repo *MongoNotificationLogRepo) FindByBooking(ctx context.Context, bookingID string) ([]models.NotificationLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := repo.coll.Find(ctx, bson.M{"booking_id": bookingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("notification log query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.NotificationLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding notification log entries: %w", err)
	}
	return entries, nil
}

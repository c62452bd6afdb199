package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonbook/database"
	"salonbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo is the MongoDB-backed booking store. The days
// collection holds one revision document per (salon, date); every create
// bumps it inside the insert transaction to serialize concurrent creates
// for the same day.
type MongoBookingRepo struct {
	coll *mongo.Collection
	days *mongo.Collection
}

func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{
		coll: database.DB().Collection("bookings"),
		days: database.DB().Collection("booking_days"),
	}
}

// blockingStatusFilter matches bookings that still occupy their interval.
func blockingStatusFilter() bson.M {
	return bson.M{"$nin": bson.A{models.StatusCancelled, models.StatusNoShow}}
}

// overlapFilter matches blocking bookings whose half-open [start, end)
// interval intersects the given one.
func overlapFilter(salonID, staffID, date string, start, end int) bson.M {
	filter := bson.M{
		"salon_id": salonID,
		"date":     date,
		"start":    bson.M{"$lt": end},
		"end":      bson.M{"$gt": start},
		"status":   blockingStatusFilter(),
	}
	if staffID != "" {
		filter["staff_id"] = staffID
	}
	return filter
}

// dayRevisionFilter identifies the shared per-(salon, date) document that
// concurrent creates contend on.
func dayRevisionFilter(salonID, date string) bson.M {
	return bson.M{"salon_id": salonID, "date": date}
}

func (repo *MongoBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking %s: %w", id, err)
	}
	return &booking, nil
}

func (repo *MongoBookingRepo) FindOverlapping(ctx context.Context, salonID, staffID, date string, start, end int) ([]models.Booking, error) {
	cursor, err := repo.coll.Find(ctx, overlapFilter(salonID, staffID, date, start, end))
	if err != nil {
		return nil, fmt.Errorf("overlap query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding overlap results: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) FindBlocking(ctx context.Context, salonID, date string) ([]models.Booking, error) {
	filter := bson.M{
		"salon_id": salonID,
		"date":     date,
		"status":   blockingStatusFilter(),
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("blocking bookings query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding blocking bookings: %w", err)
	}
	return bookings, nil
}

// ConditionalInsert re-checks for overlap and inserts inside one mongo
// transaction. Snapshot isolation alone is not enough: two transactions
// inserting distinct documents never touch the same document, so both
// would pass the count check and commit. Bumping the shared day revision
// document first makes concurrent creates for the same salon day write
// the same document; the loser's transaction aborts with a write
// conflict and WithTransaction retries it against the winner's committed
// booking, where the count check then reports the clash.
func (repo *MongoBookingRepo) ConditionalInsert(ctx context.Context, booking *models.Booking) error {
	client := repo.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := repo.days.UpdateOne(sc,
			dayRevisionFilter(booking.SalonID, booking.Date),
			bson.M{"$inc": bson.M{"revision": 1}},
			options.Update().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("day revision bump failed: %w", err)
		}

		count, err := repo.coll.CountDocuments(sc,
			overlapFilter(booking.SalonID, booking.StaffID, booking.Date, booking.Start, booking.End))
		if err != nil {
			return nil, fmt.Errorf("clash re-check failed: %w", err)
		}
		if count > 0 {
			return nil, ErrSlotTaken
		}

		if _, err := repo.coll.InsertOne(sc, booking); err != nil {
			return nil, fmt.Errorf("insert booking failed: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return ErrSlotTaken
		}
		return fmt.Errorf("booking insert transaction failed: %w", err)
	}
	return nil
}

func (repo *MongoBookingRepo) UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, set map[string]any) (*models.Booking, error) {
	allowed := bson.A{}
	for _, s := range from {
		allowed = append(allowed, s)
	}
	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": allowed},
	}

	fields := bson.M{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range set {
		fields[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing booking from an illegal source status.
		if _, ferr := repo.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update booking %s status: %w", id, err)
	}
	return &updated, nil
}

func (repo *MongoBookingRepo) AttachCalendarEventID(ctx context.Context, id, eventID string) (*models.Booking, error) {
	filter := bson.M{
		"id": id,
		"$or": bson.A{
			bson.M{"calendar_event_id": bson.M{"$exists": false}},
			bson.M{"calendar_event_id": ""},
			bson.M{"calendar_event_id": eventID},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"calendar_event_id": eventID,
			"updated_at":        time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		if _, ferr := repo.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		// A different calendar event id is already attached; the field is
		// written exactly once, so keep the existing value.
		return repo.FindByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to attach calendar event id to %s: %w", id, err)
	}
	return &updated, nil
}

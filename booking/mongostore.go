package booking

import (
	"context"
	"log"
	"time"

	"nesta/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var activeStatuses = bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}}

// MongoStore implements Store on a MongoDB collection. Uniqueness of active
// bookings is pushed into the store: activeKey and holdKey each carry a
// unique sparse index, so a second concurrent insert for the same slot or
// the same user/building pair fails atomically with a duplicate key error.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique sparse booking-key indexes. Call once at
// startup; logs and continues if the store is unreachable so the process can
// still boot for readonly traffic.
func (m *MongoStore) EnsureIndexes(ctx context.Context) {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "activeKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "holdKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "buildingId", Value: 1}, {Key: "date", Value: 1}},
		},
	})
	if err != nil {
		log.Printf("booking index creation failed: %v", err)
	}
}

func (m *MongoStore) BookingsForDay(ctx context.Context, buildingID string, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := m.coll.Find(ctx, bson.M{
		"buildingId": buildingID,
		"date":       bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, &StoreError{Op: "decode", Err: err}
	}
	return bookings, nil
}

func (m *MongoStore) ActiveForUser(ctx context.Context, userID, buildingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := m.coll.FindOne(ctx, bson.M{
		"userId":     userID,
		"buildingId": buildingID,
		"status":     activeStatuses,
	}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "findOne", Err: err}
	}
	return &b, nil
}

func (m *MongoStore) Insert(ctx context.Context, b *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := m.coll.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return &StoreError{Op: "insert", Err: err}
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := m.coll.FindOne(ctx, bson.M{"bookingid": bookingID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StoreError{Op: "findOne", Err: err}
	}
	return &b, nil
}

func (m *MongoStore) SetStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"status": status}}
	if status == models.BookingCancelled {
		// Release the unique keys so the slot and the user's hold free up.
		update["$unset"] = bson.M{"activeKey": "", "holdKey": ""}
	}

	res := m.coll.FindOneAndUpdate(ctx,
		bson.M{"bookingid": bookingID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Booking
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "update", Err: err}
	}
	return &updated, nil
}

func (m *MongoStore) ByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return m.list(ctx, bson.M{"userId": userID})
}

func (m *MongoStore) BySeller(ctx context.Context, sellerID string) ([]models.Booking, error) {
	return m.list(ctx, bson.M{"sellerId": sellerID})
}

func (m *MongoStore) LatestLiveTour(ctx context.Context, buildingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var b models.Booking
	err := m.coll.FindOne(ctx, bson.M{
		"buildingId":   buildingID,
		"booking_type": models.BookingLiveTour,
		"status":       activeStatuses,
	}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "findOne", Err: err}
	}
	return &b, nil
}

func (m *MongoStore) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cur, err := m.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	defer cur.Close(ctx)

	var bookings []models.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, &StoreError{Op: "decode", Err: err}
	}
	return bookings, nil
}

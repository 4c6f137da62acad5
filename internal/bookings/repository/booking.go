package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"appointly/internal/authz"
	bookingserrors "appointly/internal/bookings/errors"
	"appointly/pkg/config"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Booking, error)
	FindAll(ctx context.Context, scope authz.Scope, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, scope authz.Scope, filter model.BookingFilter) (int64, error)
	UpdateStatus(ctx context.Context, scope authz.Scope, id string, status model.BookingStatus) error
	Reschedule(ctx context.Context, scope authz.Scope, id string, date time.Time, startTime string, record *model.RescheduleRecord) error
	Cancel(ctx context.Context, scope authz.Scope, id string, cancellation *model.Cancellation) error
	SetFeedback(ctx context.Context, scope authz.Scope, id string, feedback *model.Feedback) error
	RatingForService(ctx context.Context, serviceID string) (model.RatingSummary, error)
	RatingForProvider(ctx context.Context, providerID string) (model.RatingSummary, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, scope.Filter(bson.M{"_id": objectID})).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func listFilter(scope authz.Scope, filter model.BookingFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ServiceID != "" {
		query["service_id"] = filter.ServiceID
	}
	if filter.ProviderID != "" {
		query["provider_id"] = filter.ProviderID
	}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.From != nil || filter.To != nil {
		date := bson.M{}
		if filter.From != nil {
			date["$gte"] = *filter.From
		}
		if filter.To != nil {
			date["$lte"] = *filter.To
		}
		query["appointment_date"] = date
	}
	return scope.Filter(query)
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, scope authz.Scope, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "appointment_date", Value: 1}, {Key: "start_time", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, listFilter(scope, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) Count(ctx context.Context, scope authz.Scope, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(scope, filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, scope authz.Scope, id string, status model.BookingStatus) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"status": status,
	})
}

// Reschedule moves the appointment and stores record, which describes the slot being left.
func (r *mongoBookingRepository) Reschedule(ctx context.Context, scope authz.Scope, id string, date time.Time, startTime string, record *model.RescheduleRecord) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"appointment_date": date,
		"start_time":       startTime,
		"reschedule":       record,
	})
}

func (r *mongoBookingRepository) Cancel(ctx context.Context, scope authz.Scope, id string, cancellation *model.Cancellation) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"status":       model.StatusCancelled,
		"cancellation": cancellation,
	})
}

func (r *mongoBookingRepository) SetFeedback(ctx context.Context, scope authz.Scope, id string, feedback *model.Feedback) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"feedback": feedback,
	})
}

func (r *mongoBookingRepository) RatingForService(ctx context.Context, serviceID string) (model.RatingSummary, error) {
	return r.rating(ctx, "service_id", serviceID)
}

func (r *mongoBookingRepository) RatingForProvider(ctx context.Context, providerID string) (model.RatingSummary, error) {
	return r.rating(ctx, "provider_id", providerID)
}

// rating averages the feedback left on every booking whose field equals value.
func (r *mongoBookingRepository) rating(ctx context.Context, field, value string) (model.RatingSummary, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: value, "feedback.rating": bson.M{"$gte": 1}}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$feedback.rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var results []model.RatingSummary
	if err := cursor.All(ctx, &results); err != nil {
		return model.RatingSummary{}, fmt.Errorf("failed to decode ratings: %w", err)
	}
	if len(results) == 0 {
		return model.RatingSummary{}, nil
	}

	summary := results[0]
	summary.Average = math.Round(summary.Average*100) / 100
	return summary, nil
}

func (r *mongoBookingRepository) updateOne(ctx context.Context, scope authz.Scope, id string, set bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, scope.Filter(bson.M{"_id": objectID}), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

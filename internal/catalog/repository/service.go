package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/internal/authz"
	catalogerrors "appointly/internal/catalog/errors"
	"appointly/pkg/config"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Services"
)

type ServiceRepository interface {
	Create(ctx context.Context, service *model.Service) error
	FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Service, error)
	FindAll(ctx context.Context, scope authz.Scope, filter model.ServiceFilter, limit int, offset int64) ([]*model.Service, error)
	Count(ctx context.Context, scope authz.Scope, filter model.ServiceFilter) (int64, error)
	CountByIDs(ctx context.Context, scope authz.Scope, ids []string) (int64, error)
	Update(ctx context.Context, scope authz.Scope, id string, service *model.Service) error
	SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error
	SetProviders(ctx context.Context, scope authz.Scope, id string, providerIDs []string) error
	AddProvider(ctx context.Context, scope authz.Scope, ids []string, providerID string) error
	RemoveProvider(ctx context.Context, scope authz.Scope, ids []string, providerID string) error
	IncrementBookings(ctx context.Context, id string) error
	AddRevenue(ctx context.Context, id string, amount float64) error
	UpdateRating(ctx context.Context, id string, rating model.RatingSummary) error
}

type mongoServiceRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoServiceRepository(cfg *config.Config) ServiceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoServiceRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoServiceRepository) Create(ctx context.Context, service *model.Service) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	service.CreatedAt = now
	service.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, service)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		service.ID = oid.Hex()
	}
	return nil
}

func (r *mongoServiceRepository) FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Service, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	var service model.Service
	err = r.collection.FindOne(ctx, scope.Filter(bson.M{"_id": objectID})).Decode(&service)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find service: %w", err)
	}
	return &service, nil
}

func listFilter(scope authz.Scope, filter model.ServiceFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.ProviderID != "" {
		query["providers"] = filter.ProviderID
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	return scope.Filter(query)
}

func (r *mongoServiceRepository) FindAll(ctx context.Context, scope authz.Scope, filter model.ServiceFilter, limit int, offset int64) ([]*model.Service, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, listFilter(scope, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find services: %w", err)
	}
	defer cursor.Close(ctx)

	var services []*model.Service
	if err = cursor.All(ctx, &services); err != nil {
		return nil, fmt.Errorf("failed to decode services: %w", err)
	}
	return services, nil
}

func (r *mongoServiceRepository) Count(ctx context.Context, scope authz.Scope, filter model.ServiceFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(scope, filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

// CountByIDs counts how many of ids are active services visible in scope.
func (r *mongoServiceRepository) CountByIDs(ctx context.Context, scope authz.Scope, ids []string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter, err := idsFilter(scope, ids)
	if err != nil {
		return 0, err
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}
	return count, nil
}

func (r *mongoServiceRepository) Update(ctx context.Context, scope authz.Scope, id string, service *model.Service) error {
	return r.updateOne(ctx, scope, id, bson.M{"$set": bson.M{
		"name":        service.Name,
		"description": service.Description,
		"category":    service.Category,
		"duration":    service.Duration,
		"pricing":     service.Pricing,
		"variations":  service.Variations,
		"policy":      service.Policy,
		"is_active":   service.IsActive,
		"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
	}})
}

func (r *mongoServiceRepository) SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error {
	return r.updateOne(ctx, scope, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}})
}

// SetProviders replaces the provider set in a single write.
func (r *mongoServiceRepository) SetProviders(ctx context.Context, scope authz.Scope, id string, providerIDs []string) error {
	return r.updateOne(ctx, scope, id, bson.M{"$set": bson.M{
		"providers":  providerIDs,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}})
}

func (r *mongoServiceRepository) AddProvider(ctx context.Context, scope authz.Scope, ids []string, providerID string) error {
	return r.updateMany(ctx, scope, ids, bson.M{
		"$addToSet": bson.M{"providers": providerID},
		"$set":      bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
}

func (r *mongoServiceRepository) RemoveProvider(ctx context.Context, scope authz.Scope, ids []string, providerID string) error {
	return r.updateMany(ctx, scope, ids, bson.M{
		"$pull": bson.M{"providers": providerID},
		"$set":  bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
}

func (r *mongoServiceRepository) IncrementBookings(ctx context.Context, id string) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"$inc": bson.M{"stats.total_bookings": 1}})
}

func (r *mongoServiceRepository) AddRevenue(ctx context.Context, id string, amount float64) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"$inc": bson.M{"stats.revenue": amount}})
}

func (r *mongoServiceRepository) UpdateRating(ctx context.Context, id string, rating model.RatingSummary) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"$set": bson.M{
		"stats.rating":       rating.Average,
		"stats.rating_count": rating.Count,
	}})
}

func (r *mongoServiceRepository) updateOne(ctx context.Context, scope authz.Scope, id string, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", catalogerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, scope.Filter(bson.M{"_id": objectID}), update)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	if result.MatchedCount == 0 {
		return catalogerrors.ErrNotFound
	}
	return nil
}

func (r *mongoServiceRepository) updateMany(ctx context.Context, scope authz.Scope, ids []string, update bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter, err := idsFilter(scope, ids)
	if err != nil {
		return err
	}
	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update services: %w", err)
	}
	return nil
}

func idsFilter(scope authz.Scope, ids []string) (bson.M, error) {
	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalogerrors.ErrInvalidID, err)
	}
	return scope.Filter(bson.M{"_id": bson.M{"$in": objectIDs}, "is_active": true}), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/internal/authz"
	userserrors "appointly/internal/users/errors"
	"appointly/pkg/config"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Principals"
)

// PrincipalRepository stores admins, providers and customers in one collection keyed by role.
type PrincipalRepository interface {
	Create(ctx context.Context, principal *model.Principal) error
	FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Principal, error)
	FindByIDs(ctx context.Context, scope authz.Scope, ids []string) ([]*model.Principal, error)
	FindByEmail(ctx context.Context, tenantID string, email string) (*model.Principal, error)
	FindAllByEmail(ctx context.Context, email string, limit int) ([]*model.Principal, error)
	FindAll(ctx context.Context, scope authz.Scope, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, error)
	Count(ctx context.Context, scope authz.Scope, filter model.PrincipalFilter) (int64, error)
	ExistsByEmail(ctx context.Context, tenantID string, email string) (bool, error)
	Update(ctx context.Context, scope authz.Scope, id string, principal *model.Principal) error
	UpdateAvailability(ctx context.Context, scope authz.Scope, id string, availability model.Availability) error
	UpdateRating(ctx context.Context, id string, rating model.RatingSummary) error
	SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id string, hash string) error
}

type mongoPrincipalRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoPrincipalRepository(cfg *config.Config) PrincipalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPrincipalRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPrincipalRepository) Create(ctx context.Context, principal *model.Principal) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	principal.CreatedAt = now
	principal.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, principal)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %v", userserrors.ErrDuplicateEmail, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		principal.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPrincipalRepository) FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Principal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, scope.Filter(bson.M{"_id": objectID}))
}

func (r *mongoPrincipalRepository) FindByIDs(ctx context.Context, scope authz.Scope, ids []string) ([]*model.Principal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs, err := mongotx.ObjectIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", userserrors.ErrInvalidID, err)
	}

	cursor, err := r.collection.Find(ctx, scope.Filter(bson.M{"_id": bson.M{"$in": objectIDs}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var principals []*model.Principal
	if err = cursor.All(ctx, &principals); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return principals, nil
}

func (r *mongoPrincipalRepository) FindByEmail(ctx context.Context, tenantID string, email string) (*model.Principal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"tenant_id": tenantID, "email": email})
}

// FindAllByEmail returns up to limit principals sharing email across tenants.
func (r *mongoPrincipalRepository) FindAllByEmail(ctx context.Context, email string, limit int) ([]*model.Principal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"email": email}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to find users by email: %w", err)
	}
	defer cursor.Close(ctx)

	var principals []*model.Principal
	if err = cursor.All(ctx, &principals); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return principals, nil
}

func (r *mongoPrincipalRepository) findOne(ctx context.Context, filter bson.M) (*model.Principal, error) {
	var principal model.Principal
	err := r.collection.FindOne(ctx, filter).Decode(&principal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &principal, nil
}

func listFilter(scope authz.Scope, filter model.PrincipalFilter) bson.M {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.IsActive != nil {
		query["is_active"] = *filter.IsActive
	}
	return scope.Filter(query)
}

func (r *mongoPrincipalRepository) FindAll(ctx context.Context, scope authz.Scope, filter model.PrincipalFilter, limit int, offset int64) ([]*model.Principal, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, listFilter(scope, filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var principals []*model.Principal
	if err = cursor.All(ctx, &principals); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return principals, nil
}

func (r *mongoPrincipalRepository) Count(ctx context.Context, scope authz.Scope, filter model.PrincipalFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, listFilter(scope, filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *mongoPrincipalRepository) ExistsByEmail(ctx context.Context, tenantID string, email string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"tenant_id": tenantID, "email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoPrincipalRepository) Update(ctx context.Context, scope authz.Scope, id string, principal *model.Principal) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"name":       principal.Name,
		"phone":      principal.Phone,
		"address":    principal.Address,
		"provider":   principal.Provider,
		"customer":   principal.Customer,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoPrincipalRepository) UpdateAvailability(ctx context.Context, scope authz.Scope, id string, availability model.Availability) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"provider.availability": availability,
		"updated_at":            time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoPrincipalRepository) UpdateRating(ctx context.Context, id string, rating model.RatingSummary) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"provider.rating": rating})
}

func (r *mongoPrincipalRepository) SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoPrincipalRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"last_login": at.UTC().Truncate(time.Millisecond)})
}

func (r *mongoPrincipalRepository) SetPasswordHash(ctx context.Context, id string, hash string) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoPrincipalRepository) updateOne(ctx context.Context, scope authz.Scope, id string, set bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, scope.Filter(bson.M{"_id": objectID}), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

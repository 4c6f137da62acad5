package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appointly/internal/authz"
	tenantserrors "appointly/internal/tenants/errors"
	"appointly/pkg/config"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Tenants"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) error
	FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Tenant, error)
	FindByEmail(ctx context.Context, email string) (*model.Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, error)
	Count(ctx context.Context) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
	Update(ctx context.Context, scope authz.Scope, id string, tenant *model.Tenant) error
	SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id string, hash string) error
}

type mongoTenantRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoTenantRepository(cfg *config.Config) TenantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTenantRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTenantRepository) Create(ctx context.Context, tenant *model.Tenant) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	result, err := r.collection.InsertOne(ctx, tenant)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return duplicateKeyError(err)
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		tenant.ID = oid.Hex()
	}
	return nil
}

// duplicateKeyError maps a unique-index violation onto the field that collided.
func duplicateKeyError(err error) error {
	if strings.Contains(err.Error(), "subdomain") {
		return fmt.Errorf("%w: %v", tenantserrors.ErrDuplicateSubdomain, err)
	}
	return fmt.Errorf("%w: %v", tenantserrors.ErrDuplicateEmail, err)
}

func (r *mongoTenantRepository) FindByID(ctx context.Context, scope authz.Scope, id string) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}

	return r.findOne(ctx, scope.FilterOn("_id", bson.M{"_id": objectID}))
}

func (r *mongoTenantRepository) FindByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoTenantRepository) FindBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"subdomain": subdomain})
}

func (r *mongoTenantRepository) findOne(ctx context.Context, filter bson.M) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.collection.FindOne(ctx, filter).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tenantserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}
	return &tenant, nil
}

func (r *mongoTenantRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Tenant, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find tenants: %w", err)
	}
	defer cursor.Close(ctx)

	var tenants []*model.Tenant
	if err = cursor.All(ctx, &tenants); err != nil {
		return nil, fmt.Errorf("failed to decode tenants: %w", err)
	}
	return tenants, nil
}

func (r *mongoTenantRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count tenants: %w", err)
	}
	return count, nil
}

func (r *mongoTenantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *mongoTenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	return r.exists(ctx, bson.M{"subdomain": subdomain})
}

func (r *mongoTenantRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check tenant existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoTenantRepository) Update(ctx context.Context, scope authz.Scope, id string, tenant *model.Tenant) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"name":       tenant.Name,
		"phone":      tenant.Phone,
		"business":   tenant.Business,
		"settings":   tenant.Settings,
		"address":    tenant.Address,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoTenantRepository) SetActive(ctx context.Context, scope authz.Scope, id string, active bool) error {
	return r.updateOne(ctx, scope, id, bson.M{
		"is_active":  active,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoTenantRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{"last_login": at.UTC().Truncate(time.Millisecond)})
}

func (r *mongoTenantRepository) SetPasswordHash(ctx context.Context, id string, hash string) error {
	return r.updateOne(ctx, authz.Unscoped(), id, bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	})
}

func (r *mongoTenantRepository) updateOne(ctx context.Context, scope authz.Scope, id string, set bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", tenantserrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, scope.FilterOn("_id", bson.M{"_id": objectID}), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if result.MatchedCount == 0 {
		return tenantserrors.ErrNotFound
	}
	return nil
}

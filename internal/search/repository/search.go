package repository

import (
	"context"
	"fmt"
	"regexp"

	"appointly/internal/authz"
	catalogrepo "appointly/internal/catalog/repository"
	tenantsrepo "appointly/internal/tenants/repository"
	usersrepo "appointly/internal/users/repository"
	"appointly/pkg/config"
	mongotx "appointly/pkg/db/mongo"
	"appointly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// earthRadiusKm converts a radius into the radians $centerSphere expects.
const earthRadiusKm = 6378.1

// SearchRepository runs read-only queries over services, providers and tenants.
type SearchRepository interface {
	FindServices(ctx context.Context, scope authz.Scope, q model.ServiceSearch, limit int, offset int64) ([]*model.Service, error)
	CountServices(ctx context.Context, scope authz.Scope, q model.ServiceSearch) (int64, error)
	FindProviders(ctx context.Context, scope authz.Scope, q model.ProviderSearch, limit int, offset int64) ([]*model.Principal, error)
	CountProviders(ctx context.Context, scope authz.Scope, q model.ProviderSearch) (int64, error)
	FindProvidersNearby(ctx context.Context, scope authz.Scope, q model.NearbySearch, limit int, offset int64) ([]*model.Principal, error)
	CountProvidersNearby(ctx context.Context, scope authz.Scope, q model.NearbySearch) (int64, error)
	FindTenants(ctx context.Context, scope authz.Scope, q model.TenantSearch, limit int, offset int64) ([]*model.Tenant, error)
	CountTenants(ctx context.Context, scope authz.Scope, q model.TenantSearch) (int64, error)
}

type mongoSearchRepository struct {
	cfg        *config.Config
	services   *mongo.Collection
	principals *mongo.Collection
	tenants    *mongo.Collection
}

func NewMongoSearchRepository(cfg *config.Config) SearchRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSearchRepository{
		cfg:        cfg,
		services:   db.Collection(catalogrepo.CollectionName),
		principals: db.Collection(usersrepo.CollectionName),
		tenants:    db.Collection(tenantsrepo.CollectionName),
	}
}

var secretFields = bson.M{
	"password_hash":       0,
	"verification_token":  0,
	"reset_token":         0,
	"reset_token_expires": 0,
}

func (r *mongoSearchRepository) FindServices(ctx context.Context, scope authz.Scope, q model.ServiceSearch, limit int, offset int64) ([]*model.Service, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "stats.rating", Value: -1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return find[model.Service](ctx, r, r.services, "services", ServicesFilter(scope, q), opts)
}

func (r *mongoSearchRepository) CountServices(ctx context.Context, scope authz.Scope, q model.ServiceSearch) (int64, error) {
	return r.count(ctx, r.services, "services", ServicesFilter(scope, q))
}

func (r *mongoSearchRepository) FindProviders(ctx context.Context, scope authz.Scope, q model.ProviderSearch, limit int, offset int64) ([]*model.Principal, error) {
	filter, err := ProvidersFilter(scope, q)
	if err != nil {
		return nil, err
	}
	return find[model.Principal](ctx, r, r.principals, "providers", filter, providerOptions(limit, offset))
}

func (r *mongoSearchRepository) CountProviders(ctx context.Context, scope authz.Scope, q model.ProviderSearch) (int64, error) {
	filter, err := ProvidersFilter(scope, q)
	if err != nil {
		return 0, err
	}
	return r.count(ctx, r.principals, "providers", filter)
}

func (r *mongoSearchRepository) FindProvidersNearby(ctx context.Context, scope authz.Scope, q model.NearbySearch, limit int, offset int64) ([]*model.Principal, error) {
	return find[model.Principal](ctx, r, r.principals, "providers", NearbyFilter(scope, q), providerOptions(limit, offset))
}

func (r *mongoSearchRepository) CountProvidersNearby(ctx context.Context, scope authz.Scope, q model.NearbySearch) (int64, error) {
	return r.count(ctx, r.principals, "providers", NearbyFilter(scope, q))
}

func (r *mongoSearchRepository) FindTenants(ctx context.Context, scope authz.Scope, q model.TenantSearch, limit int, offset int64) ([]*model.Tenant, error) {
	opts := options.Find().
		SetProjection(secretFields).
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
	return find[model.Tenant](ctx, r, r.tenants, "tenants", TenantsFilter(scope, q), opts)
}

func (r *mongoSearchRepository) CountTenants(ctx context.Context, scope authz.Scope, q model.TenantSearch) (int64, error) {
	return r.count(ctx, r.tenants, "tenants", TenantsFilter(scope, q))
}

func providerOptions(limit int, offset int64) *options.FindOptions {
	return options.Find().
		SetProjection(secretFields).
		SetSort(bson.D{{Key: "provider.rating.average", Value: -1}, {Key: "name", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)
}

func find[T any](ctx context.Context, r *mongoSearchRepository, coll *mongo.Collection, kind string, filter bson.M, opts *options.FindOptions) ([]*T, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", kind, err)
	}
	defer cursor.Close(ctx)

	var results []*T
	if err = cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return results, nil
}

func (r *mongoSearchRepository) count(ctx context.Context, coll *mongo.Collection, kind string, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return count, nil
}

// --- Filters ---

func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func equalFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func anyOf(text string, fields ...string) bson.A {
	re := contains(text)
	clauses := make(bson.A, 0, len(fields))
	for _, f := range fields {
		clauses = append(clauses, bson.M{f: re})
	}
	return clauses
}

func between[T int | float64](lo, hi *T) bson.M {
	r := bson.M{}
	if lo != nil {
		r["$gte"] = *lo
	}
	if hi != nil {
		r["$lte"] = *hi
	}
	return r
}

// ServicesFilter matches active services. Text matches name, description or category.
func ServicesFilter(scope authz.Scope, q model.ServiceSearch) bson.M {
	query := bson.M{"is_active": true}
	if q.Query != "" {
		query["$or"] = anyOf(q.Query, "name", "description", "category")
	}
	if q.Category != "" {
		query["category"] = q.Category
	}
	if price := between(q.MinPrice, q.MaxPrice); len(price) > 0 {
		query["pricing.base_price"] = price
	}
	if duration := between(q.MinDuration, q.MaxDuration); len(duration) > 0 {
		query["duration"] = duration
	}
	if q.MinRating != nil {
		query["stats.rating"] = bson.M{"$gte": *q.MinRating}
	}
	return scope.Filter(query)
}

func providerBase() bson.M {
	return bson.M{"role": model.RoleServiceProvider, "is_active": true}
}

// ProvidersFilter matches active service providers. A non-nil ProviderIDs restricts the result set,
// so an empty slice matches nothing.
func ProvidersFilter(scope authz.Scope, q model.ProviderSearch) (bson.M, error) {
	query := providerBase()
	if q.Query != "" {
		query["$or"] = anyOf(q.Query, "name", "provider.bio", "provider.specializations")
	}
	if q.Specialization != "" {
		query["provider.specializations"] = equalFold(q.Specialization)
	}
	if q.City != "" {
		query["address.city"] = equalFold(q.City)
	}
	if q.MinRating != nil {
		query["provider.rating.average"] = bson.M{"$gte": *q.MinRating}
	}
	if q.ProviderIDs != nil {
		ids, err := mongotx.ObjectIDs(q.ProviderIDs)
		if err != nil {
			return nil, err
		}
		query["_id"] = bson.M{"$in": ids}
	}
	return scope.Filter(query), nil
}

// NearbyFilter matches active providers whose location lies within RadiusKm of the query point.
// Lat and Lng must be set.
func NearbyFilter(scope authz.Scope, q model.NearbySearch) bson.M {
	radius := model.DefaultSearchRadiusKm
	if q.RadiusKm != nil {
		radius = *q.RadiusKm
	}
	query := providerBase()
	query["address.location"] = bson.M{
		"$geoWithin": bson.M{
			"$centerSphere": bson.A{bson.A{*q.Lng, *q.Lat}, radius / earthRadiusKm},
		},
	}
	if q.Specialization != "" {
		query["provider.specializations"] = equalFold(q.Specialization)
	}
	return scope.Filter(query)
}

// TenantsFilter matches active tenants. A scoped caller only ever sees its own tenant.
func TenantsFilter(scope authz.Scope, q model.TenantSearch) bson.M {
	query := bson.M{"is_active": true}
	if q.Query != "" {
		query["$or"] = anyOf(q.Query, "name", "business.description")
	}
	if q.BusinessType != "" {
		query["business.type"] = q.BusinessType
	}
	if q.City != "" {
		query["address.city"] = equalFold(q.City)
	}
	return scope.FilterOn("_id", query)
}

package authz

import (
	"maps"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TenantField = "tenant_id"

// Scope is the tenant restriction applied to every Service, Booking and Principal query.
// The zero value matches nothing.
type Scope struct {
	tenantID string
	unscoped bool
}

func Unscoped() Scope {
	return Scope{unscoped: true}
}

func TenantScope(tenantID string) Scope {
	return Scope{tenantID: tenantID}
}

func (s Scope) IsUnscoped() bool {
	return s.unscoped
}

func (s Scope) TenantID() string {
	return s.tenantID
}

// Allows reports whether a record owned by tenantID is visible inside the scope.
func (s Scope) Allows(tenantID string) bool {
	if s.unscoped {
		return true
	}
	return s.tenantID != "" && s.tenantID == tenantID
}

// Filter returns a copy of extra constrained to the scope's tenant_id.
func (s Scope) Filter(extra bson.M) bson.M {
	return s.FilterOn(TenantField, extra)
}

// FilterOn constrains field to the scope's tenant. An "_id" field is matched as an ObjectID.
// When extra already constrains field, both predicates are combined under $and.
func (s Scope) FilterOn(field string, extra bson.M) bson.M {
	out := make(bson.M, len(extra)+1)
	maps.Copy(out, extra)
	if s.unscoped {
		return out
	}

	value := s.valueFor(field)
	if _, taken := out[field]; taken {
		return bson.M{"$and": bson.A{bson.M{field: value}, out}}
	}
	out[field] = value
	return out
}

func (s Scope) valueFor(field string) any {
	if field != "_id" {
		return s.tenantID
	}
	oid, err := primitive.ObjectIDFromHex(s.tenantID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

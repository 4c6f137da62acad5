package validators

import "go.mongodb.org/mongo-driver/bson"

// PrincipalValidator allows an empty tenant_id only for admins; the API enforces the pairing.
var PrincipalValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"tenant_id", "name", "email", "password_hash", "role", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"tenant_id":     bson.M{"bsonType": "string", "maxLength": 24},
			"name":          bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"email":         bson.M{"bsonType": "string", "maxLength": 254},
			"password_hash": bson.M{"bsonType": "string"},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"admin", "service_provider", "customer"},
			},
			"address": addressSchema,
			"provider": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"specializations": bson.M{
						"bsonType": "array",
						"maxItems": 20,
						"items":    bson.M{"bsonType": "string"},
					},
				},
			},
			"is_active":  bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

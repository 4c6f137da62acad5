package validators

import "go.mongodb.org/mongo-driver/bson"

var TenantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "subdomain", "email", "password_hash", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "objectId"},
			"name":          bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"subdomain":     bson.M{"bsonType": "string", "pattern": "^[a-z0-9]([a-z0-9-]{1,61}[a-z0-9])$"},
			"email":         bson.M{"bsonType": "string", "maxLength": 254},
			"password_hash": bson.M{"bsonType": "string"},
			"business": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"type": bson.M{
						"bsonType": "string",
						"enum":     []string{"salon", "spa", "clinic", "fitness", "consulting", "education", "other"},
					},
				},
			},
			"address":    addressSchema,
			"is_active":  bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var addressSchema = bson.M{
	"bsonType": "object",
	"properties": bson.M{
		"city": bson.M{"bsonType": "string", "maxLength": 100},
		"location": bson.M{
			"bsonType": "object",
			"required": []string{"type", "coordinates"},
			"properties": bson.M{
				"type": bson.M{"enum": []string{"Point"}},
				"coordinates": bson.M{
					"bsonType": "array",
					"minItems": 2,
					"maxItems": 2,
					"items":    bson.M{"bsonType": []string{"double", "int", "long"}},
				},
			},
		},
	},
}

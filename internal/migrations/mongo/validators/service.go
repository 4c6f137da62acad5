package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"tenant_id", "name", "category", "duration", "pricing", "is_active", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":       bson.M{"bsonType": "objectId"},
			"tenant_id": bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			"name":      bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"category": bson.M{
				"bsonType": "string",
				"enum":     []string{"hair", "beauty", "wellness", "fitness", "health", "consulting", "education", "other"},
			},
			"duration": bson.M{"bsonType": []string{"int", "long"}, "minimum": 5, "maximum": 480},
			"pricing": bson.M{
				"bsonType": "object",
				"required": []string{"base_price", "currency"},
				"properties": bson.M{
					"base_price": bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
					"currency":   bson.M{"bsonType": "string", "minLength": 3, "maxLength": 3},
				},
			},
			"providers": bson.M{
				"bsonType": "array",
				"maxItems": 100,
				"items":    bson.M{"bsonType": "string", "minLength": 24, "maxLength": 24},
			},
			"is_active":  bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

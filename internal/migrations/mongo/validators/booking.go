package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"tenant_id",
			"customer_id",
			"service_id",
			"provider_id",
			"appointment_date",
			"start_time",
			"end_time",
			"duration",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"tenant_id":   objectIDString,
			"customer_id": objectIDString,
			"service_id":  objectIDString,
			"provider_id": objectIDString,

			"appointment_date": bson.M{
				"bsonType": "date",
			},

			"start_time": clock,
			"end_time":   endClock,

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"in_progress",
					"completed",
					"cancelled",
					"no_show",
				},
			},

			"feedback": bson.M{
				"bsonType": "object",
				"properties": bson.M{
					"rating": bson.M{
						"bsonType": []string{"int", "long"},
						"minimum":  1,
						"maximum":  5,
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var objectIDString = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var clock = bson.M{
	"bsonType": "string",
	"pattern":  "^([01][0-9]|2[0-3]):[0-5][0-9]$",
}

var endClock = bson.M{
	"bsonType": "string",
	"pattern":  "^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$",
}

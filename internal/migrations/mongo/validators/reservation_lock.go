package validators

import "go.mongodb.org/mongo-driver/bson"

// ReservationLockValidator mirrors the lock documents the conflict cache
// writes: one document per vehicle and date range, keyed by the lock key.
var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"rez_id",
			"cars_park_id",
			"pickup",
			"dropoff",
			"saved_at",
		},
		"additionalProperties": false,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"rez_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"cars_park_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"pickup": bson.M{
				"bsonType": "date",
			},

			"dropoff": bson.M{
				"bsonType": "date",
			},

			"saved_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

package validators

import "go.mongodb.org/mongo-driver/bson"

var AllocationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"facility_id",
			"facility_name",
			"quantity",
			"max_per_business",
			"student_price",
			"non_student_price",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"facility_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"facility_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"facility_size": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"facility_type": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"image_path": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"quantity": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"max_per_business": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"student_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"non_student_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

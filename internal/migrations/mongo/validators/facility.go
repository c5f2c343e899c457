package validators

import "go.mongodb.org/mongo-driver/bson"

var FacilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"size",
			"type",
			"student_price",
			"non_student_price",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"size": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"type": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"usage_guideline": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"remark": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"student_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"non_student_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"image_path": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
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

package validators

import "go.mongodb.org/mongo-driver/bson"

var ApplicationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"allocation_id",
			"event_id",
			"business_id",
			"quantity",
			"unit_price",
			"applicant_category",
			"status",
			"submitted_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"allocation_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"business_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"quantity": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"unit_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"applicant_category": bson.M{
				"enum": []string{"STUDENT", "NON_STUDENT"},
			},

			"status": bson.M{
				"enum": []string{"PENDING", "APPROVED", "REJECTED", "CANCELLED"},
			},

			"rejection_reason": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"contact_name": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},

			"contact_phone": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"submitted_at": bson.M{
				"bsonType": "date",
			},

			"decided_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var AllocationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "expires_at"},

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

package model

import "time"

// FacilityTemplate is the catalog master for a rentable facility type.
// Prices here are defaults only: events snapshot them into allocations
// at assignment time, so later edits never touch existing events.
type FacilityTemplate struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Size            string    `json:"size" bson:"size" validate:"required,max=50"`
	Type            string    `json:"type" bson:"type" validate:"required,max=50"`
	Description     string    `json:"description" bson:"description" validate:"omitempty,max=2000"`
	UsageGuideline  string    `json:"usage_guideline" bson:"usage_guideline" validate:"omitempty,max=2000"`
	Remark          string    `json:"remark" bson:"remark" validate:"omitempty,max=1000"`
	StudentPrice    int64     `json:"student_price" bson:"student_price" validate:"min=0"`
	NonStudentPrice int64     `json:"non_student_price" bson:"non_student_price" validate:"min=0"`
	Active          bool      `json:"active" bson:"active"`
	ImagePath       string    `json:"image_path,omitempty" bson:"image_path,omitempty" validate:"omitempty,max=500"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

type FacilityTemplateUpdate struct {
	Name            string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Size            string  `json:"size,omitempty" validate:"omitempty,max=50"`
	Type            string  `json:"type,omitempty" validate:"omitempty,max=50"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	UsageGuideline  *string `json:"usage_guideline,omitempty" validate:"omitempty,max=2000"`
	Remark          *string `json:"remark,omitempty" validate:"omitempty,max=1000"`
	StudentPrice    *int64  `json:"student_price,omitempty" validate:"omitempty,min=0"`
	NonStudentPrice *int64  `json:"non_student_price,omitempty" validate:"omitempty,min=0"`
	ImagePath       *string `json:"image_path,omitempty" validate:"omitempty,max=500"`
}

package model

import "time"

// EventFacilityAllocation is an event-specific snapshot of a catalog
// facility with its own quota and pricing. The facility name/size/type
// and image are denormalized at assignment time so later catalog edits
// never alter a running event.
type EventFacilityAllocation struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID         string    `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	FacilityID      string    `json:"facility_id" bson:"facility_id" validate:"required,mongodb"`
	FacilityName    string    `json:"facility_name" bson:"facility_name"`
	FacilitySize    string    `json:"facility_size" bson:"facility_size"`
	FacilityType    string    `json:"facility_type" bson:"facility_type"`
	ImagePath       string    `json:"image_path,omitempty" bson:"image_path,omitempty"`
	Quantity        int       `json:"quantity" bson:"quantity" validate:"required,min=1"`
	MaxPerBusiness  int       `json:"max_per_business" bson:"max_per_business" validate:"required,min=1"`
	StudentPrice    int64     `json:"student_price" bson:"student_price" validate:"min=0"`
	NonStudentPrice int64     `json:"non_student_price" bson:"non_student_price" validate:"min=0"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// FacilityAssignment is one line of an event create/update request. An
// assignment carrying an allocation id updates that allocation in place,
// preserving its application history; one without an id is newly added.
type FacilityAssignment struct {
	AllocationID    string `json:"allocation_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID      string `json:"facility_id" validate:"required,mongodb"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	MaxPerBusiness  int    `json:"max_per_business" validate:"required,min=1"`
	StudentPrice    int64  `json:"student_price" validate:"min=0"`
	NonStudentPrice int64  `json:"non_student_price" validate:"min=0"`
}

// AllocationWithQuota decorates an allocation with the live aggregate
// consumed by pending and approved applications.
type AllocationWithQuota struct {
	*EventFacilityAllocation `bson:",inline"`
	Remaining                int `json:"remaining_quota"`
}

// AllocationAvailability is the per-business availability read model
// behind the UI quantity steppers.
type AllocationAvailability struct {
	AllocationID         string `json:"allocation_id"`
	Remaining            int    `json:"remaining_quota"`
	RemainingForBusiness int    `json:"remaining_quota_for_business"`
	MaxSelectable        int    `json:"max_selectable"`
	FullyBooked          bool   `json:"fully_booked"`
	QuotaReached         bool   `json:"quota_reached"`
	HasActiveApplication bool   `json:"has_pending_application"`
}

// AllocationLock is an advisory lock document guarding quota checks on a
// single allocation. A unique _id insert wins the lock; a TTL index on
// expires_at reaps stale holders.
type AllocationLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

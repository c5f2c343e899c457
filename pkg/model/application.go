package model

import "time"

// Application statuses. PENDING and APPROVED count against quota;
// REJECTED and CANCELLED are terminal and free it.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// Applicant categories driving unit-price resolution.
const (
	CategoryStudent    = "STUDENT"
	CategoryNonStudent = "NON_STUDENT"
)

// Application is one business's request for quantity units of an
// event-facility allocation. UnitPrice is resolved once at submission
// from the applicant's category and never changes afterwards.
type Application struct {
	ID                string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AllocationID      string     `json:"event_facility_id" bson:"allocation_id" validate:"required,mongodb"`
	EventID           string     `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	BusinessID        string     `json:"business_id" bson:"business_id" validate:"required,mongodb"`
	Quantity          int        `json:"quantity" bson:"quantity" validate:"required,min=1"`
	UnitPrice         int64      `json:"unit_price" bson:"unit_price" validate:"min=0"`
	ApplicantCategory string     `json:"applicant_category" bson:"applicant_category" validate:"required,oneof=STUDENT NON_STUDENT"`
	Status            string     `json:"status" bson:"status" validate:"required,oneof=PENDING APPROVED REJECTED CANCELLED"`
	RejectionReason   string     `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty" validate:"omitempty,max=1000"`
	ContactName       string     `json:"contact_name,omitempty" bson:"contact_name,omitempty" validate:"omitempty,max=100"`
	ContactPhone      string     `json:"contact_phone,omitempty" bson:"contact_phone,omitempty" validate:"omitempty,e164"`
	SubmittedAt       time.Time  `json:"submitted_at" bson:"submitted_at"`
	DecidedAt         *time.Time `json:"decided_at,omitempty" bson:"decided_at,omitempty"`
}

// CountsAgainstQuota reports whether the application's quantity is part
// of the live quota aggregates.
func (a *Application) CountsAgainstQuota() bool {
	return a.Status == StatusPending || a.Status == StatusApproved
}

// ApplicationLine is one line of a multi-facility submission.
type ApplicationLine struct {
	EventFacilityID string `json:"event_facility_id" validate:"required,mongodb"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
}

// ApplicationSubmission is the POST /applications request body. All
// lines are validated and committed atomically.
type ApplicationSubmission struct {
	BusinessID        string            `json:"business_id" validate:"required,mongodb"`
	ApplicantCategory string            `json:"applicant_category" validate:"required,oneof=STUDENT NON_STUDENT"`
	ContactName       string            `json:"contact_name,omitempty" validate:"omitempty,max=100"`
	ContactPhone      string            `json:"contact_phone,omitempty"`
	Facilities        []ApplicationLine `json:"facilities" validate:"required,min=1,dive"`
}

// ApplicationFilter narrows the administrative application listing.
type ApplicationFilter struct {
	EventID     string
	Status      string
	BusinessID  string
	SearchQuery string
	SortOrder   string
}

// BulkOutcome is the per-item result of a bulk approval operation.
// Bulk endpoints never fail as a whole; each id reports independently.
type BulkOutcome struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PaymentStatus mirrors the payment collaborator's answer for one
// application.
type PaymentStatus struct {
	ApplicationID string `json:"application_id"`
	Paid          bool   `json:"paid"`
}

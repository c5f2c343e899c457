package model

import "time"

// Derived lifecycle statuses. Only the cancelled flag is persisted;
// everything else is computed from the clock at read time.
const (
	EventUpcoming  = "upcoming"
	EventActive    = "active"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
)

// Application-acceptance toggle, independent of lifecycle status.
const (
	ApplicationsOpen   = "OPEN"
	ApplicationsClosed = "CLOSED"
)

type Event struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name              string    `json:"name" bson:"name" validate:"required,min=2,max=150"`
	Venue             string    `json:"venue" bson:"venue" validate:"required,min=2,max=150"`
	Description       string    `json:"description" bson:"description" validate:"omitempty,max=3000"`
	Type              string    `json:"type" bson:"type" validate:"required,max=50"`
	StartDate         time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" bson:"end_date" validate:"required"`
	StartTime         string    `json:"start_time" bson:"start_time" validate:"required,hhmm"`
	EndTime           string    `json:"end_time" bson:"end_time" validate:"required,hhmm"`
	ApplicationStatus string    `json:"application_status" bson:"application_status" validate:"required,oneof=OPEN CLOSED"`
	Cancelled         bool      `json:"cancelled" bson:"cancelled"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`

	// Computed per request, never stored.
	Status string `json:"status,omitempty" bson:"-"`
}

// StartsAt combines the start date with the HH:MM start time.
func (e *Event) StartsAt() time.Time {
	return combineDateTime(e.StartDate, e.StartTime)
}

// EndsAt combines the end date with the HH:MM end time.
func (e *Event) EndsAt() time.Time {
	return combineDateTime(e.EndDate, e.EndTime)
}

// DerivedStatus computes the lifecycle status against now. Cancellation
// overrides everything; otherwise the event is upcoming before its start
// boundary, active between the boundaries inclusive, completed after.
func (e *Event) DerivedStatus(now time.Time) string {
	if e.Cancelled {
		return EventCancelled
	}
	if now.Before(e.StartsAt()) {
		return EventUpcoming
	}
	if now.After(e.EndsAt()) {
		return EventCompleted
	}
	return EventActive
}

func combineDateTime(date time.Time, hhmm string) time.Time {
	var hour, minute int
	if len(hhmm) == 5 {
		hour = int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
		minute = int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// EventRequest is the create/update body: the event core plus its
// facility assignments. On update, assignments carrying an allocation
// id are edited in place; the rest are appended as new allocations.
type EventRequest struct {
	Event      Event                `json:"event"`
	Facilities []FacilityAssignment `json:"facilities" validate:"required,min=1,dive"`
}

// EventWithFacilities is the detail read model: the event plus its
// allocations enriched with live remaining-quota figures.
type EventWithFacilities struct {
	Event      *Event                 `json:"event"`
	Facilities []*AllocationWithQuota `json:"facilities"`
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	applicationsrepo "campusrent/internal/applications/repository"
	eventserrors "campusrent/internal/events/errors"
	"campusrent/internal/events/repository"
	"campusrent/internal/events/validator"
	facilitieserrors "campusrent/internal/facilities/errors"
	facilitiesrepo "campusrent/internal/facilities/repository"
	"campusrent/pkg/config"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/model"
	"campusrent/pkg/sanitizer"
)

type EventService interface {
	Create(ctx context.Context, req *model.EventRequest) (*model.EventWithFacilities, error)
	Update(ctx context.Context, id string, req *model.EventRequest) error
	Cancel(ctx context.Context, id string) error
	SetApplicationStatus(ctx context.Context, id string, status string) error
	GetAll(ctx context.Context, searchQuery, statusFilter string, limit int, offset int64) ([]*model.Event, int64, error)
	GetWithFacilities(ctx context.Context, id string) (*model.EventWithFacilities, error)
}

type eventService struct {
	events       repository.EventRepository
	allocations  repository.AllocationRepository
	facilities   facilitiesrepo.FacilityRepository
	applications applicationsrepo.ApplicationRepository
	validator    *validator.EventValidator
	cfg          *config.Config
	now          func() time.Time
}

func NewEventService(
	events repository.EventRepository,
	allocations repository.AllocationRepository,
	facilities facilitiesrepo.FacilityRepository,
	applications applicationsrepo.ApplicationRepository,
	validator *validator.EventValidator,
	cfg *config.Config,
) EventService {
	return &eventService{
		events:       events,
		allocations:  allocations,
		facilities:   facilities,
		applications: applications,
		validator:    validator,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, req *model.EventRequest) (*model.EventWithFacilities, error) {
	event := &req.Event
	s.sanitize(event)

	if event.ApplicationStatus == "" {
		event.ApplicationStatus = model.ApplicationsOpen
	}

	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Event validation failed",
			"name", event.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Event validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.validator.ValidateAssignments(req.Facilities, s.cfg.MaxFacilitiesPerSubmission); err != nil {
		s.cfg.Log.Warn("Event facility assignments validation failed",
			"name", event.Name,
			"error", err,
		)
		return nil, apperrors.Validation("Facility assignments validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	var created []*model.AllocationWithQuota

	err := s.events.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.events.Create(sessCtx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		for _, assignment := range req.Facilities {
			allocation, err := s.buildAllocation(sessCtx, event.ID, assignment)
			if err != nil {
				return err
			}

			if err := s.allocations.Create(sessCtx, allocation); err != nil {
				return fmt.Errorf("failed to create allocation: %w", err)
			}

			created = append(created, &model.AllocationWithQuota{
				EventFacilityAllocation: allocation,
				Remaining:               allocation.Quantity,
			})
		}

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to create event",
			"name", event.Name,
			"error", err,
		)
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("Failed to create event", err)
	}

	event.Status = event.DerivedStatus(s.now())
	s.cfg.Log.Info("Event created successfully",
		"id", event.ID,
		"name", event.Name,
		"facilities", len(created),
	)

	return &model.EventWithFacilities{Event: event, Facilities: created}, nil
}

// buildAllocation snapshots an active catalog facility into an
// event-scoped allocation. Later catalog edits never touch the copy.
func (s *eventService) buildAllocation(ctx context.Context, eventID string, assignment model.FacilityAssignment) (*model.EventFacilityAllocation, error) {
	facility, err := s.facilities.FindByID(ctx, assignment.FacilityID)
	if err != nil {
		if errors.Is(err, facilitieserrors.ErrNotFound) {
			return nil, apperrors.Validation(
				fmt.Sprintf("Facility %s does not exist", assignment.FacilityID), nil)
		}
		if errors.Is(err, facilitieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid facility ID format")
		}
		return nil, fmt.Errorf("failed to load facility [%s]: %w", assignment.FacilityID, err)
	}

	if !facility.Active {
		return nil, apperrors.Validation(
			fmt.Sprintf("Facility %s is not available for assignment", facility.Name), nil)
	}

	return &model.EventFacilityAllocation{
		EventID:         eventID,
		FacilityID:      facility.ID,
		FacilityName:    facility.Name,
		FacilitySize:    facility.Size,
		FacilityType:    facility.Type,
		ImagePath:       facility.ImagePath,
		Quantity:        assignment.Quantity,
		MaxPerBusiness:  assignment.MaxPerBusiness,
		StudentPrice:    assignment.StudentPrice,
		NonStudentPrice: assignment.NonStudentPrice,
	}, nil
}

func (s *eventService) Update(ctx context.Context, id string, req *model.EventRequest) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}

	existing, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}

	status := existing.DerivedStatus(s.now())
	if status == model.EventCompleted || status == model.EventCancelled {
		return apperrors.Conflict(fmt.Sprintf("Cannot modify a %s event", status))
	}

	event := &req.Event
	s.sanitize(event)
	if event.ApplicationStatus == "" {
		event.ApplicationStatus = existing.ApplicationStatus
	}

	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Event validation failed",
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Event validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if status == model.EventActive && s.datesChanged(existing, event) {
		return apperrors.Validation("Event dates cannot be changed once the event is active", nil)
	}

	if err := s.validator.ValidateAssignments(req.Facilities, s.cfg.MaxFacilitiesPerSubmission); err != nil {
		s.cfg.Log.Warn("Event facility assignments validation failed",
			"id", id,
			"error", err,
		)
		return apperrors.Validation("Facility assignments validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err = s.events.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, assignment := range req.Facilities {
			if assignment.AllocationID != "" {
				if err := s.updateAllocationInPlace(sessCtx, id, assignment); err != nil {
					return err
				}
				continue
			}

			allocation, err := s.buildAllocation(sessCtx, id, assignment)
			if err != nil {
				return err
			}
			if err := s.allocations.Create(sessCtx, allocation); err != nil {
				return fmt.Errorf("failed to create allocation: %w", err)
			}
		}

		if _, err := s.events.Update(sessCtx, id, event); err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to update event",
			"id", id,
			"error", err,
		)
		if appErr, ok := apperrors.AsAppError(err); ok {
			return appErr
		}
		return apperrors.Internal("Failed to update event", err)
	}

	s.cfg.Log.Info("Event updated successfully",
		"id", id,
		"name", event.Name,
	)

	return nil
}

// updateAllocationInPlace edits quota and pricing on an existing
// allocation. The quantity may never drop below what pending and
// approved applications have already consumed.
func (s *eventService) updateAllocationInPlace(ctx context.Context, eventID string, assignment model.FacilityAssignment) error {
	allocation, err := s.allocations.FindByID(ctx, assignment.AllocationID)
	if err != nil {
		if errors.Is(err, eventserrors.ErrAllocationNotFound) {
			return apperrors.NotFoundWithID("Allocation", assignment.AllocationID)
		}
		if errors.Is(err, eventserrors.ErrInvalidAllocationID) {
			return apperrors.InvalidInput("Invalid allocation ID format")
		}
		return fmt.Errorf("failed to load allocation [%s]: %w", assignment.AllocationID, err)
	}

	if allocation.EventID != eventID {
		return apperrors.Validation(
			fmt.Sprintf("Allocation %s does not belong to this event", assignment.AllocationID), nil)
	}

	consumed, err := s.applications.SumActiveByAllocation(ctx, assignment.AllocationID)
	if err != nil {
		return fmt.Errorf("failed to compute consumed quota for allocation [%s]: %w", assignment.AllocationID, err)
	}

	if assignment.Quantity < consumed {
		return apperrors.Validation(
			fmt.Sprintf("Quantity for %s cannot be reduced below %d already reserved units",
				allocation.FacilityName, consumed), nil)
	}

	allocation.Quantity = assignment.Quantity
	allocation.MaxPerBusiness = assignment.MaxPerBusiness
	allocation.StudentPrice = assignment.StudentPrice
	allocation.NonStudentPrice = assignment.NonStudentPrice

	if err := s.allocations.UpdateInPlace(ctx, assignment.AllocationID, allocation); err != nil {
		return fmt.Errorf("failed to update allocation [%s]: %w", assignment.AllocationID, err)
	}

	return nil
}

func (s *eventService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}

	status := event.DerivedStatus(s.now())
	if status != model.EventUpcoming {
		return apperrors.Conflict(fmt.Sprintf("Cannot cancel a %s event; only upcoming events can be cancelled", status))
	}

	var cancelled int64
	err = s.events.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.events.MarkCancelled(sessCtx, id); err != nil {
			return fmt.Errorf("failed to mark event cancelled: %w", err)
		}

		n, err := s.applications.CancelActiveByEvent(sessCtx, id)
		if err != nil {
			return fmt.Errorf("failed to cascade cancellation to applications: %w", err)
		}
		cancelled = n

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to cancel event",
			"id", id,
			"error", err,
		)
		if appErr, ok := apperrors.AsAppError(err); ok {
			return appErr
		}
		return apperrors.Internal("Failed to cancel event", err)
	}

	s.cfg.Log.Info("Event cancelled",
		"id", id,
		"applications_cancelled", cancelled,
	)

	return nil
}

func (s *eventService) SetApplicationStatus(ctx context.Context, id string, status string) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}
	if status != model.ApplicationsOpen && status != model.ApplicationsClosed {
		return apperrors.InvalidInput(fmt.Sprintf("Application status must be %s or %s", model.ApplicationsOpen, model.ApplicationsClosed))
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}

	derived := event.DerivedStatus(s.now())
	if derived != model.EventUpcoming && derived != model.EventActive {
		return apperrors.Conflict(fmt.Sprintf("Cannot change application status of a %s event", derived))
	}

	if err := s.events.SetApplicationStatus(ctx, id, status); err != nil {
		s.cfg.Log.Error("Failed to set event application status",
			"id", id,
			"status", status,
			"error", err,
		)
		return apperrors.Internal("Failed to change event application status", err)
	}

	s.cfg.Log.Info("Event application status changed",
		"id", id,
		"status", status,
	)

	return nil
}

func (s *eventService) GetAll(ctx context.Context, searchQuery, statusFilter string, limit int, offset int64) ([]*model.Event, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if statusFilter != "" && !isKnownStatus(statusFilter) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown event status: %s", statusFilter))
	}

	events, err := s.events.FindAll(ctx, searchQuery)
	if err != nil {
		s.cfg.Log.Error("Failed to list events",
			"search_query", searchQuery,
			"error", err,
		)
		return nil, 0, apperrors.Internal("Failed to retrieve events", err)
	}

	now := s.now()
	filtered := make([]*model.Event, 0, len(events))
	for _, event := range events {
		event.Status = event.DerivedStatus(now)
		if statusFilter != "" && event.Status != statusFilter {
			continue
		}
		filtered = append(filtered, event)
	}

	total := int64(len(filtered))
	if offset >= total {
		return []*model.Event{}, total, nil
	}

	end := offset + int64(limit)
	if end > total {
		end = total
	}

	return filtered[offset:end], total, nil
}

func (s *eventService) GetWithFacilities(ctx context.Context, id string) (*model.EventWithFacilities, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Status = event.DerivedStatus(s.now())

	allocations, err := s.allocations.FindByEventID(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to load event allocations",
			"event_id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve event facilities", err)
	}

	allocationIDs := make([]string, 0, len(allocations))
	for _, allocation := range allocations {
		allocationIDs = append(allocationIDs, allocation.ID)
	}

	consumed := map[string]int{}
	if len(allocationIDs) > 0 {
		consumed, err = s.applications.SumActiveByAllocations(ctx, allocationIDs)
		if err != nil {
			s.cfg.Log.Error("Failed to compute consumed quotas",
				"event_id", id,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to compute facility availability", err)
		}
	}

	facilities := make([]*model.AllocationWithQuota, 0, len(allocations))
	for _, allocation := range allocations {
		remaining := allocation.Quantity - consumed[allocation.ID]
		if remaining < 0 {
			remaining = 0
		}
		facilities = append(facilities, &model.AllocationWithQuota{
			EventFacilityAllocation: allocation,
			Remaining:               remaining,
		})
	}

	return &model.EventWithFacilities{Event: event, Facilities: facilities}, nil
}

func (s *eventService) getEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Event", id)
		}
		if errors.Is(err, eventserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid event ID format")
		}
		s.cfg.Log.Error("Failed to load event",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve event", err)
	}

	return event, nil
}

// datesChanged compares calendar dates only. Time-of-day stays editable
// after an event starts; the start/end ordering check still applies.
func (s *eventService) datesChanged(existing, updated *model.Event) bool {
	return !existing.StartDate.Equal(updated.StartDate) ||
		!existing.EndDate.Equal(updated.EndDate)
}

func (s *eventService) sanitize(event *model.Event) {
	event.Name = sanitizer.SanitizeLabel(event.Name)
	event.Venue = sanitizer.SanitizeLabel(event.Venue)
	event.Type = sanitizer.SanitizeCategoryType(event.Type)
	event.Description = sanitizer.SanitizeFreeText(event.Description)
}

func isKnownStatus(status string) bool {
	switch status {
	case model.EventUpcoming, model.EventActive, model.EventCompleted, model.EventCancelled:
		return true
	}
	return false
}

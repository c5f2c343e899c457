package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	applicationserrors "campusrent/internal/applications/errors"
	"campusrent/internal/applications/repository"
	"campusrent/internal/applications/validator"
	eventserrors "campusrent/internal/events/errors"
	eventsrepo "campusrent/internal/events/repository"
	"campusrent/pkg/config"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/kafka"
	"campusrent/pkg/model"
	"campusrent/pkg/sanitizer"
)

// Publisher is the slice of the Kafka producer the service needs.
// Publishing is best-effort: failures are logged, never surfaced.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type ApplicationService interface {
	Submit(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error)
	GetAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, int64, error)
	GetAvailability(ctx context.Context, allocationID, businessID string) (*model.AllocationAvailability, error)
}

type applicationService struct {
	applications repository.ApplicationRepository
	locks        repository.LockRepository
	allocations  eventsrepo.AllocationRepository
	events       eventsrepo.EventRepository
	validator    *validator.ApplicationValidator
	publisher    Publisher
	cfg          *config.Config
}

func NewApplicationService(
	applications repository.ApplicationRepository,
	locks repository.LockRepository,
	allocations eventsrepo.AllocationRepository,
	events eventsrepo.EventRepository,
	validator *validator.ApplicationValidator,
	publisher Publisher,
	cfg *config.Config,
) ApplicationService {
	return &applicationService{
		applications: applications,
		locks:        locks,
		allocations:  allocations,
		events:       events,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Submit creates one PENDING application per submission line, or none.
// Advisory locks are taken for every referenced allocation in sorted id
// order, then all quota checks and inserts run in one transaction.
func (s *applicationService) Submit(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error) {
	s.sanitize(submission)

	if submission.ContactPhone != "" && sanitizer.NormalizePhone(submission.ContactPhone) == "" {
		return nil, apperrors.InvalidInput("Invalid contact phone number")
	}

	if err := s.validator.ValidateSubmission(submission, s.cfg.MaxFacilitiesPerSubmission); err != nil {
		s.cfg.Log.Warn("Application submission validation failed",
			"business_id", submission.BusinessID,
			"error", err,
		)
		return nil, apperrors.Validation("Application validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	allocationIDs := make([]string, 0, len(submission.Facilities))
	for _, line := range submission.Facilities {
		allocationIDs = append(allocationIDs, line.EventFacilityID)
	}
	sort.Strings(allocationIDs)

	acquired, err := s.acquireLocks(ctx, allocationIDs)
	if err != nil {
		s.releaseLocks(acquired)
		return nil, err
	}
	defer s.releaseLocks(acquired)

	var created []*model.Application

	err = s.applications.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		allocationsByID, err := s.loadAllocations(sessCtx, allocationIDs)
		if err != nil {
			return err
		}

		eventCache := make(map[string]*model.Event)

		for _, line := range submission.Facilities {
			allocation := allocationsByID[line.EventFacilityID]

			if err := s.checkEventAcceptsApplications(sessCtx, allocation, eventCache); err != nil {
				return err
			}

			if err := s.checkQuota(sessCtx, allocation, submission.BusinessID, line.Quantity); err != nil {
				return err
			}

			application := &model.Application{
				AllocationID:      allocation.ID,
				EventID:           allocation.EventID,
				BusinessID:        submission.BusinessID,
				Quantity:          line.Quantity,
				UnitPrice:         resolveUnitPrice(allocation, submission.ApplicantCategory),
				ApplicantCategory: submission.ApplicantCategory,
				Status:            model.StatusPending,
				ContactName:       submission.ContactName,
				ContactPhone:      submission.ContactPhone,
			}

			if err := s.applications.Create(sessCtx, application); err != nil {
				return fmt.Errorf("failed to insert application: %w", err)
			}

			created = append(created, application)
		}

		return nil
	})

	if err != nil {
		s.cfg.Log.Error("Failed to submit application",
			"business_id", submission.BusinessID,
			"lines", len(submission.Facilities),
			"error", err,
		)
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("Failed to submit application", err)
	}

	s.cfg.Log.Info("Application submitted successfully",
		"business_id", submission.BusinessID,
		"applications", len(created),
	)

	s.publishSubmitted(ctx, created)

	return created, nil
}

func (s *applicationService) acquireLocks(ctx context.Context, allocationIDs []string) ([]string, error) {
	var acquired []string

	for _, allocationID := range allocationIDs {
		if err := s.locks.Acquire(ctx, allocationID); err != nil {
			if errors.Is(err, applicationserrors.ErrLockHeld) {
				s.cfg.Log.Warn("Allocation lock contention",
					"allocation_id", allocationID,
				)
				return acquired, apperrors.Conflict("Another application for this facility is being processed, please try again")
			}
			return acquired, apperrors.Internal("Failed to reserve facility for processing", err)
		}
		acquired = append(acquired, allocationID)
	}

	return acquired, nil
}

// releaseLocks uses a background context so locks are freed even when
// the request context is already cancelled; the TTL index is the
// fallback for crashes.
func (s *applicationService) releaseLocks(allocationIDs []string) {
	for _, allocationID := range allocationIDs {
		if err := s.locks.Release(context.Background(), allocationID); err != nil {
			s.cfg.Log.Error("Failed to release allocation lock",
				"allocation_id", allocationID,
				"error", err,
			)
		}
	}
}

func (s *applicationService) loadAllocations(ctx context.Context, allocationIDs []string) (map[string]*model.EventFacilityAllocation, error) {
	allocations, err := s.allocations.FindByIDs(ctx, allocationIDs)
	if err != nil {
		if errors.Is(err, eventserrors.ErrInvalidAllocationID) {
			return nil, apperrors.InvalidInput("Invalid facility ID format")
		}
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	byID := make(map[string]*model.EventFacilityAllocation, len(allocations))
	for _, allocation := range allocations {
		byID[allocation.ID] = allocation
	}

	for _, allocationID := range allocationIDs {
		if byID[allocationID] == nil {
			return nil, apperrors.Validation(
				fmt.Sprintf("Facility %s does not exist for this event", allocationID), nil)
		}
	}

	return byID, nil
}

func (s *applicationService) checkEventAcceptsApplications(ctx context.Context, allocation *model.EventFacilityAllocation, cache map[string]*model.Event) error {
	event, ok := cache[allocation.EventID]
	if !ok {
		var err error
		event, err = s.events.FindByID(ctx, allocation.EventID)
		if err != nil {
			return fmt.Errorf("failed to load event [%s]: %w", allocation.EventID, err)
		}
		cache[allocation.EventID] = event
	}

	if event.Cancelled {
		return apperrors.Validation(
			fmt.Sprintf("Event %s has been cancelled", event.Name), nil)
	}

	if event.ApplicationStatus != model.ApplicationsOpen {
		return apperrors.Validation(
			fmt.Sprintf("Event %s is not accepting applications", event.Name), nil)
	}

	return nil
}

// checkQuota re-validates both quota scopes inside the transaction,
// after the advisory lock is held, so concurrent submissions cannot
// both pass on stale sums.
func (s *applicationService) checkQuota(ctx context.Context, allocation *model.EventFacilityAllocation, businessID string, quantity int) error {
	exists, err := s.applications.ExistsActive(ctx, allocation.ID, businessID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate application: %w", err)
	}
	if exists {
		return apperrors.DuplicateApplication(allocation.ID)
	}

	consumed, err := s.applications.SumActiveByAllocation(ctx, allocation.ID)
	if err != nil {
		return fmt.Errorf("failed to compute consumed quota: %w", err)
	}
	remaining := allocation.Quantity - consumed
	if quantity > remaining {
		return apperrors.QuotaExceeded(
			fmt.Sprintf("Only %d units of %s remain", remaining, allocation.FacilityName),
			map[string]any{
				"event_facility_id": allocation.ID,
				"requested":         quantity,
				"remaining":         remaining,
			})
	}

	businessConsumed, err := s.applications.SumActiveByAllocationForBusiness(ctx, allocation.ID, businessID)
	if err != nil {
		return fmt.Errorf("failed to compute per-business quota: %w", err)
	}
	businessRemaining := allocation.MaxPerBusiness - businessConsumed
	if quantity > businessRemaining {
		return apperrors.QuotaExceeded(
			fmt.Sprintf("Requesting %d units of %s would exceed the per-business limit of %d",
				quantity, allocation.FacilityName, allocation.MaxPerBusiness),
			map[string]any{
				"event_facility_id": allocation.ID,
				"requested":         quantity,
				"max_per_business":  allocation.MaxPerBusiness,
			})
	}

	return nil
}

func resolveUnitPrice(allocation *model.EventFacilityAllocation, category string) int64 {
	if category == model.CategoryStudent {
		return allocation.StudentPrice
	}
	return allocation.NonStudentPrice
}

func (s *applicationService) GetAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	if filter.Status != "" && !isKnownApplicationStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Unknown application status: %s", filter.Status))
	}

	var count int64
	var applications []*model.Application
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.applications.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count applications", "error", err)
			errCount = apperrors.Internal("Failed to count applications", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		applications, err = s.applications.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list applications",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve applications", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return applications, count, nil
}

func (s *applicationService) GetAvailability(ctx context.Context, allocationID, businessID string) (*model.AllocationAvailability, error) {
	if allocationID == "" {
		return nil, apperrors.InvalidInput("Allocation ID cannot be empty")
	}
	if businessID == "" {
		return nil, apperrors.InvalidInput("business_id query parameter is required")
	}

	allocation, err := s.allocations.FindByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, eventserrors.ErrAllocationNotFound) {
			return nil, apperrors.NotFoundWithID("Allocation", allocationID)
		}
		if errors.Is(err, eventserrors.ErrInvalidAllocationID) {
			return nil, apperrors.InvalidInput("Invalid allocation ID format")
		}
		s.cfg.Log.Error("Failed to load allocation",
			"allocation_id", allocationID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve facility availability", err)
	}

	consumed, err := s.applications.SumActiveByAllocation(ctx, allocationID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute facility availability", err)
	}

	businessConsumed, err := s.applications.SumActiveByAllocationForBusiness(ctx, allocationID, businessID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute facility availability", err)
	}

	hasActive, err := s.applications.ExistsActive(ctx, allocationID, businessID)
	if err != nil {
		return nil, apperrors.Internal("Failed to compute facility availability", err)
	}

	remaining := max(0, allocation.Quantity-consumed)
	businessRemaining := max(0, allocation.MaxPerBusiness-businessConsumed)
	maxSelectable := min(remaining, businessRemaining)
	if hasActive {
		maxSelectable = 0
	}

	return &model.AllocationAvailability{
		AllocationID:         allocationID,
		Remaining:            remaining,
		RemainingForBusiness: businessRemaining,
		MaxSelectable:        maxSelectable,
		FullyBooked:          remaining == 0,
		QuotaReached:         businessRemaining == 0 || hasActive,
		HasActiveApplication: hasActive,
	}, nil
}

func (s *applicationService) sanitize(submission *model.ApplicationSubmission) {
	submission.ContactName = sanitizer.SanitizeLabel(submission.ContactName)
	if submission.ContactPhone != "" {
		if normalized := sanitizer.NormalizePhone(submission.ContactPhone); normalized != "" {
			submission.ContactPhone = normalized
		}
	}
}

func (s *applicationService) publishSubmitted(ctx context.Context, applications []*model.Application) {
	if s.publisher == nil {
		return
	}

	for _, application := range applications {
		msg := kafka.NewMessage().
			WithKey(application.ID).
			WithValue(application).
			WithEventType("application.submitted").
			WithSchemaVersion("1").
			WithSource("applications").
			Build()

		if err := s.publisher.Publish(ctx, msg); err != nil {
			s.cfg.Log.Error("Failed to publish application submitted event",
				"application_id", application.ID,
				"error", err,
			)
		}
	}
}

func isKnownApplicationStatus(status string) bool {
	switch status {
	case model.StatusPending, model.StatusApproved, model.StatusRejected, model.StatusCancelled:
		return true
	}
	return false
}

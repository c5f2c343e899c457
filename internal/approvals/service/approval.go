package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	applicationserrors "campusrent/internal/applications/errors"
	applicationsrepo "campusrent/internal/applications/repository"
	eventserrors "campusrent/internal/events/errors"
	eventsrepo "campusrent/internal/events/repository"
	"campusrent/pkg/client"
	"campusrent/pkg/config"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/kafka"
	"campusrent/pkg/model"
)

// Publisher is the slice of the Kafka producer the service needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// RevertResult carries the reverted application and an optional
// non-blocking warning (e.g. a paid application needing a refund).
type RevertResult struct {
	Application *model.Application `json:"application"`
	Warning     string             `json:"warning,omitempty"`
}

type ApprovalService interface {
	Approve(ctx context.Context, id string) (*model.Application, error)
	Reject(ctx context.Context, id string, reason string) (*model.Application, error)
	Revert(ctx context.Context, id string) (*RevertResult, error)

	BulkApprove(ctx context.Context, ids []string) ([]model.BulkOutcome, error)
	BulkReject(ctx context.Context, ids []string, reason string) ([]model.BulkOutcome, error)
	BulkRevert(ctx context.Context, ids []string) ([]model.BulkOutcome, error)

	PaymentStatus(ctx context.Context, id string) (*model.PaymentStatus, error)
}

type approvalService struct {
	applications applicationsrepo.ApplicationRepository
	locks        applicationsrepo.LockRepository
	allocations  eventsrepo.AllocationRepository
	payments     client.PaymentGate
	publisher    Publisher
	cfg          *config.Config
}

func NewApprovalService(
	applications applicationsrepo.ApplicationRepository,
	locks applicationsrepo.LockRepository,
	allocations eventsrepo.AllocationRepository,
	payments client.PaymentGate,
	publisher Publisher,
	cfg *config.Config,
) ApprovalService {
	return &approvalService{
		applications: applications,
		locks:        locks,
		allocations:  allocations,
		payments:     payments,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Approve flips PENDING to APPROVED with a conditional update, so two
// concurrent approvers cannot both process the same application.
// Approving an already APPROVED application is a no-op success.
func (s *approvalService) Approve(ctx context.Context, id string) (*model.Application, error) {
	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if application.Status == model.StatusApproved {
		return application, nil
	}

	modified, err := s.applications.UpdateStatusIf(ctx, id, []string{model.StatusPending}, model.StatusApproved, "")
	if err != nil {
		s.cfg.Log.Error("Failed to approve application",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to approve application", err)
	}

	if !modified {
		return nil, s.transitionError(ctx, id, model.StatusApproved)
	}

	application, err = s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Application approved",
		"id", id,
		"business_id", application.BusinessID,
	)
	s.publishDecision(ctx, application, "application.approved")

	return application, nil
}

// Reject flips PENDING to REJECTED, freeing the quota the application
// consumed. Rejecting an already REJECTED application is a no-op.
func (s *approvalService) Reject(ctx context.Context, id string, reason string) (*model.Application, error) {
	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if application.Status == model.StatusRejected {
		return application, nil
	}

	modified, err := s.applications.UpdateStatusIf(ctx, id, []string{model.StatusPending}, model.StatusRejected, reason)
	if err != nil {
		s.cfg.Log.Error("Failed to reject application",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to reject application", err)
	}

	if !modified {
		return nil, s.transitionError(ctx, id, model.StatusRejected)
	}

	application, err = s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Application rejected",
		"id", id,
		"business_id", application.BusinessID,
		"reason", reason,
	)
	s.publishDecision(ctx, application, "application.rejected")

	return application, nil
}

// Revert returns an APPROVED or REJECTED application to PENDING.
// Reverting a REJECTED application re-claims quota, so both quota
// scopes are re-validated under the allocation lock; failure leaves the
// application REJECTED.
func (s *approvalService) Revert(ctx context.Context, id string) (*RevertResult, error) {
	application, err := s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	var warning string

	switch application.Status {
	case model.StatusApproved:
		warning, err = s.revertApproved(ctx, application)
	case model.StatusRejected:
		err = s.revertRejected(ctx, application)
	default:
		return nil, apperrors.StateTransition(application.Status, model.StatusPending)
	}

	if err != nil {
		return nil, err
	}

	application, err = s.getApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Application reverted to pending",
		"id", id,
		"business_id", application.BusinessID,
		"warning", warning,
	)
	s.publishDecision(ctx, application, "application.reverted")

	return &RevertResult{Application: application, Warning: warning}, nil
}

// revertApproved keeps the quota (APPROVED and PENDING both consume it)
// so no re-validation is needed. The status flips first; only a revert
// that actually happened may touch the payment record. An unpaid record
// is then removed; a paid one is left for the finance flow and reported
// as a warning.
func (s *approvalService) revertApproved(ctx context.Context, application *model.Application) (string, error) {
	modified, err := s.applications.UpdateStatusIf(ctx, application.ID, []string{model.StatusApproved}, model.StatusPending, "")
	if err != nil {
		s.cfg.Log.Error("Failed to revert approved application",
			"id", application.ID,
			"error", err,
		)
		return "", apperrors.Internal("Failed to revert application", err)
	}
	if !modified {
		return "", s.transitionError(ctx, application.ID, model.StatusPending)
	}

	var warning string

	paid, err := s.payments.HasPaid(ctx, application.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to check payment status after revert",
			"id", application.ID,
			"error", err,
		)
		warning = "Payment status could not be verified; check for an outstanding payment record"
	} else if paid {
		warning = "Application was already paid; a refund must be processed manually"
	} else {
		if err := s.payments.DeleteUnpaidRecord(ctx, application.ID); err != nil {
			s.cfg.Log.Error("Failed to delete unpaid payment record",
				"id", application.ID,
				"error", err,
			)
			warning = "Unpaid payment record could not be removed; clean it up manually"
		}
	}

	return warning, nil
}

func (s *approvalService) revertRejected(ctx context.Context, application *model.Application) error {
	if err := s.locks.Acquire(ctx, application.AllocationID); err != nil {
		if errors.Is(err, applicationserrors.ErrLockHeld) {
			return apperrors.Conflict("Another application for this facility is being processed, please try again")
		}
		return apperrors.Internal("Failed to reserve facility for processing", err)
	}
	defer func() {
		if err := s.locks.Release(context.Background(), application.AllocationID); err != nil {
			s.cfg.Log.Error("Failed to release allocation lock",
				"allocation_id", application.AllocationID,
				"error", err,
			)
		}
	}()

	err := s.applications.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		allocation, err := s.allocations.FindByID(sessCtx, application.AllocationID)
		if err != nil {
			if errors.Is(err, eventserrors.ErrAllocationNotFound) {
				return apperrors.NotFoundWithID("Allocation", application.AllocationID)
			}
			return fmt.Errorf("failed to load allocation [%s]: %w", application.AllocationID, err)
		}

		exists, err := s.applications.ExistsActive(sessCtx, application.AllocationID, application.BusinessID)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate application: %w", err)
		}
		if exists {
			return apperrors.DuplicateApplication(application.AllocationID)
		}

		consumed, err := s.applications.SumActiveByAllocation(sessCtx, application.AllocationID)
		if err != nil {
			return fmt.Errorf("failed to compute consumed quota: %w", err)
		}
		remaining := allocation.Quantity - consumed
		if application.Quantity > remaining {
			return apperrors.QuotaExceeded(
				fmt.Sprintf("Cannot revert: only %d units of %s remain", remaining, allocation.FacilityName),
				map[string]any{
					"event_facility_id": allocation.ID,
					"requested":         application.Quantity,
					"remaining":         remaining,
				})
		}

		businessConsumed, err := s.applications.SumActiveByAllocationForBusiness(sessCtx, application.AllocationID, application.BusinessID)
		if err != nil {
			return fmt.Errorf("failed to compute per-business quota: %w", err)
		}
		if application.Quantity > allocation.MaxPerBusiness-businessConsumed {
			return apperrors.QuotaExceeded(
				fmt.Sprintf("Cannot revert: per-business limit of %d for %s would be exceeded",
					allocation.MaxPerBusiness, allocation.FacilityName),
				map[string]any{
					"event_facility_id": allocation.ID,
					"requested":         application.Quantity,
					"max_per_business":  allocation.MaxPerBusiness,
				})
		}

		modified, err := s.applications.UpdateStatusIf(sessCtx, application.ID, []string{model.StatusRejected}, model.StatusPending, "")
		if err != nil {
			return fmt.Errorf("failed to revert application: %w", err)
		}
		if !modified {
			return s.transitionError(sessCtx, application.ID, model.StatusPending)
		}

		return nil
	})

	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return appErr
		}
		s.cfg.Log.Error("Failed to revert rejected application",
			"id", application.ID,
			"error", err,
		)
		return apperrors.Internal("Failed to revert application", err)
	}

	return nil
}

func (s *approvalService) BulkApprove(ctx context.Context, ids []string) ([]model.BulkOutcome, error) {
	return s.bulk(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if _, err := s.Approve(ctx, id); err != nil {
			return "", err
		}
		return "Application approved successfully", nil
	})
}

func (s *approvalService) BulkReject(ctx context.Context, ids []string, reason string) ([]model.BulkOutcome, error) {
	return s.bulk(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if _, err := s.Reject(ctx, id, reason); err != nil {
			return "", err
		}
		return "Application rejected successfully", nil
	})
}

func (s *approvalService) BulkRevert(ctx context.Context, ids []string) ([]model.BulkOutcome, error) {
	return s.bulk(ctx, ids, func(ctx context.Context, id string) (string, error) {
		result, err := s.Revert(ctx, id)
		if err != nil {
			return "", err
		}
		if result.Warning != "" {
			return result.Warning, nil
		}
		return "Application reverted successfully", nil
	})
}

// bulk applies op per id and reports one outcome per id. A failing id
// never aborts the batch.
func (s *approvalService) bulk(ctx context.Context, ids []string, op func(ctx context.Context, id string) (string, error)) ([]model.BulkOutcome, error) {
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("At least one application ID is required")
	}
	if len(ids) > s.cfg.MaxBulkApprovalItems {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("At most %d applications can be processed in one request", s.cfg.MaxBulkApprovalItems))
	}

	outcomes := make([]model.BulkOutcome, 0, len(ids))
	for _, id := range ids {
		message, err := op(ctx, id)
		if err != nil {
			message = "Internal error"
			if appErr, ok := apperrors.AsAppError(err); ok {
				message = appErr.Message
			}
			outcomes = append(outcomes, model.BulkOutcome{
				ID:      id,
				Success: false,
				Message: message,
			})
			continue
		}

		outcomes = append(outcomes, model.BulkOutcome{
			ID:      id,
			Success: true,
			Message: message,
		})
	}

	return outcomes, nil
}

func (s *approvalService) PaymentStatus(ctx context.Context, id string) (*model.PaymentStatus, error) {
	if _, err := s.getApplication(ctx, id); err != nil {
		return nil, err
	}

	paid, err := s.payments.HasPaid(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to query payment status",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve payment status", err)
	}

	return &model.PaymentStatus{
		ApplicationID: id,
		Paid:          paid,
	}, nil
}

func (s *approvalService) getApplication(ctx context.Context, id string) (*model.Application, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Application ID cannot be empty")
	}

	application, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, applicationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Application", id)
		}
		if errors.Is(err, applicationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid application ID format")
		}
		s.cfg.Log.Error("Failed to load application",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve application", err)
	}

	return application, nil
}

// transitionError re-reads the current status after a conditional
// update matched nothing, so the client sees the real current state.
func (s *approvalService) transitionError(ctx context.Context, id string, attempted string) error {
	application, err := s.applications.FindByID(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to determine application state", err)
	}

	return apperrors.StateTransition(application.Status, attempted)
}

func (s *approvalService) publishDecision(ctx context.Context, application *model.Application, eventType string) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(application.ID).
		WithValue(application).
		WithEventType(eventType).
		WithSchemaVersion("1").
		WithSource("approvals").
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish decision event",
			"application_id", application.ID,
			"event_type", eventType,
			"error", err,
		)
	}
}

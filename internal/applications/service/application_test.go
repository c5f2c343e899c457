package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	applicationserrors "campusrent/internal/applications/errors"
	"campusrent/internal/applications/validator"
	"campusrent/pkg/config"
	mongotx "campusrent/pkg/db/mongo"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/kafka"
	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

// ────────────────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────────────────

type mockApplicationRepo struct {
	createFunc             func(ctx context.Context, application *model.Application) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Application, error)
	findAllFunc            func(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, error)
	countFunc              func(ctx context.Context, filter model.ApplicationFilter) (int64, error)
	sumActiveFunc          func(ctx context.Context, allocationID string) (int, error)
	sumActiveBusinessFunc  func(ctx context.Context, allocationID, businessID string) (int, error)
	sumActiveByIDsFunc     func(ctx context.Context, allocationIDs []string) (map[string]int, error)
	existsActiveFunc       func(ctx context.Context, allocationID, businessID string) (bool, error)
	updateStatusIfFunc     func(ctx context.Context, id string, fromStatuses []string, toStatus string, reason string) (bool, error)
	cancelActiveEventFunc  func(ctx context.Context, eventID string) (int64, error)
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockApplicationRepo) Create(ctx context.Context, application *model.Application) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, application)
	}
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, applicationserrors.ErrNotFound
}

func (m *mockApplicationRepo) FindAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, filter, limit, offset)
	}
	return nil, nil
}

func (m *mockApplicationRepo) Count(ctx context.Context, filter model.ApplicationFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockApplicationRepo) SumActiveByAllocation(ctx context.Context, allocationID string) (int, error) {
	if m.sumActiveFunc != nil {
		return m.sumActiveFunc(ctx, allocationID)
	}
	return 0, nil
}

func (m *mockApplicationRepo) SumActiveByAllocationForBusiness(ctx context.Context, allocationID, businessID string) (int, error) {
	if m.sumActiveBusinessFunc != nil {
		return m.sumActiveBusinessFunc(ctx, allocationID, businessID)
	}
	return 0, nil
}

func (m *mockApplicationRepo) SumActiveByAllocations(ctx context.Context, allocationIDs []string) (map[string]int, error) {
	if m.sumActiveByIDsFunc != nil {
		return m.sumActiveByIDsFunc(ctx, allocationIDs)
	}
	return map[string]int{}, nil
}

func (m *mockApplicationRepo) ExistsActive(ctx context.Context, allocationID, businessID string) (bool, error) {
	if m.existsActiveFunc != nil {
		return m.existsActiveFunc(ctx, allocationID, businessID)
	}
	return false, nil
}

func (m *mockApplicationRepo) UpdateStatusIf(ctx context.Context, id string, fromStatuses []string, toStatus string, reason string) (bool, error) {
	if m.updateStatusIfFunc != nil {
		return m.updateStatusIfFunc(ctx, id, fromStatuses, toStatus, reason)
	}
	return true, nil
}

func (m *mockApplicationRepo) CancelActiveByEvent(ctx context.Context, eventID string) (int64, error) {
	if m.cancelActiveEventFunc != nil {
		return m.cancelActiveEventFunc(ctx, eventID)
	}
	return 0, nil
}

func (m *mockApplicationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

type mockLockRepo struct {
	acquireFunc  func(ctx context.Context, allocationID string) error
	releaseFunc  func(ctx context.Context, allocationID string) error
	acquireOrder []string
	releaseOrder []string
}

func (m *mockLockRepo) Acquire(ctx context.Context, allocationID string) error {
	m.acquireOrder = append(m.acquireOrder, allocationID)
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, allocationID)
	}
	return nil
}

func (m *mockLockRepo) Release(ctx context.Context, allocationID string) error {
	m.releaseOrder = append(m.releaseOrder, allocationID)
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, allocationID)
	}
	return nil
}

type mockAllocationRepo struct {
	createFunc        func(ctx context.Context, allocation *model.EventFacilityAllocation) error
	findByIDFunc      func(ctx context.Context, id string) (*model.EventFacilityAllocation, error)
	findByIDsFunc     func(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error)
	findByEventIDFunc func(ctx context.Context, eventID string) ([]*model.EventFacilityAllocation, error)
	updateInPlaceFunc func(ctx context.Context, id string, allocation *model.EventFacilityAllocation) error
}

func (m *mockAllocationRepo) Create(ctx context.Context, allocation *model.EventFacilityAllocation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, allocation)
	}
	return nil
}

func (m *mockAllocationRepo) FindByID(ctx context.Context, id string) (*model.EventFacilityAllocation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAllocationRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error) {
	if m.findByIDsFunc != nil {
		return m.findByIDsFunc(ctx, ids)
	}
	return nil, nil
}

func (m *mockAllocationRepo) FindByEventID(ctx context.Context, eventID string) ([]*model.EventFacilityAllocation, error) {
	if m.findByEventIDFunc != nil {
		return m.findByEventIDFunc(ctx, eventID)
	}
	return nil, nil
}

func (m *mockAllocationRepo) UpdateInPlace(ctx context.Context, id string, allocation *model.EventFacilityAllocation) error {
	if m.updateInPlaceFunc != nil {
		return m.updateInPlaceFunc(ctx, id, allocation)
	}
	return nil
}

type mockEventRepo struct {
	createFunc               func(ctx context.Context, event *model.Event) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Event, error)
	findAllFunc              func(ctx context.Context, searchQuery string) ([]*model.Event, error)
	updateFunc               func(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error)
	markCancelledFunc        func(ctx context.Context, id string) error
	setApplicationStatusFunc func(ctx context.Context, id string, status string) error
	executeTransactionFunc   func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockEventRepo) Create(ctx context.Context, event *model.Event) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	return nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockEventRepo) FindAll(ctx context.Context, searchQuery string) ([]*model.Event, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, searchQuery)
	}
	return nil, nil
}

func (m *mockEventRepo) Update(ctx context.Context, id string, event *model.Event) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, event)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockEventRepo) MarkCancelled(ctx context.Context, id string) error {
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(ctx, id)
	}
	return nil
}

func (m *mockEventRepo) SetApplicationStatus(ctx context.Context, id string, status string) error {
	if m.setApplicationStatusFunc != nil {
		return m.setApplicationStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockEventRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return m.err
}

// ────────────────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────────────────

const (
	allocationA = "65f000000000000000000a01"
	allocationB = "65f000000000000000000b02"
	eventID     = "65f0000000000000000000e1"
	facilityID  = "65f0000000000000000000f1"
	businessID  = "65f0000000000000000000b1"
)

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "applications-test",
	})
	return &config.Config{
		Log:                        log,
		ReadTimeout:                5 * time.Second,
		MaxFacilitiesPerSubmission: 5,
	}
}

func testAllocation(id string) *model.EventFacilityAllocation {
	return &model.EventFacilityAllocation{
		ID:              id,
		EventID:         eventID,
		FacilityID:      facilityID,
		FacilityName:    "Booth A",
		Quantity:        10,
		MaxPerBusiness:  3,
		StudentPrice:    5000,
		NonStudentPrice: 8000,
	}
}

func openEvent() *model.Event {
	return &model.Event{
		ID:                eventID,
		Name:              "Spring Carnival",
		ApplicationStatus: model.ApplicationsOpen,
	}
}

func allocationsForIDs(allocations ...*model.EventFacilityAllocation) func(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error) {
	return func(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error) {
		return allocations, nil
	}
}

func newTestService(apps *mockApplicationRepo, locks *mockLockRepo, allocations *mockAllocationRepo, events *mockEventRepo, publisher Publisher) ApplicationService {
	cfg := testConfig()
	v := validator.NewApplicationValidator(cfg.Log)
	return NewApplicationService(apps, locks, allocations, events, v, publisher, cfg)
}

func submission(lines ...model.ApplicationLine) *model.ApplicationSubmission {
	return &model.ApplicationSubmission{
		BusinessID:        businessID,
		ApplicantCategory: model.CategoryStudent,
		ContactName:       "Aina Rahman",
		Facilities:        lines,
	}
}

// ────────────────────────────────────────────────────────────
// Submit
// ────────────────────────────────────────────────────────────

func TestSubmitSuccess(t *testing.T) {
	var inserted []*model.Application
	apps := &mockApplicationRepo{
		createFunc: func(ctx context.Context, application *model.Application) error {
			application.ID = "65f00000000000000000aa01"
			inserted = append(inserted, application)
			return nil
		},
	}
	locks := &mockLockRepo{}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}
	publisher := &mockPublisher{}

	svc := newTestService(apps, locks, allocations, events, publisher)

	created, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 2}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 application, got %d", len(created))
	}

	app := created[0]
	if app.Status != model.StatusPending {
		t.Errorf("expected status PENDING, got %s", app.Status)
	}
	if app.EventID != eventID {
		t.Errorf("expected denormalized event id %s, got %s", eventID, app.EventID)
	}
	if app.UnitPrice != 5000 {
		t.Errorf("expected student price 5000, got %d", app.UnitPrice)
	}
	if len(inserted) != 1 {
		t.Errorf("expected 1 insert, got %d", len(inserted))
	}
	if len(locks.acquireOrder) != 1 || len(locks.releaseOrder) != 1 {
		t.Errorf("expected lock acquired and released once, got acquire=%d release=%d",
			len(locks.acquireOrder), len(locks.releaseOrder))
	}
	if len(publisher.published) != 1 {
		t.Errorf("expected 1 published message, got %d", len(publisher.published))
	}
}

func TestSubmitResolvesNonStudentPrice(t *testing.T) {
	apps := &mockApplicationRepo{}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

	sub := submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1})
	sub.ApplicantCategory = model.CategoryNonStudent

	created, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created[0].UnitPrice != 8000 {
		t.Errorf("expected non-student price 8000, got %d", created[0].UnitPrice)
	}
}

func TestSubmitQuotaExceeded(t *testing.T) {
	// 10 total, 8 already consumed, 3 requested: only 2 remain.
	apps := &mockApplicationRepo{
		sumActiveFunc: func(ctx context.Context, allocationID string) (int, error) {
			return 8, nil
		},
		createFunc: func(ctx context.Context, application *model.Application) error {
			t.Fatal("no application should be inserted when quota is exceeded")
			return nil
		},
	}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

	_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 3}))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeQuotaExceeded {
		t.Errorf("expected code %s, got %s", apperrors.CodeQuotaExceeded, appErr.Code)
	}
	if appErr.Details["remaining"] != 2 {
		t.Errorf("expected remaining 2 in details, got %v", appErr.Details["remaining"])
	}
}

func TestSubmitDuplicateActiveApplication(t *testing.T) {
	apps := &mockApplicationRepo{
		existsActiveFunc: func(ctx context.Context, allocationID, businessID string) (bool, error) {
			return true, nil
		},
	}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

	_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeDuplicateApplication {
		t.Errorf("expected code %s, got %s", apperrors.CodeDuplicateApplication, appErr.Code)
	}
}

func TestSubmitPerBusinessCapExceeded(t *testing.T) {
	apps := &mockApplicationRepo{
		sumActiveBusinessFunc: func(ctx context.Context, allocationID, businessID string) (int, error) {
			return 3, nil
		},
	}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

	_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeQuotaExceeded {
		t.Errorf("expected code %s, got %s", apperrors.CodeQuotaExceeded, appErr.Code)
	}
}

func TestSubmitRejectedWhenEventNotAccepting(t *testing.T) {
	tests := []struct {
		name  string
		event *model.Event
	}{
		{"closed applications", &model.Event{ID: eventID, Name: "Closed Fair", ApplicationStatus: model.ApplicationsClosed}},
		{"cancelled event", &model.Event{ID: eventID, Name: "Gone Fair", ApplicationStatus: model.ApplicationsOpen, Cancelled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := &mockApplicationRepo{}
			allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
			events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
				return tt.event, nil
			}}

			svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

			_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
			appErr, ok := apperrors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
			}
		})
	}
}

func TestSubmitMultiLineAbortsAllOnOneFailure(t *testing.T) {
	apps := &mockApplicationRepo{
		sumActiveFunc: func(ctx context.Context, allocationID string) (int, error) {
			if allocationID == allocationB {
				return 10, nil // second line fully booked
			}
			return 0, nil
		},
	}
	allocations := &mockAllocationRepo{
		findByIDsFunc: allocationsForIDs(testAllocation(allocationA), testAllocation(allocationB)),
	}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, nil)

	created, err := svc.Submit(context.Background(), submission(
		model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1},
		model.ApplicationLine{EventFacilityID: allocationB, Quantity: 1},
	))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if created != nil {
		t.Errorf("expected no created applications, got %d", len(created))
	}
	// The transaction aborts, so the first line's insert never commits;
	// the service must still surface the failure for the whole batch.
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.CodeQuotaExceeded {
		t.Errorf("expected quota error for the batch, got %v", err)
	}
}

func TestSubmitLockContention(t *testing.T) {
	locks := &mockLockRepo{
		acquireFunc: func(ctx context.Context, allocationID string) error {
			return applicationserrors.ErrLockHeld
		},
	}
	apps := &mockApplicationRepo{
		executeTransactionFunc: func(ctx context.Context, fn mongotx.TransactionFunc) error {
			t.Fatal("transaction must not run when the lock is held elsewhere")
			return nil
		},
	}

	svc := newTestService(apps, locks, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}
}

func TestSubmitAcquiresLocksInSortedOrder(t *testing.T) {
	locks := &mockLockRepo{}
	allocations := &mockAllocationRepo{
		findByIDsFunc: allocationsForIDs(testAllocation(allocationA), testAllocation(allocationB)),
	}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(&mockApplicationRepo{}, locks, allocations, events, nil)

	// Lines deliberately out of id order.
	_, err := svc.Submit(context.Background(), submission(
		model.ApplicationLine{EventFacilityID: allocationB, Quantity: 1},
		model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locks.acquireOrder) != 2 {
		t.Fatalf("expected 2 lock acquisitions, got %d", len(locks.acquireOrder))
	}
	if locks.acquireOrder[0] != allocationA || locks.acquireOrder[1] != allocationB {
		t.Errorf("expected sorted acquisition order [%s %s], got %v", allocationA, allocationB, locks.acquireOrder)
	}
}

func TestSubmitReleasesLocksOnFailure(t *testing.T) {
	locks := &mockLockRepo{}
	apps := &mockApplicationRepo{
		existsActiveFunc: func(ctx context.Context, allocationID, businessID string) (bool, error) {
			return true, nil
		},
	}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}

	svc := newTestService(apps, locks, allocations, events, nil)

	if _, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1})); err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(locks.releaseOrder) != 1 {
		t.Errorf("expected lock released after failure, got %d releases", len(locks.releaseOrder))
	}
}

func TestSubmitUnknownAllocation(t *testing.T) {
	allocations := &mockAllocationRepo{
		findByIDsFunc: func(ctx context.Context, ids []string) ([]*model.EventFacilityAllocation, error) {
			return nil, nil
		},
	}

	svc := newTestService(&mockApplicationRepo{}, &mockLockRepo{}, allocations, &mockEventRepo{}, nil)

	_, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestSubmitInvalidPhone(t *testing.T) {
	svc := newTestService(&mockApplicationRepo{}, &mockLockRepo{}, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	sub := submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1})
	sub.ContactPhone = "not-a-phone"

	_, err := svc.Submit(context.Background(), sub)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestSubmitDuplicateLinesInBatch(t *testing.T) {
	svc := newTestService(&mockApplicationRepo{}, &mockLockRepo{}, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	_, err := svc.Submit(context.Background(), submission(
		model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1},
		model.ApplicationLine{EventFacilityID: allocationA, Quantity: 2},
	))
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestSubmitPublishFailureDoesNotFailSubmission(t *testing.T) {
	apps := &mockApplicationRepo{}
	allocations := &mockAllocationRepo{findByIDsFunc: allocationsForIDs(testAllocation(allocationA))}
	events := &mockEventRepo{findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
		return openEvent(), nil
	}}
	publisher := &mockPublisher{err: context.DeadlineExceeded}

	svc := newTestService(apps, &mockLockRepo{}, allocations, events, publisher)

	created, err := svc.Submit(context.Background(), submission(model.ApplicationLine{EventFacilityID: allocationA, Quantity: 1}))
	if err != nil {
		t.Fatalf("publish failure must not fail the submission: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("expected 1 application, got %d", len(created))
	}
}

// ────────────────────────────────────────────────────────────
// GetAll
// ────────────────────────────────────────────────────────────

func TestGetAllUnknownStatusFilter(t *testing.T) {
	svc := newTestService(&mockApplicationRepo{}, &mockLockRepo{}, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	_, _, err := svc.GetAll(context.Background(), model.ApplicationFilter{Status: "WAITING"}, 10, 0)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestGetAllReturnsCountAndPage(t *testing.T) {
	apps := &mockApplicationRepo{
		countFunc: func(ctx context.Context, filter model.ApplicationFilter) (int64, error) {
			return 42, nil
		},
		findAllFunc: func(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, error) {
			return []*model.Application{{ID: "65f00000000000000000aa01"}}, nil
		},
	}

	svc := newTestService(apps, &mockLockRepo{}, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	applications, total, err := svc.GetAll(context.Background(), model.ApplicationFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 42 {
		t.Errorf("expected total 42, got %d", total)
	}
	if len(applications) != 1 {
		t.Errorf("expected 1 application, got %d", len(applications))
	}
}

// ────────────────────────────────────────────────────────────
// GetAvailability
// ────────────────────────────────────────────────────────────

func TestGetAvailability(t *testing.T) {
	tests := []struct {
		name             string
		consumed         int
		businessConsumed int
		hasActive        bool
		expected         model.AllocationAvailability
	}{
		{
			name:     "fresh allocation",
			consumed: 0, businessConsumed: 0, hasActive: false,
			expected: model.AllocationAvailability{Remaining: 10, RemainingForBusiness: 3, MaxSelectable: 3},
		},
		{
			name:     "global quota binds",
			consumed: 8, businessConsumed: 0, hasActive: false,
			expected: model.AllocationAvailability{Remaining: 2, RemainingForBusiness: 3, MaxSelectable: 2},
		},
		{
			name:     "fully booked",
			consumed: 10, businessConsumed: 0, hasActive: false,
			expected: model.AllocationAvailability{Remaining: 0, RemainingForBusiness: 3, MaxSelectable: 0, FullyBooked: true},
		},
		{
			name:     "business cap reached",
			consumed: 1, businessConsumed: 3, hasActive: false,
			expected: model.AllocationAvailability{Remaining: 9, RemainingForBusiness: 0, MaxSelectable: 0, QuotaReached: true},
		},
		{
			name:     "active application blocks selection",
			consumed: 2, businessConsumed: 2, hasActive: true,
			expected: model.AllocationAvailability{Remaining: 8, RemainingForBusiness: 1, MaxSelectable: 0, QuotaReached: true, HasActiveApplication: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apps := &mockApplicationRepo{
				sumActiveFunc: func(ctx context.Context, allocationID string) (int, error) {
					return tt.consumed, nil
				},
				sumActiveBusinessFunc: func(ctx context.Context, allocationID, businessID string) (int, error) {
					return tt.businessConsumed, nil
				},
				existsActiveFunc: func(ctx context.Context, allocationID, businessID string) (bool, error) {
					return tt.hasActive, nil
				},
			}
			allocations := &mockAllocationRepo{
				findByIDFunc: func(ctx context.Context, id string) (*model.EventFacilityAllocation, error) {
					return testAllocation(allocationA), nil
				},
			}

			svc := newTestService(apps, &mockLockRepo{}, allocations, &mockEventRepo{}, nil)

			availability, err := svc.GetAvailability(context.Background(), allocationA, businessID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if availability.Remaining != tt.expected.Remaining {
				t.Errorf("remaining: expected %d, got %d", tt.expected.Remaining, availability.Remaining)
			}
			if availability.RemainingForBusiness != tt.expected.RemainingForBusiness {
				t.Errorf("remaining for business: expected %d, got %d", tt.expected.RemainingForBusiness, availability.RemainingForBusiness)
			}
			if availability.MaxSelectable != tt.expected.MaxSelectable {
				t.Errorf("max selectable: expected %d, got %d", tt.expected.MaxSelectable, availability.MaxSelectable)
			}
			if availability.FullyBooked != tt.expected.FullyBooked {
				t.Errorf("fully booked: expected %v, got %v", tt.expected.FullyBooked, availability.FullyBooked)
			}
			if availability.QuotaReached != tt.expected.QuotaReached {
				t.Errorf("quota reached: expected %v, got %v", tt.expected.QuotaReached, availability.QuotaReached)
			}
		})
	}
}

func TestGetAvailabilityRequiresBusinessID(t *testing.T) {
	svc := newTestService(&mockApplicationRepo{}, &mockLockRepo{}, &mockAllocationRepo{}, &mockEventRepo{}, nil)

	_, err := svc.GetAvailability(context.Background(), allocationA, "")
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

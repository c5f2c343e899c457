package service

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	facilitieserrors "campusrent/internal/facilities/errors"
	"campusrent/internal/facilities/validator"
	"campusrent/pkg/config"
	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

// ────────────────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────────────────

type mockFacilityRepo struct {
	createFunc    func(ctx context.Context, facility *model.FacilityTemplate) error
	findByIDFunc  func(ctx context.Context, id string) (*model.FacilityTemplate, error)
	findAllFunc   func(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, error)
	countFunc     func(ctx context.Context, activeOnly bool) (int64, error)
	updateFunc    func(ctx context.Context, id string, facility *model.FacilityTemplate) (*mongo.UpdateResult, error)
	setActiveFunc func(ctx context.Context, id string, active bool) error
}

func (m *mockFacilityRepo) Create(ctx context.Context, facility *model.FacilityTemplate) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, facility)
	}
	facility.ID = "65f0000000000000000000f1"
	return nil
}

func (m *mockFacilityRepo) FindByID(ctx context.Context, id string) (*model.FacilityTemplate, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, facilitieserrors.ErrNotFound
}

func (m *mockFacilityRepo) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, activeOnly, limit, offset)
	}
	return nil, nil
}

func (m *mockFacilityRepo) Count(ctx context.Context, activeOnly bool) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, activeOnly)
	}
	return 0, nil
}

func (m *mockFacilityRepo) Update(ctx context.Context, id string, facility *model.FacilityTemplate) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, facility)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockFacilityRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, id, active)
	}
	return nil
}

// ────────────────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────────────────

const facilityID = "65f0000000000000000000f1"

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "facilities-test",
	})
	return &config.Config{
		Log:         log,
		ReadTimeout: 5 * time.Second,
	}
}

func newTestService(repo *mockFacilityRepo) FacilityService {
	cfg := testConfig()
	return NewFacilityService(repo, validator.NewFacilityValidator(cfg.Log), cfg)
}

func testFacility() *model.FacilityTemplate {
	return &model.FacilityTemplate{
		Name:            "Canopy 10x10",
		Size:            "10x10",
		Type:            "canopy",
		StudentPrice:    5000,
		NonStudentPrice: 8000,
	}
}

// ────────────────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────────────────

func TestCreateFacilityActivatesByDefault(t *testing.T) {
	var created *model.FacilityTemplate
	repo := &mockFacilityRepo{
		createFunc: func(ctx context.Context, facility *model.FacilityTemplate) error {
			facility.ID = facilityID
			created = facility
			return nil
		},
	}

	svc := newTestService(repo)

	if err := svc.Create(context.Background(), testFacility()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected the repository create to run")
	}
	if !created.Active {
		t.Error("expected a new facility to be active")
	}
}

func TestCreateFacilityValidationFailure(t *testing.T) {
	svc := newTestService(&mockFacilityRepo{})

	facility := testFacility()
	facility.Name = "x" // below the 2-char minimum

	err := svc.Create(context.Background(), facility)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestService(&mockFacilityRepo{})

	_, err := svc.GetByID(context.Background(), facilityID)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestGetByIDEmptyID(t *testing.T) {
	svc := newTestService(&mockFacilityRepo{})

	_, err := svc.GetByID(context.Background(), "")
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestGetAllReturnsCountAndPage(t *testing.T) {
	repo := &mockFacilityRepo{
		countFunc: func(ctx context.Context, activeOnly bool) (int64, error) {
			return 12, nil
		},
		findAllFunc: func(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, error) {
			return []*model.FacilityTemplate{testFacility(), testFacility()}, nil
		},
	}

	svc := newTestService(repo)

	facilities, total, err := svc.GetAll(context.Background(), false, 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Errorf("expected total 12, got %d", total)
	}
	if len(facilities) != 2 {
		t.Errorf("expected 2 facilities, got %d", len(facilities))
	}
}

func TestGetAllPassesActiveFilter(t *testing.T) {
	var sawActiveOnly bool
	repo := &mockFacilityRepo{
		findAllFunc: func(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.FacilityTemplate, error) {
			sawActiveOnly = activeOnly
			return nil, nil
		},
	}

	svc := newTestService(repo)

	if _, _, err := svc.GetAll(context.Background(), true, 10, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawActiveOnly {
		t.Error("expected activeOnly to reach the repository")
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	existing := testFacility()
	existing.ID = facilityID
	existing.Active = true
	existing.Description = "Original description"

	var persisted *model.FacilityTemplate
	repo := &mockFacilityRepo{
		findByIDFunc: func(ctx context.Context, id string) (*model.FacilityTemplate, error) {
			return existing, nil
		},
		updateFunc: func(ctx context.Context, id string, facility *model.FacilityTemplate) (*mongo.UpdateResult, error) {
			persisted = facility
			return &mongo.UpdateResult{MatchedCount: 1}, nil
		},
	}

	svc := newTestService(repo)

	newPrice := int64(6000)
	merged, err := svc.Update(context.Background(), facilityID, &model.FacilityTemplateUpdate{
		Name:         "Canopy 20x20",
		StudentPrice: &newPrice,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if merged.Name != "Canopy 20x20" {
		t.Errorf("expected updated name, got %q", merged.Name)
	}
	if merged.StudentPrice != 6000 {
		t.Errorf("expected updated student price, got %d", merged.StudentPrice)
	}
	if merged.Description != "Original description" {
		t.Errorf("expected untouched description, got %q", merged.Description)
	}
	if merged.Size != "10x10" {
		t.Errorf("expected untouched size, got %q", merged.Size)
	}
	if persisted == nil {
		t.Fatal("expected the repository update to run")
	}
	if persisted.ID != facilityID {
		t.Errorf("expected id preserved, got %q", persisted.ID)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(&mockFacilityRepo{})

	_, err := svc.Update(context.Background(), facilityID, &model.FacilityTemplateUpdate{Name: "Renamed"})
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestDeactivateAndActivate(t *testing.T) {
	var flags []bool
	repo := &mockFacilityRepo{
		setActiveFunc: func(ctx context.Context, id string, active bool) error {
			flags = append(flags, active)
			return nil
		},
	}

	svc := newTestService(repo)

	if err := svc.Deactivate(context.Background(), facilityID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Activate(context.Background(), facilityID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flags) != 2 || flags[0] || !flags[1] {
		t.Errorf("expected [false true], got %v", flags)
	}
}

func TestDeactivateNotFound(t *testing.T) {
	repo := &mockFacilityRepo{
		setActiveFunc: func(ctx context.Context, id string, active bool) error {
			return facilitieserrors.ErrNotFound
		},
	}

	svc := newTestService(repo)

	err := svc.Deactivate(context.Background(), facilityID)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

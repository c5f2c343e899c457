package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "campusrent/pkg/errors"
	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

type mockApplicationService struct {
	submitFunc          func(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error)
	getAllFunc          func(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, int64, error)
	getAvailabilityFunc func(ctx context.Context, allocationID, businessID string) (*model.AllocationAvailability, error)
}

func (m *mockApplicationService) Submit(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, submission)
	}
	return nil, nil
}

func (m *mockApplicationService) GetAll(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, filter, limit, offset)
	}
	return nil, 0, nil
}

func (m *mockApplicationService) GetAvailability(ctx context.Context, allocationID, businessID string) (*model.AllocationAvailability, error) {
	if m.getAvailabilityFunc != nil {
		return m.getAvailabilityFunc(ctx, allocationID, businessID)
	}
	return nil, nil
}

func testHandler(svc *mockApplicationService) *ApplicationHandler {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return &ApplicationHandler{service: svc, log: log}
}

func TestSubmitInvalidBody(t *testing.T) {
	h := testHandler(&mockApplicationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	h.Submit(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestSubmitCreated(t *testing.T) {
	svc := &mockApplicationService{
		submitFunc: func(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error) {
			return []*model.Application{{ID: "65f00000000000000000aa01", Status: model.StatusPending}}, nil
		},
	}
	h := testHandler(svc)

	body := `{"business_id":"65f0000000000000000000b1","applicant_category":"STUDENT","facilities":[{"event_facility_id":"65f000000000000000000a01","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Submit(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	var response struct {
		Success bool                `json:"success"`
		Data    []model.Application `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("expected success envelope")
	}
	if len(response.Data) != 1 || response.Data[0].Status != model.StatusPending {
		t.Errorf("unexpected payload: %+v", response.Data)
	}
}

func TestSubmitQuotaExceededMapsToConflict(t *testing.T) {
	svc := &mockApplicationService{
		submitFunc: func(ctx context.Context, submission *model.ApplicationSubmission) ([]*model.Application, error) {
			return nil, apperrors.QuotaExceeded("Only 2 units of Booth A remain", map[string]any{"remaining": 2})
		},
	}
	h := testHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	h.Submit(w, req, httprouter.Params{})

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", w.Code)
	}

	var response struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Details["remaining"] != float64(2) {
		t.Errorf("expected remaining detail, got %v", response.Details)
	}
}

func TestGetAllPassesFilter(t *testing.T) {
	var received model.ApplicationFilter
	svc := &mockApplicationService{
		getAllFunc: func(ctx context.Context, filter model.ApplicationFilter, limit int, offset int64) ([]*model.Application, int64, error) {
			received = filter
			return nil, 0, nil
		},
	}
	h := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications?event_id=e1&status=PENDING&business_id=b1&sort=asc", nil)
	w := httptest.NewRecorder()

	h.GetAll(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if received.EventID != "e1" || received.Status != "PENDING" || received.BusinessID != "b1" || received.SortOrder != "asc" {
		t.Errorf("filter not passed through: %+v", received)
	}
}

func TestGetAllInvalidLimit(t *testing.T) {
	h := testHandler(&mockApplicationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications?limit=abc", nil)
	w := httptest.NewRecorder()

	h.GetAll(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGetAvailabilityPassesIDs(t *testing.T) {
	var gotAllocation, gotBusiness string
	svc := &mockApplicationService{
		getAvailabilityFunc: func(ctx context.Context, allocationID, businessID string) (*model.AllocationAvailability, error) {
			gotAllocation = allocationID
			gotBusiness = businessID
			return &model.AllocationAvailability{AllocationID: allocationID, Remaining: 4, MaxSelectable: 2}, nil
		},
	}
	h := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/allocations/id/a1/availability?business_id=b1", nil)
	w := httptest.NewRecorder()

	h.GetAvailability(w, req, httprouter.Params{{Key: "id", Value: "a1"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if gotAllocation != "a1" || gotBusiness != "b1" {
		t.Errorf("expected ids passed through, got allocation=%q business=%q", gotAllocation, gotBusiness)
	}

	var response struct {
		Data model.AllocationAvailability `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.MaxSelectable != 2 {
		t.Errorf("expected max_selectable 2, got %d", response.Data.MaxSelectable)
	}
}

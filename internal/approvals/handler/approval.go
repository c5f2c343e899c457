package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"campusrent/internal/approvals/service"
	httputil "campusrent/pkg/http"
	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

type ApprovalHandler struct {
	service service.ApprovalService
	log     *logger.Logger
}

func NewApprovalHandler(service service.ApprovalService, log *logger.Logger) *ApprovalHandler {
	return &ApprovalHandler{
		service: service,
		log:     log,
	}
}

func (h *ApprovalHandler) RegisterRoutes(router *httprouter.Router) {
	router.PATCH("/api/v1/approvals/id/:id/approve", h.Approve)
	router.PATCH("/api/v1/approvals/id/:id/reject", h.Reject)
	router.PATCH("/api/v1/approvals/id/:id/revert", h.Revert)
	router.POST("/api/v1/approvals/bulk-approve", h.BulkApprove)
	router.POST("/api/v1/approvals/bulk-reject", h.BulkReject)
	router.POST("/api/v1/approvals/bulk-revert", h.BulkRevert)
	router.GET("/api/v1/approvals/id/:id/payment-status", h.PaymentStatus)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type bulkRequest struct {
	IDs    []string `json:"ids"`
	Reason string   `json:"reason,omitempty"`
}

func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	application, err := h.service.Approve(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Approve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, "Application approved successfully", application); err != nil {
		h.log.Error("failed to write success response", "handler", "Approve", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	// Body is optional; an empty body means no rejection reason.
	var req rejectRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
				Message: "Invalid request body",
			}); writeErr != nil {
				h.log.Error("failed to write JSON response", "handler", "Reject", "operation", "WriteJSON", "error", writeErr)
			}
			return
		}
	}

	application, err := h.service.Reject(r.Context(), id, req.Reason)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Reject", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, "Application rejected successfully", application); err != nil {
		h.log.Error("failed to write success response", "handler", "Reject", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ApprovalHandler) Revert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	result, err := h.service.Revert(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Revert", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	message := "Application reverted successfully"
	if result.Warning != "" {
		message = result.Warning
	}

	if err := httputil.WriteSuccess(w, message, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Revert", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ApprovalHandler) BulkApprove(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.handleBulk(w, r, "BulkApprove", func(r *http.Request, req bulkRequest) ([]model.BulkOutcome, error) {
		return h.service.BulkApprove(r.Context(), req.IDs)
	})
}

func (h *ApprovalHandler) BulkReject(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.handleBulk(w, r, "BulkReject", func(r *http.Request, req bulkRequest) ([]model.BulkOutcome, error) {
		return h.service.BulkReject(r.Context(), req.IDs, req.Reason)
	})
}

func (h *ApprovalHandler) BulkRevert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.handleBulk(w, r, "BulkRevert", func(r *http.Request, req bulkRequest) ([]model.BulkOutcome, error) {
		return h.service.BulkRevert(r.Context(), req.IDs)
	})
}

func (h *ApprovalHandler) handleBulk(w http.ResponseWriter, r *http.Request, name string, op func(r *http.Request, req bulkRequest) ([]model.BulkOutcome, error)) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Message: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	outcomes, err := op(r, req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, "Bulk operation completed", outcomes); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ApprovalHandler) PaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	status, err := h.service.PaymentStatus(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PaymentStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, "", status); err != nil {
		h.log.Error("failed to write success response", "handler", "PaymentStatus", "operation", "WriteSuccess", "error", err)
	}
}

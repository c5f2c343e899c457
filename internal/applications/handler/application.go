package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"campusrent/internal/applications/service"
	httputil "campusrent/pkg/http"
	"campusrent/pkg/logger"
	"campusrent/pkg/model"
)

type ApplicationHandler struct {
	service service.ApplicationService
	log     *logger.Logger
}

func NewApplicationHandler(service service.ApplicationService, log *logger.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		log:     log,
	}
}

func (h *ApplicationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/applications", h.Submit)
	router.GET("/api/v1/applications", h.GetAll)
	router.GET("/api/v1/allocations/id/:id/availability", h.GetAvailability)
}

func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var submission model.ApplicationSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
			Message: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Submit", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	created, err := h.service.Submit(r.Context(), &submission)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, "Application submitted successfully", created); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *ApplicationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	query := r.URL.Query()
	filter := model.ApplicationFilter{
		EventID:     query.Get("event_id"),
		Status:      query.Get("status"),
		BusinessID:  query.Get("business_id"),
		SearchQuery: query.Get("search_query"),
		SortOrder:   query.Get("sort"),
	}

	applications, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, applications, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ApplicationHandler) GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	allocationID := ps.ByName("id")
	businessID := r.URL.Query().Get("business_id")

	availability, err := h.service.GetAvailability(r.Context(), allocationID, businessID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAvailability", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, "", availability); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailability", "operation", "WriteSuccess", "error", err)
	}
}

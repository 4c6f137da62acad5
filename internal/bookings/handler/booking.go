package handler

import (
	"net/http"

	"appointly/internal/authz"
	"appointly/internal/bookings/service"
	"appointly/pkg/contracts"
	httputil "appointly/pkg/http"
	"appointly/pkg/logger"
	"appointly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    contracts.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth contracts.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.BookingCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.Create(r.Context(), p, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	booking, err := h.service.GetByID(r.Context(), p, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	from, err := httputil.QueryDate(r, "from")
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	to, err := httputil.QueryDate(r, "to")
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{
		Status:     model.BookingStatus(query.Get("status")),
		ServiceID:  query.Get("service_id"),
		ProviderID: query.Get("provider_id"),
		CustomerID: query.Get("customer_id"),
		From:       from,
		To:         to,
	}

	bookings, total, err := h.service.GetAll(r.Context(), p, filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.StatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), p, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteMessage(w, "Booking status updated successfully", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.RescheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	booking, err := h.service.Reschedule(r.Context(), p, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteMessage(w, "Booking rescheduled successfully", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "operation", "WriteMessage", "error", err)
	}
}

// Cancel accepts an empty body; the reason is optional.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.CancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Cancel", err)
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), p, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteMessage(w, "Booking cancelled successfully", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, _ := authz.FromContext(r.Context())

	var req model.FeedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SubmitFeedback", err)
		return
	}

	booking, err := h.service.SubmitFeedback(r.Context(), p, ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "SubmitFeedback", err)
		return
	}

	if err := httputil.WriteMessage(w, "Feedback submitted successfully", booking); err != nil {
		h.log.Error("failed to write success response", "handler", "SubmitFeedback", "operation", "WriteMessage", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth.Require(h.Create))
	router.GET("/api/v1/bookings", h.auth.Require(h.GetAll))
	router.GET("/api/v1/bookings/:id", h.auth.Require(h.GetByID))
	router.PUT("/api/v1/bookings/:id/status", h.auth.Require(h.UpdateStatus))
	router.PUT("/api/v1/bookings/:id/reschedule", h.auth.Require(h.Reschedule))
	router.PUT("/api/v1/bookings/:id/cancel", h.auth.Require(h.Cancel))
	router.POST("/api/v1/bookings/:id/feedback", h.auth.Require(h.SubmitFeedback))
}

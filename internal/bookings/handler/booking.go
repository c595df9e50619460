package handler

import (
	"net/http"

	"carbroker/internal/bookings/service"
	apperrors "carbroker/pkg/errors"
	httputil "carbroker/pkg/http"
	"carbroker/pkg/logger"
	"carbroker/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// Create answers 201 for a clean booking and 202 with a warning when the
// vendor reply was ambiguous.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	confirmation, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if confirmation.Ambiguous {
		h.log.Warn("Returning ambiguous booking to client",
			"reservation_number", confirmation.ReservationNumber,
			"vehicle", confirmation.Identity.String(),
		)
		httputil.WriteAccepted(w, confirmation, apperrors.CodeVendorAmbiguous, confirmation.Warning)
		return
	}
	httputil.WriteCreated(w, confirmation)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	cancellation, err := h.service.Cancel(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.SuccessResponse{Data: cancellation, Warning: cancellation.Warning})
}

func (h *BookingHandler) ActiveLocks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locks := h.service.ActiveLocks(r.Context())
	httputil.WriteList(w, locks, len(locks))
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.PUT("/api/v1/reservations/cancel", h.Cancel)
	router.GET("/api/v1/reservations/locks", h.ActiveLocks)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	bookingRepo "salonbook/database/repository/booking"
	notifylogRepo "salonbook/database/repository/notifylog"
	"salonbook/models"
	"salonbook/services/booking"
	"salonbook/services/export"
	"salonbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service  booking.BookingService
	Repo     bookingRepo.BookingRepository
	LogRepo  notifylogRepo.NotificationLogRepository
	Location *time.Location
	Logger   *zap.Logger
}

func NewBookingHandler(
	svc booking.BookingService,
	repo bookingRepo.BookingRepository,
	logRepo notifylogRepo.NotificationLogRepository,
	loc *time.Location,
	logger *zap.Logger,
) *BookingHandler {
	return &BookingHandler{
		Service:  svc,
		Repo:     repo,
		LogRepo:  logRepo,
		Location: loc,
		Logger:   logger,
	}
}

// GetAvailableSlotsHandler lists bookable start times for a salon/date.
func (h *BookingHandler) GetAvailableSlotsHandler(c *gin.Context) {
	salonID := c.Query("salonId")
	date := c.Query("date")
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "30"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid duration", err.Error())
		return
	}

	day, err := h.Service.GetAvailableSlots(c.Request.Context(), salonID, date, duration)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// CreateBookingHandler creates a PENDING booking for the caller.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	clientID := c.GetString("userID")
	created, err := h.Service.CreateBooking(c.Request.Context(), input, clientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ConfirmBookingHandler moves a booking to CONFIRMED.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	updated, err := h.Service.ConfirmBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CancelBookingHandler cancels a booking with a required reason.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "a cancellation reason is required", err.Error())
		return
	}

	actorID := c.GetString("userID")
	updated, err := h.Service.CancelBooking(c.Request.Context(), c.Param("id"), actorID, input.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CompleteBookingHandler moves a booking to COMPLETED.
func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	updated, err := h.Service.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AttachCalendarEventHandler records an external calendar event id.
// Consumer-facing; not part of the client API.
func (h *BookingHandler) AttachCalendarEventHandler(c *gin.Context) {
	var input struct {
		EventID string `json:"eventId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "eventId is required", err.Error())
		return
	}

	updated, err := h.Service.AttachExternalCalendarEventID(c.Request.Context(), c.Param("id"), input.EventID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ExportICSHandler returns the booking as an RFC 5545 calendar file.
func (h *BookingHandler) ExportICSHandler(c *gin.Context) {
	b, err := h.Repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "booking not found", c.Param("id"))
			return
		}
		h.Logger.Error("failed to load booking for export", zap.String("bookingID", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to load booking", "unexpected failure")
		return
	}

	ics := export.RenderICS([]models.Booking{*b}, h.Location)
	c.Header("Content-Disposition", "attachment; filename=booking.ics")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// NotificationLogHandler lists dispatch outcomes for a booking.
func (h *BookingHandler) NotificationLogHandler(c *gin.Context) {
	entries, err := h.LogRepo.FindByBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to load notification log", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// respondError maps domain error codes to HTTP statuses. Conflict and
// invalid-state responses carry the current slot/status detail so the
// client can decide how to retry.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	switch booking.CodeOf(err) {
	case booking.CodeValidation:
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
	case booking.CodeNotFound:
		utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
	case booking.CodeConflict:
		utils.JSONError(c, http.StatusConflict, "slot conflict", err.Error())
	case booking.CodeInvalidState:
		utils.JSONError(c, http.StatusConflict, "invalid state", err.Error())
	case booking.CodeUpstream:
		utils.JSONError(c, http.StatusBadGateway, "upstream unavailable", err.Error())
	case booking.CodeTimeout:
		utils.JSONError(c, http.StatusGatewayTimeout, "upstream timeout", err.Error())
	default:
		h.Logger.Error("unhandled booking error", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", "unexpected failure")
	}
}

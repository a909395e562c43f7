package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vetdesk/backend/internal/domain"
	"vetdesk/backend/internal/metrics"
	"vetdesk/backend/internal/service/availability"
	"vetdesk/backend/internal/store"
)

const (
	dateLayout = "2006-01-02"

	minDurationMinutes = 5
	maxDurationMinutes = 480
)

type availabilityService interface {
	ListAvailableSlots(ctx context.Context, in availability.ListInput) (availability.ListResult, error)
	AdmitBooking(ctx context.Context, in availability.AdmitInput) (domain.Booking, error)
}

// SchedulingServer exposes slot listing and booking admission over HTTP.
type SchedulingServer struct {
	svc availabilityService
	log *slog.Logger
}

func NewSchedulingServer(svc availabilityService, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		svc: svc,
		log: log.With(slog.String("component", "http.scheduling")),
	}
}

type slotResponse struct {
	StaffID   string `json:"staff_id"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type listSlotsResponse struct {
	Date            string            `json:"date"`
	DurationMinutes int               `json:"duration_minutes"`
	Slots           []slotResponse    `json:"slots"`
	StaffErrors     map[string]string `json:"staff_errors,omitempty"`
}

// ListSlots handles GET /api/v1/entities/:entity_id/slots.
func (s *SchedulingServer) ListSlots(c *gin.Context) {
	log := s.log.With(slog.String("handler", "ListSlots"))

	entityID, err := uuid.Parse(c.Param("entity_id"))
	if err != nil {
		badRequest(c, "entity_id must be a UUID")
		return
	}

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		badRequest(c, "date is required in YYYY-MM-DD form")
		return
	}

	duration, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || duration < minDurationMinutes || duration > maxDurationMinutes {
		badRequest(c, "duration_minutes must be an integer between 5 and 480")
		return
	}

	in := availability.ListInput{
		EntityID:        entityID,
		Date:            date,
		DurationMinutes: duration,
		Role:            c.Query("role"),
	}
	if raw := c.Query("staff_id"); raw != "" {
		staffID, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "staff_id must be a UUID")
			return
		}
		in.StaffID = staffID
	}

	result, err := s.svc.ListAvailableSlots(c.Request.Context(), in)
	if err != nil {
		s.writeServiceError(c, log, err)
		return
	}

	metrics.IncSlotListing()
	metrics.AddSlotListingStaffErrors(len(result.StaffErrors))

	resp := listSlotsResponse{
		Date:            result.Date.Format(dateLayout),
		DurationMinutes: result.DurationMinutes,
		Slots:           make([]slotResponse, 0, len(result.Slots)),
	}
	for _, slot := range result.Slots {
		resp.Slots = append(resp.Slots, slotResponse{
			StaffID:   slot.StaffID.String(),
			Start:     slot.Window.Start.String(),
			End:       slot.Window.End.String(),
			Available: slot.Available,
			Reason:    slot.Reason,
		})
	}
	if len(result.StaffErrors) > 0 {
		resp.StaffErrors = make(map[string]string, len(result.StaffErrors))
		for id, reason := range result.StaffErrors {
			resp.StaffErrors[id.String()] = reason
		}
	}

	log.Debug(
		"slots listed",
		slog.String("entity_id", entityID.String()),
		slog.String("date", resp.Date),
		slog.Int("count", len(resp.Slots)),
		slog.Int("staff_errors", len(result.StaffErrors)),
	)
	c.JSON(http.StatusOK, resp)
}

type createBookingRequest struct {
	StaffID      string            `json:"staff_id"`
	Date         string            `json:"date"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	ExternalID   string            `json:"external_id"`
	SourceSystem string            `json:"source_system"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type bookingResponse struct {
	ID           string `json:"id"`
	StaffID      string `json:"staff_id"`
	Date         string `json:"date"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Status       string `json:"status"`
	ExternalID   string `json:"external_id"`
	SourceSystem string `json:"source_system"`
}

// CreateBooking handles POST /api/v1/entities/:entity_id/bookings.
func (s *SchedulingServer) CreateBooking(c *gin.Context) {
	log := s.log.With(slog.String("handler", "CreateBooking"))

	entityID, err := uuid.Parse(c.Param("entity_id"))
	if err != nil {
		badRequest(c, "entity_id must be a UUID")
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		badRequest(c, "staff_id must be a UUID")
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		badRequest(c, "date is required in YYYY-MM-DD form")
		return
	}
	start, err := domain.ParseTimeOfDay(req.Start)
	if err != nil {
		badRequest(c, "start must be HH:MM")
		return
	}
	end, err := domain.ParseTimeOfDay(req.End)
	if err != nil {
		badRequest(c, "end must be HH:MM")
		return
	}

	booking, err := s.svc.AdmitBooking(c.Request.Context(), availability.AdmitInput{
		EntityID:     entityID,
		StaffID:      staffID,
		Date:         date,
		Start:        start,
		End:          end,
		ExternalID:   req.ExternalID,
		SourceSystem: req.SourceSystem,
		Metadata:     req.Metadata,
	})
	if err != nil {
		s.writeServiceError(c, log, err)
		return
	}

	metrics.IncBookingCreated()
	log.Info(
		"booking created",
		slog.String("booking_id", booking.ID.String()),
		slog.String("staff_id", booking.StaffID.String()),
		slog.String("date", booking.Date.Format(dateLayout)),
		slog.String("window", booking.StartMinute.String()+"-"+booking.EndMinute.String()),
	)

	c.JSON(http.StatusCreated, bookingResponse{
		ID:           booking.ID.String(),
		StaffID:      booking.StaffID.String(),
		Date:         booking.Date.Format(dateLayout),
		Start:        booking.StartMinute.String(),
		End:          booking.EndMinute.String(),
		Status:       string(booking.Status),
		ExternalID:   booking.ExternalID,
		SourceSystem: booking.SourceSystem,
	})
}

func (s *SchedulingServer) writeServiceError(c *gin.Context, log *slog.Logger, err error) {
	var vErr *availability.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, vErr.Error())
	case errors.Is(err, domain.ErrInvalidInterval):
		log.Warn("invalid request", slog.Any("err", err))
		badRequest(c, "start must be before end and both within the day")
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "staff member not found or not bookable"})
	case errors.Is(err, store.ErrConflict):
		metrics.IncBookingRejected("conflict")
		log.Info("booking conflict", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "That time is already booked for this staff member. Pick a different slot.",
			"code":  "conflict",
		})
	case errors.Is(err, store.ErrDuplicate):
		metrics.IncBookingRejected("duplicate")
		log.Info("duplicate booking", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error": "A booking with this external id already exists.",
			"code":  "duplicate",
		})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error("upstream timeout", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "timed out"})
	default:
		log.Error("request failed", slog.Any("err", err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

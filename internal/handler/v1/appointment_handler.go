package v1

import (
	"time"

	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentHandler struct {
	appointmentSvc *service.AppointmentService
}

func NewAppointmentHandler(appointmentSvc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentSvc: appointmentSvc}
}

type scheduleAppointmentRequest struct {
	PatientID    uuid.UUID                   `json:"patient_id" binding:"required"`
	DoctorID     uuid.UUID                   `json:"doctor_id" binding:"required"`
	ScheduledAt  time.Time                   `json:"scheduled_at" binding:"required"`
	DurationMins int                         `json:"duration_mins"`
	Type         appointment.AppointmentType `json:"type" binding:"required"`
	Reason       string                      `json:"reason"`
	FeeAmount    float64                     `json:"fee_amount"`
}

func (h *AppointmentHandler) Schedule(c *gin.Context) {
	var req scheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &appointment.CreateAppointmentCommand{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		Type:         req.Type,
		Reason:       req.Reason,
		FeeAmount:    req.FeeAmount,
		CreatedBy:    claims.UserID,
	}

	a, err := h.appointmentSvc.ScheduleAppointment(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	a, err := h.appointmentSvc.GetAppointment(c.Request.Context(), id, includeDeleted, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type updateAppointmentRequest struct {
	ScheduledAt   *time.Time                   `json:"scheduled_at"`
	DurationMins  *int                         `json:"duration_mins"`
	Type          *appointment.AppointmentType `json:"type"`
	Reason        *string                      `json:"reason"`
	FeeAmount     *float64                     `json:"fee_amount"`
	PaymentStatus *appointment.PaymentStatus   `json:"payment_status"`
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &appointment.UpdateAppointmentCommand{
		ScheduledAt:   req.ScheduledAt,
		DurationMins:  req.DurationMins,
		Type:          req.Type,
		Reason:        req.Reason,
		FeeAmount:     req.FeeAmount,
		PaymentStatus: req.PaymentStatus,
		UpdatedBy:     claims.UserID,
	}

	a, err := h.appointmentSvc.UpdateAppointment(c.Request.Context(), id, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type confirmRequest struct {
	By appointment.ConfirmedBy `json:"by" binding:"required"`
}

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req confirmRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.appointmentSvc.ConfirmAppointment(c.Request.Context(), id, req.By, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type cancelRequest struct {
	By     appointment.CancelledBy `json:"by" binding:"required"`
	Reason string                  `json:"reason"`
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req cancelRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.appointmentSvc.CancelAppointment(c.Request.Context(), id, req.By, req.Reason, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Start(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.appointmentSvc.MarkInProgress(c.Request.Context(), id, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.appointmentSvc.MarkCompleted(c.Request.Context(), id, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) NoShow(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.appointmentSvc.MarkNoShow(c.Request.Context(), id, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.appointmentSvc.DeleteAppointment(c.Request.Context(), id, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		IncludeDeleted: c.Query("include_deleted") == "true",
		Page:           parseQueryInt(c, "page", 1),
		PageSize:       parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("doctor_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.DoctorID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := appointment.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("type"); raw != "" {
		t := appointment.AppointmentType(raw)
		q.Type = &t
	}
	if raw := c.Query("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.DateFrom = &t
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.DateTo = &t
		}
	}

	page, err := h.appointmentSvc.ListAppointments(c.Request.Context(), q, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

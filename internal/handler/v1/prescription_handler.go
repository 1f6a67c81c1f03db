package v1

import (
	"time"

	"github.com/clinova/praxis/internal/domain/prescription"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PrescriptionHandler struct {
	prescriptionSvc *service.PrescriptionService
}

func NewPrescriptionHandler(prescriptionSvc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionSvc: prescriptionSvc}
}

type createPrescriptionRequest struct {
	PatientID     uuid.UUID                     `json:"patient_id" binding:"required"`
	DoctorID      uuid.UUID                     `json:"doctor_id" binding:"required"`
	AppointmentID *uuid.UUID                    `json:"appointment_id"`
	Medications   []prescription.MedicationLine `json:"medications" binding:"required"`
	IssuedAt      time.Time                     `json:"issued_at"`
	ValidUntil    time.Time                     `json:"valid_until" binding:"required"`
	Instructions  string                        `json:"instructions"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &prescription.CreatePrescriptionCommand{
		PatientID:     req.PatientID,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		Medications:   req.Medications,
		IssuedAt:      req.IssuedAt,
		ValidUntil:    req.ValidUntil,
		Instructions:  req.Instructions,
		CreatedBy:     claims.UserID,
	}

	p, err := h.prescriptionSvc.CreatePrescription(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	p, err := h.prescriptionSvc.GetPrescription(c.Request.Context(), id, includeDeleted, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type updatePrescriptionStatusRequest struct {
	Status prescription.PrescriptionStatus `json:"status" binding:"required"`
}

func (h *PrescriptionHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePrescriptionStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.prescriptionSvc.UpdateStatus(c.Request.Context(), id, req.Status, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PrescriptionHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.prescriptionSvc.DeletePrescription(c.Request.Context(), id, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	q := &prescription.ListPrescriptionsQuery{
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
		status := prescription.PrescriptionStatus(raw)
		q.Status = &status
	}

	page, err := h.prescriptionSvc.ListPrescriptions(c.Request.Context(), q, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *PrescriptionHandler) ListActiveByPatient(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	prescriptions, err := h.prescriptionSvc.GetActiveByPatient(c.Request.Context(), patientID, claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"prescriptions": prescriptions})
}

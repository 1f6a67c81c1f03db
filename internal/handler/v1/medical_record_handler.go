package v1

import (
	"time"

	"github.com/clinova/praxis/internal/domain/consultation"
	mr "github.com/clinova/praxis/internal/domain/medical_record"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MedicalRecordHandler struct {
	recordSvc *service.MedicalRecordService
}

func NewMedicalRecordHandler(recordSvc *service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordSvc: recordSvc}
}

type createRecordRequest struct {
	PatientID     uuid.UUID                `json:"patient_id" binding:"required"`
	AppointmentID *uuid.UUID               `json:"appointment_id"`
	DoctorID      uuid.UUID                `json:"doctor_id" binding:"required"`
	Vitals        *consultation.VitalSigns `json:"vitals"`
	Diagnosis     string                   `json:"diagnosis" binding:"required"`
	ICDCode       string                   `json:"icd_code"`
	Treatment     string                   `json:"treatment"`
	Notes         string                   `json:"notes"`
}

func (h *MedicalRecordHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &mr.CreateRecordCommand{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		DoctorID:      req.DoctorID,
		Vitals:        req.Vitals,
		Diagnosis:     req.Diagnosis,
		ICDCode:       req.ICDCode,
		Treatment:     req.Treatment,
		Notes:         req.Notes,
		CreatedBy:     claims.UserID,
	}

	rec, err := h.recordSvc.CreateRecord(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, rec)
}

func (h *MedicalRecordHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	rec, err := h.recordSvc.GetRecord(c.Request.Context(), id, includeDeleted, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rec)
}

// GetByAppointment serves the record written during one appointment.
func (h *MedicalRecordHandler) GetByAppointment(c *gin.Context) {
	appointmentID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	rec, err := h.recordSvc.GetRecordByAppointment(c.Request.Context(), appointmentID, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rec)
}

type updateRecordRequest struct {
	Status    *mr.RecordStatus         `json:"status"`
	Vitals    *consultation.VitalSigns `json:"vitals"`
	Diagnosis *string                  `json:"diagnosis"`
	ICDCode   *string                  `json:"icd_code"`
	Treatment *string                  `json:"treatment"`
	Notes     *string                  `json:"notes"`
}

func (h *MedicalRecordHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &mr.UpdateRecordCommand{
		Status:    req.Status,
		Vitals:    req.Vitals,
		Diagnosis: req.Diagnosis,
		ICDCode:   req.ICDCode,
		Treatment: req.Treatment,
		Notes:     req.Notes,
		UpdatedBy: claims.UserID,
	}

	rec, err := h.recordSvc.UpdateRecord(c.Request.Context(), id, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, rec)
}

type addAttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	URL         string `json:"url" binding:"required"`
	SizeBytes   int64  `json:"size_bytes"`
}

func (h *MedicalRecordHandler) AddAttachment(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addAttachmentRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.recordSvc.AddAttachment(
		c.Request.Context(), id,
		req.FileName, req.ContentType, req.URL, req.SizeBytes,
		claimsFrom(c), c.ClientIP(),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, gin.H{"added": true})
}

func (h *MedicalRecordHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.recordSvc.DeleteRecord(c.Request.Context(), id, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *MedicalRecordHandler) List(c *gin.Context) {
	q := &mr.ListRecordsQuery{
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
	if raw := c.Query("appointment_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.AppointmentID = &id
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := mr.RecordStatus(raw)
		q.Status = &status
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

	page, err := h.recordSvc.ListRecords(c.Request.Context(), q, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

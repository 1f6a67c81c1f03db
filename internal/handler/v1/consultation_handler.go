package v1

import (
	"time"

	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
)

type ConsultationHandler struct {
	consultationSvc *service.ConsultationService
}

func NewConsultationHandler(consultationSvc *service.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{consultationSvc: consultationSvc}
}

type createConsultationRequest struct {
	ConsultationDate time.Time                `json:"consultation_date" binding:"required"`
	Reason           string                   `json:"reason" binding:"required"`
	Symptoms         string                   `json:"symptoms"`
	SymptomDuration  string                   `json:"symptom_duration"`
	Vitals           *consultation.VitalSigns `json:"vitals"`
	Notes            string                   `json:"notes" binding:"required"`
}

func (h *ConsultationHandler) Append(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req createConsultationRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &consultation.CreateConsultationCommand{
		ConsultationDate: req.ConsultationDate,
		Reason:           req.Reason,
		Symptoms:         req.Symptoms,
		SymptomDuration:  req.SymptomDuration,
		Vitals:           req.Vitals,
		Notes:            req.Notes,
		CreatedBy:        claims.UserID,
	}

	entry, err := h.consultationSvc.AppendConsultation(c.Request.Context(), patientID, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, entry)
}

func (h *ConsultationHandler) Get(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	consultationID, ok := parseUUID(c, "consultationId")
	if !ok {
		return
	}

	entry, err := h.consultationSvc.GetConsultation(c.Request.Context(), patientID, consultationID, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entry)
}

type updateConsultationRequest struct {
	ConsultationDate *time.Time               `json:"consultation_date"`
	Reason           *string                  `json:"reason"`
	Symptoms         *string                  `json:"symptoms"`
	SymptomDuration  *string                  `json:"symptom_duration"`
	Vitals           *consultation.VitalSigns `json:"vitals"`
	Notes            *string                  `json:"notes"`
}

func (h *ConsultationHandler) Update(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	consultationID, ok := parseUUID(c, "consultationId")
	if !ok {
		return
	}

	var req updateConsultationRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &consultation.UpdateConsultationCommand{
		ConsultationDate: req.ConsultationDate,
		Reason:           req.Reason,
		Symptoms:         req.Symptoms,
		SymptomDuration:  req.SymptomDuration,
		Vitals:           req.Vitals,
		Notes:            req.Notes,
		UpdatedBy:        claims.UserID,
	}

	entry, err := h.consultationSvc.UpdateConsultation(c.Request.Context(), patientID, consultationID, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, entry)
}

func (h *ConsultationHandler) Delete(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	consultationID, ok := parseUUID(c, "consultationId")
	if !ok {
		return
	}

	if err := h.consultationSvc.DeleteConsultation(c.Request.Context(), patientID, consultationID, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *ConsultationHandler) ListTimeline(c *gin.Context) {
	patientID, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	entries, err := h.consultationSvc.ListTimeline(c.Request.Context(), patientID, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"consultations": entries})
}

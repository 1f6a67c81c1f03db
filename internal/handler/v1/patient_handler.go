package v1

import (
	"time"

	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PatientHandler struct {
	patientSvc *service.PatientService
}

func NewPatientHandler(patientSvc *service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

type createPatientRequest struct {
	FirstName         string             `json:"first_name" binding:"required"`
	LastName          string             `json:"last_name" binding:"required"`
	DateOfBirth       time.Time          `json:"date_of_birth" binding:"required"`
	Gender            patient.Gender     `json:"gender" binding:"required"`
	BloodType         patient.BloodType  `json:"blood_type"`
	Phone             string             `json:"phone"`
	Email             string             `json:"email"`
	Address           string             `json:"address"`
	City              string             `json:"city"`
	State             string             `json:"state"`
	ZipCode           string             `json:"zip_code"`
	Country           string             `json:"country"`
	WeightKg          float64            `json:"weight_kg"`
	HeightCm          float64            `json:"height_cm"`
	Allergies         []patient.Allergy  `json:"allergies"`
	AllergyNotes      string             `json:"allergy_notes"`
	ChronicConditions []string           `json:"chronic_conditions"`
	Habits            patient.Habits     `json:"habits"`
	FamilyHistory     string             `json:"family_history"`
	Insurance         *patient.Insurance `json:"insurance"`
	Notes             string             `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &patient.CreatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		Country:           req.Country,
		WeightKg:          req.WeightKg,
		HeightCm:          req.HeightCm,
		Allergies:         req.Allergies,
		AllergyNotes:      req.AllergyNotes,
		ChronicConditions: req.ChronicConditions,
		Habits:            req.Habits,
		FamilyHistory:     req.FamilyHistory,
		Insurance:         req.Insurance,
		Notes:             req.Notes,
		CreatedBy:         claims.UserID,
	}

	p, err := h.patientSvc.CreatePatient(c.Request.Context(), cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, patientView(p))
}

// patientView augments the stored record with the derived fields.
func patientView(p *patient.Patient) gin.H {
	return gin.H{
		"patient": p,
		"age":     p.Age(time.Now()),
		"bmi":     p.BMI(),
	}
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	includeDeleted := c.Query("include_deleted") == "true"

	p, err := h.patientSvc.GetPatient(c.Request.Context(), id, includeDeleted, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patientView(p))
}

func (h *PatientHandler) GetByRecordNumber(c *gin.Context) {
	mrn := c.Param("mrn")

	p, err := h.patientSvc.GetByMedicalRecordNumber(c.Request.Context(), mrn, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patientView(p))
}

type updatePatientRequest struct {
	FirstName         *string            `json:"first_name"`
	LastName          *string            `json:"last_name"`
	Gender            *patient.Gender    `json:"gender"`
	BloodType         *patient.BloodType `json:"blood_type"`
	Phone             *string            `json:"phone"`
	Email             *string            `json:"email"`
	Address           *string            `json:"address"`
	City              *string            `json:"city"`
	State             *string            `json:"state"`
	ZipCode           *string            `json:"zip_code"`
	Country           *string            `json:"country"`
	WeightKg          *float64           `json:"weight_kg"`
	HeightCm          *float64           `json:"height_cm"`
	Allergies         *[]patient.Allergy `json:"allergies"`
	AllergyNotes      *string            `json:"allergy_notes"`
	ChronicConditions *[]string          `json:"chronic_conditions"`
	Habits            *patient.Habits    `json:"habits"`
	FamilyHistory     *string            `json:"family_history"`
	Insurance         *patient.Insurance `json:"insurance"`
	Status            *patient.Status    `json:"status"`
	Notes             *string            `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := claimsFrom(c)
	cmd := &patient.UpdatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		Country:           req.Country,
		WeightKg:          req.WeightKg,
		HeightCm:          req.HeightCm,
		Allergies:         req.Allergies,
		AllergyNotes:      req.AllergyNotes,
		ChronicConditions: req.ChronicConditions,
		Habits:            req.Habits,
		FamilyHistory:     req.FamilyHistory,
		Insurance:         req.Insurance,
		Status:            req.Status,
		Notes:             req.Notes,
		UpdatedBy:         claims.UserID,
	}

	p, err := h.patientSvc.UpdatePatient(c.Request.Context(), id, cmd, claims, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patientView(p))
}

func (h *PatientHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.patientSvc.DeletePatient(c.Request.Context(), id, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:         c.Query("search"),
		IncludeDeleted: c.Query("include_deleted") == "true",
		Page:           parseQueryInt(c, "page", 1),
		PageSize:       parseQueryInt(c, "page_size", 20),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := patient.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("practitioner_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.PractitionerID = &id
		}
	}

	page, err := h.patientSvc.ListPatients(c.Request.Context(), q, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

type toothStatusRequest struct {
	Status patient.ToothStatus `json:"status" binding:"required"`
	Notes  string              `json:"notes"`
}

func (h *PatientHandler) SetToothStatus(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	number, ok := parsePathInt(c, "tooth")
	if !ok {
		return
	}

	var req toothStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	chart, err := h.patientSvc.SetToothStatus(c.Request.Context(), id, number, req.Status, req.Notes, claimsFrom(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, chart)
}

type addPhotoRequest struct {
	URL         string `json:"url" binding:"required"`
	Description string `json:"description"`
}

func (h *PatientHandler) AddPhoto(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addPhotoRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.patientSvc.AddPhoto(c.Request.Context(), id, req.URL, req.Description, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, gin.H{"added": true})
}

func (h *PatientHandler) SetProfilePhoto(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addPhotoRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.patientSvc.SetProfilePhoto(c.Request.Context(), id, req.URL, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"updated": true})
}

type shareRequest struct {
	PractitionerID uuid.UUID `json:"practitioner_id" binding:"required"`
}

func (h *PatientHandler) Share(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req shareRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.patientSvc.SharePatient(c.Request.Context(), id, req.PractitionerID, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"shared": true})
}

func (h *PatientHandler) Unshare(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	practitionerID, ok := parseUUID(c, "practitionerId")
	if !ok {
		return
	}

	if err := h.patientSvc.UnsharePatient(c.Request.Context(), id, practitionerID, claimsFrom(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"unshared": true})
}

func (h *PatientHandler) Practitioners(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	ids, err := h.patientSvc.Practitioners(c.Request.Context(), id, claimsFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"practitioner_ids": ids})
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/internal/domain/prescription"
	"github.com/clinova/praxis/internal/sequence"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory doubles for the repository interfaces. They model just
// enough store behavior for the services to be exercised end to end:
// duplicate-number detection, soft deletes, and the status
// compare-and-swap.

func doctorCaller() *domain.Claims {
	return &domain.Claims{
		UserID:      uuid.New(),
		Email:       "dr@clinic.test",
		Role:        domain.RoleDoctor,
		TenantID:    uuid.New(),
		Permissions: domain.DefaultPermissions(domain.RoleDoctor),
	}
}

func assistantCaller() *domain.Claims {
	return &domain.Claims{
		UserID:      uuid.New(),
		Email:       "desk@clinic.test",
		Role:        domain.RoleAssistant,
		TenantID:    uuid.New(),
		Permissions: domain.DefaultPermissions(domain.RoleAssistant),
	}
}

// testCollector builds a fresh registry per call so tests can assert
// counter values without cross-test bleed.
func testCollector() *metrics.Collector {
	return metrics.NewCollector("test")
}

func nopAudit() *AuditService {
	return NewAuditService(nopAuditRepo{}, testCollector(), zap.NewNop())
}

type nopAuditRepo struct{}

func (nopAuditRepo) Create(context.Context, *domain.AuditLog) error { return nil }

type fakeSeqStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeSeqStore() *fakeSeqStore {
	return &fakeSeqStore{counters: make(map[string]int64)}
}

func (s *fakeSeqStore) Next(_ context.Context, class sequence.Class, tenantID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(class) + "/" + tenantID.String()
	s.counters[key]++
	return s.counters[key], nil
}

func newTestGenerator() *sequence.Generator {
	return sequence.NewGenerator(newFakeSeqStore())
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
	byMRN    map[string]uuid.UUID
	shares   map[uuid.UUID][]uuid.UUID
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{
		patients: make(map[uuid.UUID]*patient.Patient),
		byMRN:    make(map[string]uuid.UUID),
		shares:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// seedNumber marks a medical record number as taken without a backing
// row, forcing Create to report a collision on that draw.
func (r *fakePatientRepo) seedNumber(mrn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMRN[mrn] = uuid.Nil
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byMRN[p.MedicalRecordNumber]; taken {
		return domain.ErrDuplicateNumber
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.patients[p.ID] = &cp
	r.byMRN[p.MedicalRecordNumber] = p.ID
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || (p.DeletedAt != nil && !includeDeleted) {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePatientRepo) GetByMedicalRecordNumber(_ context.Context, mrn string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byMRN[mrn]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePatientRepo) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Phone != nil {
		p.ContactInfo.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.ContactInfo.Email = *cmd.Email
	}
	if cmd.Status != nil {
		p.Status = *cmd.Status
	}
	if cmd.WeightKg != nil {
		p.WeightKg = *cmd.WeightKg
	}
	if cmd.HeightCm != nil {
		p.HeightCm = *cmd.HeightCm
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}
	cp := *p
	return &cp, nil
}

func (r *fakePatientRepo) UpdateDentalChart(_ context.Context, id uuid.UUID, chart *patient.DentalChart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return patient.ErrPatientNotFound
	}
	p.DentalChart = *chart
	return nil
}

func (r *fakePatientRepo) AddPhoto(_ context.Context, id uuid.UUID, ref patient.PhotoRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return patient.ErrPatientNotFound
	}
	p.Photos = append(p.Photos, ref)
	return nil
}

func (r *fakePatientRepo) SetProfilePhoto(_ context.Context, id uuid.UUID, ref *patient.PhotoRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return patient.ErrPatientNotFound
	}
	p.ProfilePhoto = ref
	return nil
}

func (r *fakePatientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok || p.DeletedAt != nil {
		return patient.ErrPatientNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &patient.PagedPatients{Page: q.Page, PageSize: q.PageSize}
	for _, p := range r.patients {
		if p.DeletedAt != nil && !q.IncludeDeleted {
			continue
		}
		cp := *p
		out.Patients = append(out.Patients, &cp)
	}
	out.TotalCount = int64(len(out.Patients))
	out.TotalPages = 1
	return out, nil
}

func (r *fakePatientRepo) Share(_ context.Context, patientID, practitionerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.shares[patientID] {
		if id == practitionerID {
			return nil
		}
	}
	r.shares[patientID] = append(r.shares[patientID], practitionerID)
	return nil
}

func (r *fakePatientRepo) Unshare(_ context.Context, patientID, practitionerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	links := r.shares[patientID]
	for i, id := range links {
		if id == practitionerID {
			r.shares[patientID] = append(links[:i], links[i+1:]...)
			return nil
		}
	}
	return patient.ErrNotShared
}

func (r *fakePatientRepo) Practitioners(_ context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.shares[patientID]...), nil
}

type fakeConsultationRepo struct {
	mu       sync.Mutex
	timeline map[uuid.UUID][]*consultation.Consultation
	dropped  []uuid.UUID // patients whose timeline was cascade-deleted
}

func newFakeConsultationRepo() *fakeConsultationRepo {
	return &fakeConsultationRepo{timeline: make(map[uuid.UUID][]*consultation.Consultation)}
}

func (r *fakeConsultationRepo) Create(_ context.Context, c *consultation.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.timeline[c.PatientID] = append(r.timeline[c.PatientID], &cp)
	return nil
}

func (r *fakeConsultationRepo) GetByID(_ context.Context, patientID, id uuid.UUID) (*consultation.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.timeline[patientID] {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, consultation.ErrConsultationNotFound
}

func (r *fakeConsultationRepo) Update(_ context.Context, patientID, id uuid.UUID, cmd *consultation.UpdateConsultationCommand) (*consultation.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.timeline[patientID] {
		if c.ID == id {
			if cmd.Reason != nil {
				c.Reason = *cmd.Reason
			}
			if cmd.Notes != nil {
				c.Notes = *cmd.Notes
			}
			if cmd.Vitals != nil {
				c.Vitals = cmd.Vitals
			}
			cp := *c
			return &cp, nil
		}
	}
	return nil, consultation.ErrConsultationNotFound
}

func (r *fakeConsultationRepo) Delete(_ context.Context, patientID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.timeline[patientID]
	for i, c := range list {
		if c.ID == id {
			r.timeline[patientID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return consultation.ErrConsultationNotFound
}

func (r *fakeConsultationRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*consultation.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*consultation.Consultation, 0, len(r.timeline[patientID]))
	for _, c := range r.timeline[patientID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeConsultationRepo) DeleteByPatient(_ context.Context, patientID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timeline, patientID)
	r.dropped = append(r.dropped, patientID)
	return nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment
	byNumber     map[string]uuid.UUID
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: make(map[uuid.UUID]*appointment.Appointment),
		byNumber:     make(map[string]uuid.UUID),
	}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[a.AppointmentNumber]; taken {
		return domain.ErrDuplicateNumber
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.appointments[a.ID] = &cp
	r.byNumber[a.AppointmentNumber] = a.ID
	return nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || (a.DeletedAt != nil && !includeDeleted) {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.DeletedAt != nil {
		return nil, appointment.ErrAppointmentNotFound
	}
	if cmd.ScheduledAt != nil {
		a.ScheduledAt = *cmd.ScheduledAt
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &appointment.PagedAppointments{Page: q.Page, PageSize: q.PageSize}
	for _, a := range r.appointments {
		if a.DeletedAt != nil && !q.IncludeDeleted {
			continue
		}
		cp := *a
		out.Appointments = append(out.Appointments, &cp)
	}
	out.TotalCount = int64(len(out.Appointments))
	out.TotalPages = 1
	return out, nil
}

// UpdateStatus applies the same compare-and-swap the real store does:
// the write only lands if the row is still in fromStatus.
func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, a *appointment.Appointment, fromStatus appointment.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appointments[a.ID]
	if !ok || stored.DeletedAt != nil {
		return appointment.ErrAppointmentNotFound
	}
	if stored.Status != fromStatus {
		return appointment.ErrInvalidStatusTransition
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.DeletedAt != nil {
		return appointment.ErrAppointmentNotFound
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	return nil
}

func (r *fakeAppointmentRepo) GetUpcoming(_ context.Context, within time.Duration) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []*appointment.Appointment
	for _, a := range r.appointments {
		if a.DeletedAt != nil {
			continue
		}
		if a.Status != appointment.StatusPending && a.Status != appointment.StatusConfirmed {
			continue
		}
		if a.ScheduledAt.After(now) && a.ScheduledAt.Before(now.Add(within)) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) SetReminderSent(_ context.Context, id uuid.UUID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	switch channel {
	case "email":
		a.EmailReminderSent = true
	case "sms":
		a.SMSReminderSent = true
	}
	return nil
}

type fakePrescriptionRepo struct {
	mu            sync.Mutex
	prescriptions map[uuid.UUID]*prescription.Prescription
	byNumber      map[string]uuid.UUID
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{
		prescriptions: make(map[uuid.UUID]*prescription.Prescription),
		byNumber:      make(map[string]uuid.UUID),
	}
}

func (r *fakePrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNumber[p.PrescriptionNumber]; taken {
		return domain.ErrDuplicateNumber
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.prescriptions[p.ID] = &cp
	r.byNumber[p.PrescriptionNumber] = p.ID
	return nil
}

func (r *fakePrescriptionRepo) GetByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok || (p.DeletedAt != nil && !includeDeleted) {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrescriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status prescription.PrescriptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok || p.DeletedAt != nil {
		return prescription.ErrPrescriptionNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePrescriptionRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok || p.DeletedAt != nil {
		return prescription.ErrPrescriptionNotFound
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	return nil
}

func (r *fakePrescriptionRepo) List(_ context.Context, q *prescription.ListPrescriptionsQuery) (*prescription.PagedPrescriptions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &prescription.PagedPrescriptions{Page: q.Page, PageSize: q.PageSize}
	for _, p := range r.prescriptions {
		if p.DeletedAt != nil && !q.IncludeDeleted {
			continue
		}
		cp := *p
		out.Prescriptions = append(out.Prescriptions, &cp)
	}
	out.TotalCount = int64(len(out.Prescriptions))
	out.TotalPages = 1
	return out, nil
}

func (r *fakePrescriptionRepo) GetActiveByPatient(_ context.Context, patientID uuid.UUID) ([]*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*prescription.Prescription
	for _, p := range r.prescriptions {
		if p.DeletedAt == nil && p.PatientID == patientID && p.Status == prescription.StatusActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePrescriptionRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.prescriptions {
		if p.DeletedAt == nil && p.Status == prescription.StatusActive && p.ValidUntil.Before(now) {
			p.Status = prescription.StatusExpired
			n++
		}
	}
	return n, nil
}

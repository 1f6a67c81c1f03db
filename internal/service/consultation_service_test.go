package service

import (
	"context"
	"testing"
	"time"

	"github.com/clinova/praxis/internal/domain/consultation"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConsultationFixture(t *testing.T) (*ConsultationService, *fakeConsultationRepo, *patient.Patient) {
	t.Helper()

	patients := newFakePatientRepo()
	p := &patient.Patient{
		MedicalRecordNumber: "P-000001",
		FirstName:           "Ana",
		LastName:            "Moreno",
		Status:              patient.StatusActive,
	}
	require.NoError(t, patients.Create(context.Background(), p))

	repo := newFakeConsultationRepo()
	svc := NewConsultationService(repo, patients, nopAudit(), testCollector(), zap.NewNop())
	return svc, repo, p
}

func consultationCommand() *consultation.CreateConsultationCommand {
	return &consultation.CreateConsultationCommand{
		ConsultationDate: time.Now().Add(-time.Hour),
		Reason:           "persistent molar pain",
		Notes:            "caries on 36, scheduled filling",
	}
}

func TestAppendConsultation(t *testing.T) {
	svc, _, p := newConsultationFixture(t)

	c, err := svc.AppendConsultation(context.Background(), p.ID, consultationCommand(), doctorCaller(), "")
	require.NoError(t, err)
	assert.Equal(t, p.ID, c.PatientID)
	assert.Equal(t, "persistent molar pain", c.Reason)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.collector.ConsultationsAppended))
}

func TestAppendConsultationEnforcesDocumentationFloor(t *testing.T) {
	svc, _, p := newConsultationFixture(t)

	cmd := consultationCommand()
	cmd.Reason = "pain"
	cmd.Notes = "   a b c   " // whitespace does not count toward the minimum

	_, err := svc.AppendConsultation(context.Background(), p.ID, cmd, doctorCaller(), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"reason must be at least 10 characters",
		"notes must be at least 10 characters",
	}, verr.Fields)
}

func TestAppendConsultationValidatesVitals(t *testing.T) {
	svc, _, p := newConsultationFixture(t)

	systolic, diastolic, temp := 420, 15, 50.0
	cmd := consultationCommand()
	cmd.Vitals = &consultation.VitalSigns{
		BPSystolic:   &systolic,
		BPDiastolic:  &diastolic,
		TemperatureC: &temp,
	}

	_, err := svc.AppendConsultation(context.Background(), p.ID, cmd, doctorCaller(), "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"bp_systolic out of range",
		"bp_diastolic out of range",
		"temperature_celsius out of range",
	}, verr.Fields)
}

func TestAppendConsultationUnknownPatient(t *testing.T) {
	svc, _, _ := newConsultationFixture(t)

	_, err := svc.AppendConsultation(context.Background(), uuid.New(), consultationCommand(), doctorCaller(), "")
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}

func TestConsultationIsPatientScoped(t *testing.T) {
	svc, _, p := newConsultationFixture(t)
	ctx := context.Background()
	caller := doctorCaller()

	c, err := svc.AppendConsultation(ctx, p.ID, consultationCommand(), caller, "")
	require.NoError(t, err)

	// The right patient finds it; any other patient id does not.
	got, err := svc.GetConsultation(ctx, p.ID, c.ID, caller, "")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = svc.GetConsultation(ctx, uuid.New(), c.ID, caller, "")
	assert.ErrorIs(t, err, consultation.ErrConsultationNotFound)
}

func TestDeleteConsultationKeepsSurvivors(t *testing.T) {
	svc, _, p := newConsultationFixture(t)
	ctx := context.Background()
	caller := doctorCaller()

	first, err := svc.AppendConsultation(ctx, p.ID, consultationCommand(), caller, "")
	require.NoError(t, err)
	second, err := svc.AppendConsultation(ctx, p.ID, consultationCommand(), caller, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteConsultation(ctx, p.ID, first.ID, caller, ""))

	// Hard delete: gone for good, and deleting again reports not found.
	_, err = svc.GetConsultation(ctx, p.ID, first.ID, caller, "")
	assert.ErrorIs(t, err, consultation.ErrConsultationNotFound)
	err = svc.DeleteConsultation(ctx, p.ID, first.ID, caller, "")
	assert.ErrorIs(t, err, consultation.ErrConsultationNotFound)

	timeline, err := svc.ListTimeline(ctx, p.ID, caller, "")
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, second.ID, timeline[0].ID)
}

func TestUpdateConsultationValidatesEditedContent(t *testing.T) {
	svc, _, p := newConsultationFixture(t)
	ctx := context.Background()
	caller := doctorCaller()

	c, err := svc.AppendConsultation(ctx, p.ID, consultationCommand(), caller, "")
	require.NoError(t, err)

	short := "meh"
	_, err = svc.UpdateConsultation(ctx, p.ID, c.ID, &consultation.UpdateConsultationCommand{Notes: &short}, caller, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	longer := "filling completed without complications"
	updated, err := svc.UpdateConsultation(ctx, p.ID, c.ID, &consultation.UpdateConsultationCommand{Notes: &longer}, caller, "")
	require.NoError(t, err)
	assert.Equal(t, longer, updated.Notes)
}

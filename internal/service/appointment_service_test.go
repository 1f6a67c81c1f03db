package service

import (
	"context"
	"testing"
	"time"

	"github.com/clinova/praxis/internal/domain"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type appointmentFixture struct {
	svc      *AppointmentService
	repo     *fakeAppointmentRepo
	patients *fakePatientRepo
	caller   *domain.Claims
	patient  *patient.Patient
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()

	patients := newFakePatientRepo()
	repo := newFakeAppointmentRepo()
	caller := doctorCaller()

	p := &patient.Patient{
		TenantID:            caller.TenantID,
		MedicalRecordNumber: "P-000001",
		FirstName:           "Ana",
		LastName:            "Moreno",
		Status:              patient.StatusActive,
	}
	require.NoError(t, patients.Create(context.Background(), p))

	svc := NewAppointmentService(repo, patients, newTestGenerator(), nopAudit(), testCollector(), zap.NewNop())
	return &appointmentFixture{svc: svc, repo: repo, patients: patients, caller: caller, patient: p}
}

func (f *appointmentFixture) scheduleCommand() *appointment.CreateAppointmentCommand {
	return &appointment.CreateAppointmentCommand{
		PatientID:   f.patient.ID,
		DoctorID:    f.caller.UserID,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Type:        appointment.TypeCheckup,
		Reason:      "routine cleaning",
	}
}

func (f *appointmentFixture) schedule(t *testing.T) *appointment.Appointment {
	t.Helper()
	a, err := f.svc.ScheduleAppointment(context.Background(), f.scheduleCommand(), f.caller, "")
	require.NoError(t, err)
	return a
}

func TestScheduleAppointment(t *testing.T) {
	f := newAppointmentFixture(t)

	a := f.schedule(t)
	assert.Equal(t, "APT-000001", a.AppointmentNumber)
	assert.Equal(t, appointment.StatusPending, a.Status)
	assert.Equal(t, appointment.PaymentPending, a.PaymentStatus)
	assert.Equal(t, appointment.DefaultDurationMins, a.DurationMins, "omitted duration gets the default")
}

func TestScheduleAppointmentValidation(t *testing.T) {
	f := newAppointmentFixture(t)

	cmd := &appointment.CreateAppointmentCommand{
		PatientID:    f.patient.ID,
		ScheduledAt:  time.Now().Add(-time.Hour),
		DurationMins: 5,
		Type:         "walk_in",
	}

	_, err := f.svc.ScheduleAppointment(context.Background(), cmd, f.caller, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"scheduled_at cannot be in the past",
		"duration_mins must be between 15 and 240",
		"type is invalid",
		"reason is required",
	}, verr.Fields)
}

func TestScheduleAppointmentRejectsInactivePatient(t *testing.T) {
	f := newAppointmentFixture(t)

	deceased := patient.StatusDeceased
	_, err := f.patients.Update(context.Background(), f.patient.ID, &patient.UpdatePatientCommand{Status: &deceased})
	require.NoError(t, err)

	_, err = f.svc.ScheduleAppointment(context.Background(), f.scheduleCommand(), f.caller, "")
	assert.ErrorIs(t, err, patient.ErrPatientDeceased)
}

func TestAppointmentLifecycle(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	a := f.schedule(t)

	a, err := f.svc.ConfirmAppointment(ctx, a.ID, appointment.ConfirmedByPatient, f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, a.Status)
	require.NotNil(t, a.ConfirmedAt)

	a, err = f.svc.MarkInProgress(ctx, a.ID, f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusInProgress, a.Status)

	a, err = f.svc.MarkCompleted(ctx, a.ID, f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)

	// Terminal: nothing moves out of completed.
	_, err = f.svc.CancelAppointment(ctx, a.ID, appointment.CancelledByDoctor, "double booked", f.caller, "")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)

	// Each successful step landed once, the rejected one not at all.
	for _, status := range []string{"pending", "confirmed", "in_progress", "completed"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.collector.AppointmentsTotal.WithLabelValues(status)), status)
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(f.svc.collector.AppointmentsTotal.WithLabelValues("cancelled")))
}

func TestCancelAppointmentRecordsWhoAndWhy(t *testing.T) {
	f := newAppointmentFixture(t)
	a := f.schedule(t)

	a, err := f.svc.CancelAppointment(context.Background(), a.ID, appointment.CancelledByPatient, "schedule conflict", f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, a.Status)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, appointment.CancelledByPatient, *a.CancelledBy)
	assert.Equal(t, "schedule conflict", a.CancellationReason)
	require.NotNil(t, a.CancelledAt)
}

func TestMarkNoShowIsTerminal(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	a := f.schedule(t)

	a, err := f.svc.MarkNoShow(ctx, a.ID, f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusNoShow, a.Status)

	_, err = f.svc.ConfirmAppointment(ctx, a.ID, appointment.ConfirmedByPatient, f.caller, "")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)

	_, err = f.svc.MarkInProgress(ctx, a.ID, f.caller, "")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
}

func TestTransitionLosesRaceToConcurrentWrite(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	a := f.schedule(t)

	// Another actor cancels between our read and write.
	stored, err := f.repo.GetByID(ctx, a.ID, false)
	require.NoError(t, err)
	require.NoError(t, stored.Cancel(appointment.CancelledByDoctor, "closed early", time.Now().UTC()))
	require.NoError(t, f.repo.UpdateStatus(ctx, stored, appointment.StatusPending))

	_, err = f.svc.ConfirmAppointment(ctx, a.ID, appointment.ConfirmedByPatient, f.caller, "")
	assert.ErrorIs(t, err, appointment.ErrInvalidStatusTransition)
}

func TestDeleteAppointmentRetiresNumber(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	a := f.schedule(t)
	require.NoError(t, f.svc.DeleteAppointment(ctx, a.ID, f.caller, ""))

	_, err := f.svc.GetAppointment(ctx, a.ID, false, f.caller, "")
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)

	got, err := f.svc.GetAppointment(ctx, a.ID, true, f.caller, "")
	require.NoError(t, err)
	assert.Equal(t, "APT-000001", got.AppointmentNumber)

	// The next draw never reuses the deleted number.
	b := f.schedule(t)
	assert.Equal(t, "APT-000002", b.AppointmentNumber)
}

package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clinova/praxis/internal/config"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAppointments struct {
	appointment.Repository

	mu       sync.Mutex
	upcoming []*appointment.Appointment
}

func (s *stubAppointments) GetUpcoming(_ context.Context, _ time.Duration) ([]*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*appointment.Appointment, len(s.upcoming))
	for i, a := range s.upcoming {
		cp := *a
		out[i] = &cp
	}
	return out, nil
}

func (s *stubAppointments) SetReminderSent(_ context.Context, id uuid.UUID, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.upcoming {
		if a.ID == id {
			switch channel {
			case ChannelEmail:
				a.EmailReminderSent = true
			case ChannelSMS:
				a.SMSReminderSent = true
			}
		}
	}
	return nil
}

type stubPatients struct {
	patient.Repository

	patients map[uuid.UUID]*patient.Patient
}

func (s *stubPatients) GetByID(_ context.Context, id uuid.UUID, _ bool) (*patient.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string // "channel recipient"
	fail map[string]error
}

func (s *recordingSender) Send(_ context.Context, channel, recipient, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[channel]; err != nil {
		return err
	}
	s.sent = append(s.sent, channel+" "+recipient)
	return nil
}

func newDispatcherFixture(p *patient.Patient, a *appointment.Appointment, sender *recordingSender) (*Dispatcher, *stubAppointments) {
	appts := &stubAppointments{upcoming: []*appointment.Appointment{a}}
	pats := &stubPatients{patients: map[uuid.UUID]*patient.Patient{p.ID: p}}
	cfg := config.ReminderConfig{LeadTime: 24 * time.Hour, ScanInterval: time.Minute}
	return NewDispatcher(appts, pats, sender, cfg, metrics.NewCollector("test"), zap.NewNop()), appts
}

func upcomingAppointment(patientID uuid.UUID) *appointment.Appointment {
	return &appointment.Appointment{
		ID:                uuid.New(),
		PatientID:         patientID,
		AppointmentNumber: "APT-000007",
		ScheduledAt:       time.Now().Add(6 * time.Hour),
		Status:            appointment.StatusConfirmed,
	}
}

func remindablePatient() *patient.Patient {
	p := &patient.Patient{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "Moreno",
	}
	p.Email = "ana@example.com"
	p.Phone = "+52 555 010 2030"
	return p
}

func TestSweepSendsBothChannelsOnce(t *testing.T) {
	p := remindablePatient()
	a := upcomingAppointment(p.ID)
	sender := &recordingSender{}
	d, appts := newDispatcherFixture(p, a, sender)

	d.sweep()
	assert.Equal(t, []string{
		"email ana@example.com",
		"sms +52 555 010 2030",
	}, sender.sent)
	assert.True(t, appts.upcoming[0].EmailReminderSent)
	assert.True(t, appts.upcoming[0].SMSReminderSent)

	// A second sweep is a no-op: the flags keep it idempotent.
	d.sweep()
	assert.Len(t, sender.sent, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(d.collector.RemindersSent.WithLabelValues(ChannelEmail)))
	assert.Equal(t, 1.0, testutil.ToFloat64(d.collector.RemindersSent.WithLabelValues(ChannelSMS)))
}

func TestSweepRetriesFailedChannel(t *testing.T) {
	p := remindablePatient()
	a := upcomingAppointment(p.ID)
	sender := &recordingSender{fail: map[string]error{ChannelEmail: errors.New("gateway down")}}
	d, appts := newDispatcherFixture(p, a, sender)

	d.sweep()
	assert.Empty(t, sender.sent)
	assert.False(t, appts.upcoming[0].EmailReminderSent, "flag stays clear when the send fails")

	// Gateway recovers; the next tick delivers.
	sender.mu.Lock()
	sender.fail = nil
	sender.mu.Unlock()

	d.sweep()
	require.Len(t, sender.sent, 2)
	assert.True(t, appts.upcoming[0].EmailReminderSent)
	assert.True(t, appts.upcoming[0].SMSReminderSent)
}

func TestSweepSkipsMissingContactChannels(t *testing.T) {
	p := remindablePatient()
	p.Email = ""
	a := upcomingAppointment(p.ID)
	sender := &recordingSender{}
	d, appts := newDispatcherFixture(p, a, sender)

	d.sweep()
	assert.Equal(t, []string{"sms +52 555 010 2030"}, sender.sent)
	assert.False(t, appts.upcoming[0].EmailReminderSent)
	assert.True(t, appts.upcoming[0].SMSReminderSent)
}

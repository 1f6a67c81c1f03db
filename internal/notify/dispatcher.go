package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/clinova/praxis/internal/config"
	"github.com/clinova/praxis/internal/domain/appointment"
	"github.com/clinova/praxis/internal/domain/patient"
	"github.com/clinova/praxis/pkg/metrics"
	"go.uber.org/zap"
)

// Dispatcher runs the reminder sweep on a ticker. Each tick loads
// appointments inside the lead window and sends at most one email and
// one SMS per appointment over its lifetime.
type Dispatcher struct {
	appointments appointment.Repository
	patients     patient.Repository
	sender       Sender
	cfg          config.ReminderConfig
	collector    *metrics.Collector
	log          *zap.Logger

	done chan struct{}
}

func NewDispatcher(
	appointments appointment.Repository,
	patients patient.Repository,
	sender Sender,
	cfg config.ReminderConfig,
	collector *metrics.Collector,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		appointments: appointments,
		patients:     patients,
		sender:       sender,
		cfg:          cfg,
		collector:    collector,
		log:          log,
		done:         make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to
// end the loop.
func (d *Dispatcher) Start() {
	go func() {
		ticker := time.NewTicker(d.cfg.ScanInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				d.sweep()
			case <-d.done:
				return
			}
		}
	}()
}

func (d *Dispatcher) Stop() {
	close(d.done)
}

func (d *Dispatcher) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	upcoming, err := d.appointments.GetUpcoming(ctx, d.cfg.LeadTime)
	if err != nil {
		d.log.Error("reminder sweep failed", zap.Error(err))
		return
	}

	for _, a := range upcoming {
		if a.EmailReminderSent && a.SMSReminderSent {
			continue
		}
		if err := d.remind(ctx, a); err != nil {
			d.log.Warn("reminder dispatch failed",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) remind(ctx context.Context, a *appointment.Appointment) error {
	p, err := d.patients.GetByID(ctx, a.PatientID, false)
	if err != nil {
		return fmt.Errorf("loading patient for reminder: %w", err)
	}

	message := fmt.Sprintf(
		"Reminder: %s has an appointment (%s) on %s",
		p.FullName(), a.AppointmentNumber, a.ScheduledAt.Format("Mon Jan 2 15:04"),
	)

	if !a.EmailReminderSent && p.Email != "" {
		if err := d.sender.Send(ctx, ChannelEmail, p.Email, message); err != nil {
			return err
		}
		// Flag only after a successful send so failures retry next tick.
		if err := d.appointments.SetReminderSent(ctx, a.ID, ChannelEmail); err != nil {
			return err
		}
		d.collector.RemindersSent.WithLabelValues(ChannelEmail).Inc()
	}

	if !a.SMSReminderSent && p.Phone != "" {
		if err := d.sender.Send(ctx, ChannelSMS, p.Phone, message); err != nil {
			return err
		}
		if err := d.appointments.SetReminderSent(ctx, a.ID, ChannelSMS); err != nil {
			return err
		}
		d.collector.RemindersSent.WithLabelValues(ChannelSMS).Inc()
	}

	return nil
}

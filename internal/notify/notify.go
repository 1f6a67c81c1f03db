// Package notify emits appointment reminders. A background sweep finds
// appointments starting within the configured lead time and pushes one
// reminder per channel; the sent flag on the appointment row keeps the
// sweep idempotent across restarts and overlapping ticks.
package notify

import (
	"context"

	"go.uber.org/zap"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Sender delivers one reminder on one channel. Implementations must be
// safe for concurrent use; delivery failures are logged and retried on
// the next sweep because the sent flag is only set after success.
type Sender interface {
	Send(ctx context.Context, channel, recipient, message string) error
}

// LogSender is the default sender: it records the reminder instead of
// delivering it. Wire a real gateway in its place in deployments that
// have one.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, channel, recipient, message string) error {
	s.log.Info("reminder dispatched",
		zap.String("channel", channel),
		zap.String("recipient", recipient),
		zap.String("message", message),
	)
	return nil
}

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/monitor"
)

// EmailBackend sends one message to one address.
type EmailBackend interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSBackend sends one message to a batch of numbers in a single call.
type SMSBackend interface {
	Send(ctx context.Context, numbers []string, message string) error
}

// SpeechBackend reads one message aloud.
type SpeechBackend interface {
	Say(ctx context.Context, text string) error
}

// Notification is one rendered outbound message, with a shorter variant for
// the spoken channel.
type Notification struct {
	Subject string
	Message string
	Spoken  string
}

// DownNotification renders the message for an endpoint that just failed.
func DownNotification(ep monitor.Endpoint, detail string) Notification {
	return Notification{
		Subject: fmt.Sprintf("ALERT: %s is down", ep.Name),
		Message: fmt.Sprintf("%s is down: %s", describe(ep), detail),
		Spoken:  fmt.Sprintf("Attention. %s is down.", ep.Name),
	}
}

// RecoveryNotification renders the message for an endpoint whose incident
// just resolved.
func RecoveryNotification(ep monitor.Endpoint, inc monitor.Incident) Notification {
	msg := fmt.Sprintf("%s has recovered", describe(ep))
	if !inc.ResolvedAt.IsZero() && inc.ResolvedAt.Sub(inc.StartedAt) >= time.Second {
		downFor := strings.TrimSpace(humanize.RelTime(inc.StartedAt, inc.ResolvedAt, "", ""))
		msg = fmt.Sprintf("%s after %s of downtime", msg, downFor)
	}
	return Notification{
		Subject: fmt.Sprintf("RESOLVED: %s has recovered", ep.Name),
		Message: msg,
		Spoken:  fmt.Sprintf("Good news. %s has recovered.", ep.Name),
	}
}

func describe(ep monitor.Endpoint) string {
	if t := ep.Target(); t != "" {
		return fmt.Sprintf("%s (%s)", ep.Name, t)
	}
	return ep.Name
}

// Dispatcher fans one notification out to every enabled channel. A nil
// backend means the channel is not configured; the matching Settings flag
// switches a configured channel off at runtime.
type Dispatcher struct {
	Email  EmailBackend
	SMS    SMSBackend
	Speech SpeechBackend

	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Dispatch delivers the notification: spoken announcement first, then one
// email per recipient, then a single batched SMS call. The spoken leg is
// best effort and only logged. Email and SMS failures are collected and
// returned together, and never stop the remaining sends.
func (d *Dispatcher) Dispatch(ctx context.Context, set RecipientSet, n Notification, settings monitor.Settings) error {
	if settings.SpeechEnabled && d.Speech != nil {
		if err := d.Speech.Say(ctx, n.Spoken); err != nil {
			d.logger.Warn("failed to speak notification", zap.Error(err))
		}
	}

	var errs error

	if settings.EmailEnabled && d.Email != nil {
		for _, c := range set.Email {
			if err := d.Email.Send(ctx, c.Email, n.Subject, n.Message); err != nil {
				d.logger.Warn("failed to send email",
					zap.String("contact", c.ID),
					zap.String("address", c.Email),
					zap.Error(err))
				errs = multierr.Append(errs, err)
				continue
			}
			d.logger.Info("email sent", zap.String("contact", c.ID))
		}
	}

	if settings.SMSEnabled && d.SMS != nil && len(set.SMS) > 0 {
		numbers := make([]string, 0, len(set.SMS))
		for _, c := range set.SMS {
			numbers = append(numbers, c.Phone)
		}
		if err := d.SMS.Send(ctx, numbers, n.Message); err != nil {
			d.logger.Warn("failed to send sms batch",
				zap.Int("recipients", len(numbers)),
				zap.Error(err))
			errs = multierr.Append(errs, err)
		} else {
			d.logger.Info("sms batch sent", zap.Int("recipients", len(numbers)))
		}
	}

	return errs
}

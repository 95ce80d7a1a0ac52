package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sitedocs/internal/domain/workers"
)

var ErrNoRecipients = errors.New("no recipients")

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Service mails upcoming appointment digests to site staff.
type Service struct {
	Mailer      Mailer
	DefaultFrom string
}

func New(mailer Mailer, from string) *Service {
	if strings.TrimSpace(from) == "" {
		from = "no-reply@example.com"
	}
	return &Service{Mailer: mailer, DefaultFrom: from}
}

// SendReminderDigest mails one digest per recipient and returns how many were
// accepted. An empty reminder list sends nothing.
func (s *Service) SendReminderDigest(ctx context.Context, project string, recipients []string, reminders []workers.Reminder) (int, error) {
	if len(reminders) == 0 || s.Mailer == nil {
		return 0, nil
	}
	to := cleanRecipients(recipients)
	if len(to) == 0 {
		return 0, ErrNoRecipients
	}
	subject, body := Digest(project, reminders)

	sent := 0
	var errs []error
	for _, addr := range to {
		if err := s.Mailer.Send(ctx, s.DefaultFrom, addr, subject, body); err != nil {
			slog.Warn("reminder digest send failed", "to", addr, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

// Digest renders the subject and plain-text body for reminders.
func Digest(project string, reminders []workers.Reminder) (string, string) {
	subject := fmt.Sprintf("Citas próximas: %d", len(reminders))
	if p := strings.TrimSpace(project); p != "" {
		subject = p + " - " + subject
	}

	var b strings.Builder
	b.WriteString("Citas pendientes de formación y reconocimiento médico:\n\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "- [%s] %s %s", reminderLabel(r.Type), r.Date, r.WorkerName)
		if r.Time != "" {
			fmt.Fprintf(&b, " a las %s", r.Time)
		}
		if r.Location != "" {
			fmt.Fprintf(&b, " en %s", r.Location)
		}
		b.WriteString("\n")
	}
	return subject, b.String()
}

func reminderLabel(t workers.ReminderType) string {
	switch t {
	case workers.ReminderPRL:
		return "PRL 20h"
	case workers.ReminderMedical:
		return "Médico"
	default:
		return string(t)
	}
}

func cleanRecipients(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, addr := range list {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

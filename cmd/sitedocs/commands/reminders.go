package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sitedocs/cmd/sitedocs/ui"
	"sitedocs/internal/domain/documents"
	"sitedocs/internal/domain/notifications"
	"sitedocs/internal/domain/workers"
	"sitedocs/internal/platform/config"
	"sitedocs/internal/platform/email"
)

const mailTimeout = 30 * time.Second

type remindersFlags struct {
	roster  string
	today   string
	pending string
	docs    string
	mailTo  []string
}

func newRemindersCmd() *cobra.Command {
	flags := &remindersFlags{}
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "List upcoming training and medical appointments",
		Long: `reminders reads a worker roster (YAML, a "workers" list) and prints every
training or medical appointment dated today or later, earliest first.
With --pending it also lists workers still owing that course or exam, and
--mail-to sends the list by email when SMTP is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReminders(cmd, flags, time.Now())
		},
	}
	cmd.Flags().StringVarP(&flags.roster, "workers", "w", "", "worker roster YAML file")
	cmd.Flags().StringVar(&flags.today, "today", "", "reference date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&flags.pending, "pending", "", "also list pending workers for training or medical")
	cmd.Flags().StringVar(&flags.docs, "docs", "", "document list YAML used by --pending")
	cmd.Flags().StringArrayVar(&flags.mailTo, "mail-to", nil, "email the reminders to this address (repeatable)")
	_ = cmd.MarkFlagRequired("workers")
	return cmd
}

func runReminders(cmd *cobra.Command, flags *remindersFlags, now time.Time) error {
	today, err := parseDay(flags.today, now)
	if err != nil {
		return err
	}
	list, err := loadRoster(flags.roster)
	if err != nil {
		return err
	}

	out := ui.New(cmd.OutOrStdout())
	out.Section("Upcoming appointments")
	reminders := workers.Reminders(list, today)
	if len(reminders) == 0 {
		out.Muted("no upcoming appointments")
	} else {
		rows := make([][]string, 0, len(reminders))
		for _, r := range reminders {
			rows = append(rows, []string{reminderKind(r.Type), r.Date, orDash(r.Time), r.WorkerName, orDash(r.Location)})
		}
		out.Table([]string{"TYPE", "DATE", "TIME", "WORKER", "LOCATION"}, rows)
	}
	if len(flags.mailTo) > 0 {
		if err := mailReminders(cmd.Context(), out, cmd.ErrOrStderr(), flags.mailTo, reminders); err != nil {
			return err
		}
	}

	if flags.pending == "" {
		return nil
	}
	category, err := parseCategory(flags.pending)
	if err != nil {
		return err
	}
	if category != documents.CategoryTraining && category != documents.CategoryMedical {
		return fmt.Errorf("pending workers are tracked for training and medical only, not %q", category)
	}
	var docs []documents.Record
	if flags.docs != "" {
		l, err := loadDocList(flags.docs)
		if err != nil {
			return err
		}
		if docs, err = l.records(); err != nil {
			return err
		}
	}
	pending := workers.Pending(list, category, docs)

	fmt.Fprintln(cmd.OutOrStdout())
	out.Section("Pending: " + string(category))
	if len(pending) == 0 {
		out.Success("nobody pending")
		return nil
	}
	for _, w := range pending {
		out.Warn("%s (%s)", w.FullName(), orDash(w.NationalID))
	}
	return nil
}

func reminderKind(t workers.ReminderType) string {
	if t == workers.ReminderMedical {
		return ui.Paint(ui.Cyan, string(t))
	}
	return ui.Paint(ui.Yellow, string(t))
}

func mailReminders(ctx context.Context, out *ui.Printer, errOut io.Writer, to []string, reminders []workers.Reminder) error {
	cfg := config.Load()
	if !email.Enabled(cfg) {
		out.Warn("email is disabled, set EMAIL_ENABLED and SMTP_HOST to send reminders")
		return nil
	}
	if len(reminders) == 0 {
		out.Muted("nothing to send")
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	svc := notifications.New(email.New(cfg), cfg.EmailFrom)
	spin := ui.NewSpinner(errOut, "sending reminders")
	spin.Start()
	sent, err := svc.SendReminderDigest(ctx, cfg.ProjectCode, to, reminders)
	spin.Stop()
	if sent > 0 {
		out.Success("reminders sent to %d recipient(s)", sent)
	}
	if err != nil {
		return fmt.Errorf("send reminders: %w", err)
	}
	return nil
}

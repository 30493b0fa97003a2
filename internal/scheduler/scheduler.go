package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/auth"
	"github.com/trackify/mailer/internal/models"
	"github.com/trackify/mailer/internal/report"
)

// SettingsStore is the slice of the store the scheduler needs.
type SettingsStore interface {
	DueOn(date time.Time) ([]models.Mail, error)
	MarkSent(id uuid.UUID, seenLastSentAt *time.Time, sentAt time.Time) (bool, error)
	MarkFailed(id uuid.UUID, message string) error
}

type Composer interface {
	Compose(ctx context.Context, goalID uuid.UUID, recipient, ownerID, token string) (*report.Report, error)
}

type Dispatcher interface {
	Send(recipients, subject, htmlBody string, attachment []byte, filename string) (string, error)
}

type Notifier interface {
	DeliveryFailed(goalID, recipient, errMsg string) error
	TickFailed(err error) error
}

// Scheduler wakes on a fixed interval and delivers every monthly report
// whose settings are due that day. Settings are processed one at a time;
// a failure is recorded on its own row and never blocks the rest of the
// batch.
type Scheduler struct {
	store      SettingsStore
	composer   Composer
	dispatcher Dispatcher
	notifier   Notifier
	logger     *slog.Logger
	interval   time.Duration
	jwtSecret  string

	// now is swapped out in tests to pin "today".
	now func() time.Time
}

func New(store SettingsStore, composer Composer, dispatcher Dispatcher, notifier Notifier, logger *slog.Logger, interval time.Duration, jwtSecret string) *Scheduler {
	return &Scheduler{
		store:      store,
		composer:   composer,
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		interval:   interval,
		jwtSecret:  jwtSecret,
		now:        time.Now,
	}
}

// Run blocks until ctx is cancelled, ticking once per interval. Shutdown is
// cooperative: a cancelled context stops new deliveries, and a delivery
// already handed to the dispatcher finishes its own write-back.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("report scheduler started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("report scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scan-and-send pass. Only a store failure during selection
// aborts the pass; it is logged, posted to the ops channel and retried on
// the next interval.
func (s *Scheduler) Tick(ctx context.Context) {
	today := s.now().UTC()

	due, err := s.store.DueOn(today)
	if err != nil {
		s.logger.Error("failed to select due settings", slog.Any("error", err))
		if nerr := s.notifier.TickFailed(err); nerr != nil {
			s.logger.Error("failed to notify ops channel", slog.Any("error", nerr))
		}
		return
	}

	s.logger.Info("scheduler tick",
		slog.Int("day", today.Day()),
		slog.Int("due", len(due)))

	for _, setting := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if setting.SentThisMonth(today) {
			s.logger.Info("report already sent this month",
				slog.String("goal_id", setting.RelatedGoalID.String()))
			continue
		}

		s.deliver(ctx, setting, today)
	}
}

func (s *Scheduler) deliver(ctx context.Context, setting models.Mail, today time.Time) {
	goalID := *setting.RelatedGoalID

	token, err := auth.GenerateServiceToken(setting.OwnerUserID, s.jwtSecret, time.Hour)
	if err != nil {
		s.recordFailure(setting, fmt.Errorf("failed to mint service token: %v", err))
		return
	}

	rep, err := s.composer.Compose(ctx, goalID, setting.Recipient, setting.OwnerUserID, token)
	if err != nil {
		s.recordFailure(setting, err)
		return
	}

	filename := fmt.Sprintf("report_%s.pdf", today.Format("2006_01"))
	messageID, err := s.dispatcher.Send(setting.Recipient, rep.Subject, rep.HTMLBody, rep.PDF, filename)
	if err != nil {
		s.recordFailure(setting, err)
		return
	}

	sentAt := s.now().UTC()
	updated, err := s.store.MarkSent(setting.MailID, setting.LastSentAt, sentAt)
	if err != nil {
		s.logger.Error("failed to record sent report",
			slog.String("goal_id", goalID.String()), slog.Any("error", err))
		return
	}
	if !updated {
		// A send-now request won the race on this row; leave its
		// timestamp in place.
		s.logger.Warn("report sent but row was updated concurrently",
			slog.String("goal_id", goalID.String()))
		return
	}

	s.logger.Info("scheduled report sent",
		slog.String("goal_id", goalID.String()),
		slog.String("message_id", messageID))
}

func (s *Scheduler) recordFailure(setting models.Mail, err error) {
	s.logger.Error("failed to deliver scheduled report",
		slog.String("goal_id", setting.RelatedGoalID.String()),
		slog.Any("error", err))

	if serr := s.store.MarkFailed(setting.MailID, err.Error()); serr != nil {
		s.logger.Error("failed to record delivery failure",
			slog.String("goal_id", setting.RelatedGoalID.String()), slog.Any("error", serr))
	}

	if nerr := s.notifier.DeliveryFailed(setting.RelatedGoalID.String(), setting.Recipient, err.Error()); nerr != nil {
		s.logger.Error("failed to notify ops channel", slog.Any("error", nerr))
	}
}

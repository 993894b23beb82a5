package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bezero/internal/domain"
	"bezero/internal/models"
)

const ledgerReconcileInterval = 24 * time.Hour

type ledgerReconciler interface {
	EnqueueLedgerReplace(ctx context.Context) error
}

// Scheduler sweeps time-driven transitions: tickets board and complete by
// their timetable, overdue stays are checked out, and the ledger mirror
// is reconciled once a day.
type Scheduler struct {
	repo     domain.Repository
	stays    domain.StayService
	sync     ledgerReconciler
	interval time.Duration
	logger   *zerolog.Logger
}

func NewScheduler(repo domain.Repository, stays domain.StayService, sync ledgerReconciler, interval time.Duration, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		repo:     repo,
		stays:    stays,
		sync:     sync,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("scheduler: started")
	defer s.logger.Info().Msg("scheduler: stopped")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	reconcile := time.NewTicker(ledgerReconcileInterval)
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		case <-reconcile.C:
			if err := s.sync.EnqueueLedgerReplace(ctx); err != nil {
				s.logger.Error().Err(err).Msg("scheduler: enqueue ledger reconcile")
			}
		}
	}
}

// Sweep advances everything that is due at the given moment. It is a
// single pass; the caller decides the cadence.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) {
	s.sweepTickets(ctx, now, models.TicketPurchased, "departure_at", models.TicketBoarding)
	s.sweepTickets(ctx, now, models.TicketBoarding, "arrival_at", models.TicketCompleted)
	s.sweepExpiredStays(ctx, now)
}

func (s *Scheduler) sweepTickets(ctx context.Context, now time.Time, fromStatus, timeField, toStatus string) {
	tickets, err := s.repo.GetTicketsDue(ctx, fromStatus, timeField, now)
	if err != nil {
		s.logger.Error().Err(err).Str("from", fromStatus).Msg("scheduler: fetch due tickets")
		return
	}

	for _, ticket := range tickets {
		if err := s.repo.UpdateTicketStatus(ctx, ticket.ID, fromStatus, toStatus); err != nil {
			s.logger.Error().Err(err).Int64("ticket_id", ticket.ID).Msg("scheduler: ticket transition")
			continue
		}
		s.logger.Info().Int64("ticket_id", ticket.ID).Str("status", toStatus).Msg("scheduler: ticket advanced")
	}
}

// sweepExpiredStays checks out guests whose stay period has ended. Going
// through the stay service keeps the side effects: presence is cleared
// and the guest's open dialogs in the house are ended.
func (s *Scheduler) sweepExpiredStays(ctx context.Context, now time.Time) {
	stays, err := s.repo.GetExpiredStays(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduler: fetch expired stays")
		return
	}

	for _, stay := range stays {
		if err := s.stays.CheckOut(ctx, stay.UserID, stay.ID, stay.Version); err != nil {
			s.logger.Error().Err(err).Int64("stay_id", stay.ID).Msg("scheduler: force checkout")
			continue
		}
		s.logger.Info().Int64("stay_id", stay.ID).Int64("user_id", stay.UserID).Msg("scheduler: stay checked out")
	}
}

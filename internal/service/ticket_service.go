package service

import (
	"context"
	"time"

	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
)

type TicketService struct {
	repo          domain.Repository
	eventBus      domain.EventPublisher
	syncWorker    domain.SyncWorker
	maxTravelDays int
	logger        *zerolog.Logger
}

func NewTicketService(repo domain.Repository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, maxTravelDays int, logger *zerolog.Logger) *TicketService {
	if maxTravelDays <= 0 {
		maxTravelDays = 365
	}
	return &TicketService{
		repo:          repo,
		eventBus:      eventBus,
		syncWorker:    syncWorker,
		maxTravelDays: maxTravelDays,
		logger:        logger,
	}
}

func (s *TicketService) ListCities(ctx context.Context) []models.City {
	return s.repo.GetCities()
}

// ValidateDeparture rejects departures in the past or beyond the horizon.
func (s *TicketService) ValidateDeparture(departureAt time.Time) error {
	if departureAt.Before(time.Now()) {
		return database.ErrPastDate
	}
	if departureAt.After(time.Now().AddDate(0, 0, s.maxTravelDays)) {
		return database.ErrDateTooFar
	}
	return nil
}

// Purchase charges the point ledger and reserves the seat in one
// transaction; an insufficient balance or a full airship aborts both.
func (s *TicketService) Purchase(ctx context.Context, ticket *models.Ticket) error {
	if err := s.ValidateDeparture(ticket.DepartureAt); err != nil {
		return err
	}

	entry, err := s.repo.PurchaseTicket(ctx, ticket)
	if err != nil {
		return err
	}

	s.publishTicketEvent(events.EventTicketPurchased, ticket)
	publishPointsEvent(s.eventBus, entry)

	if s.syncWorker != nil && entry != nil {
		if err := s.syncWorker.EnqueueLedgerSync(ctx, entry); err != nil {
			s.logger.Error().Err(err).Int64("ticket_id", ticket.ID).Msg("ledger sync enqueue error")
		}
	}

	return nil
}

// Cancel refunds a PURCHASED ticket. The refund reference keeps a retried
// cancel from paying out twice.
func (s *TicketService) Cancel(ctx context.Context, userID, ticketID, version int64) error {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.UserID != userID {
		return ErrForbidden
	}

	cancelled, err := s.repo.CancelTicket(ctx, ticketID, version)
	if err != nil {
		return err
	}

	s.publishTicketEvent(events.EventTicketCancelled, cancelled)
	return nil
}

func (s *TicketService) GetTicket(ctx context.Context, userID, ticketID int64) (*models.Ticket, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) ListUserTickets(ctx context.Context, userID int64, limit, offset int) ([]*models.Ticket, error) {
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	return s.repo.GetUserTickets(ctx, userID, limit, offset)
}

// Advance forces a timetable transition by hand. The sweep does this
// automatically; managers use it when a flight actually left early or
// late.
func (s *TicketService) Advance(ctx context.Context, ticketID int64, toStatus string) error {
	var fromStatus string
	switch toStatus {
	case models.TicketBoarding:
		fromStatus = models.TicketPurchased
	case models.TicketCompleted:
		fromStatus = models.TicketBoarding
	default:
		return database.ErrInvalidTransition
	}

	if err := s.repo.UpdateTicketStatus(ctx, ticketID, fromStatus, toStatus); err != nil {
		return err
	}

	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	s.logger.Info().Int64("ticket_id", ticketID).Str("status", toStatus).Msg("ticket advanced manually")
	s.publishTicketEvent(events.EventTicketAdvanced, ticket)
	return nil
}

func (s *TicketService) publishTicketEvent(eventType string, ticket *models.Ticket) {
	if s.eventBus == nil {
		return
	}

	payload := events.TicketEventPayload{
		TicketID:    ticket.ID,
		UserID:      ticket.UserID,
		AirshipID:   ticket.AirshipID,
		FromCityID:  ticket.FromCityID,
		ToCityID:    ticket.ToCityID,
		Price:       ticket.Price,
		Status:      ticket.Status,
		DepartureAt: ticket.DepartureAt,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("ticket_id", ticket.ID).Msg("publish event error")
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
)

// presenceTTL keeps the Redis presence key alive well past any realistic
// stay; the checkout path clears it explicitly.
const presenceTTL = 90 * 24 * time.Hour

type StayService struct {
	repo       domain.Repository
	state      domain.StateRepository
	eventBus   domain.EventPublisher
	syncWorker domain.SyncWorker
	notifier   domain.Notifier
	dm         domain.DMService
	logger     *zerolog.Logger
}

func NewStayService(repo domain.Repository, state domain.StateRepository, eventBus domain.EventPublisher, syncWorker domain.SyncWorker, notifier domain.Notifier, logger *zerolog.Logger) *StayService {
	return &StayService{
		repo:       repo,
		state:      state,
		eventBus:   eventBus,
		syncWorker: syncWorker,
		notifier:   notifier,
		logger:     logger,
	}
}

// SetDMService breaks the stays<->dm construction cycle; checkout needs to
// end the user's active rooms.
func (s *StayService) SetDMService(dm domain.DMService) {
	s.dm = dm
}

func (s *StayService) ListGuestHouses(ctx context.Context) []models.GuestHouse {
	return s.repo.GetGuestHouses()
}

func (s *StayService) GetAvailability(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.RoomAvailability, error) {
	if days <= 0 {
		days = 7
	}
	return s.repo.GetRoomAvailability(ctx, roomID, start, days)
}

// Reserve books a bed if the room still has capacity for the whole period.
func (s *StayService) Reserve(ctx context.Context, stay *models.RoomStay) error {
	if !stay.CheckOut.After(stay.CheckIn) {
		return database.ErrPastDate
	}
	if stay.CheckOut.Before(time.Now()) {
		return database.ErrPastDate
	}

	if err := s.repo.CreateStayWithLock(ctx, stay); err != nil {
		return err
	}

	s.publishStayEvent(events.EventStayReserved, stay)
	s.enqueueStaySync(ctx, stay)
	return nil
}

func (s *StayService) CheckIn(ctx context.Context, userID, stayID, version int64) error {
	stay, err := s.ownStay(ctx, userID, stayID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStayStatusWithVersion(ctx, stayID, version, models.StayReserved, models.StayCheckedIn); err != nil {
		return err
	}
	stay.Status = models.StayCheckedIn

	if err := s.state.SetPresence(ctx, userID, stay.GuestHouseID, presenceTTL); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to set presence")
	}

	s.notifyManager(ctx, stay, "заехал")
	s.publishStayEvent(events.EventStayCheckedIn, stay)
	s.enqueueStaySync(ctx, stay)
	return nil
}

func (s *StayService) CheckOut(ctx context.Context, userID, stayID, version int64) error {
	stay, err := s.ownStay(ctx, userID, stayID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStayStatusWithVersion(ctx, stayID, version, models.StayCheckedIn, models.StayCheckedOut); err != nil {
		return err
	}
	stay.Status = models.StayCheckedOut

	if err := s.state.ClearPresence(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to clear presence")
	}

	s.endActiveDMRooms(ctx, userID, stay.GuestHouseID)

	s.publishStayEvent(events.EventStayCheckedOut, stay)
	s.enqueueStaySync(ctx, stay)
	return nil
}

func (s *StayService) Cancel(ctx context.Context, userID, stayID, version int64) error {
	stay, err := s.ownStay(ctx, userID, stayID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateStayStatusWithVersion(ctx, stayID, version, models.StayReserved, models.StayCancelled); err != nil {
		return err
	}
	stay.Status = models.StayCancelled

	s.publishStayEvent(events.EventStayCancelled, stay)
	s.enqueueStaySync(ctx, stay)
	return nil
}

func (s *StayService) ListUserStays(ctx context.Context, userID int64) ([]*models.RoomStay, error) {
	return s.repo.GetUserStays(ctx, userID)
}

// GetRoommates lists co-located travelers; the caller must be checked in
// at the guest house.
func (s *StayService) GetRoommates(ctx context.Context, userID, guestHouseID int64) ([]*models.User, error) {
	if _, err := s.repo.GetCheckedInStay(ctx, userID, guestHouseID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	return s.repo.GetRoommates(ctx, guestHouseID, userID)
}

func (s *StayService) ownStay(ctx context.Context, userID, stayID int64) (*models.RoomStay, error) {
	stay, err := s.repo.GetStay(ctx, stayID)
	if err != nil {
		return nil, err
	}
	if stay.UserID != userID {
		return nil, ErrForbidden
	}
	return stay, nil
}

// endActiveDMRooms closes the user's active rooms in the guest house they
// just left. Best effort: a failed close is logged, not returned.
func (s *StayService) endActiveDMRooms(ctx context.Context, userID, guestHouseID int64) {
	if s.dm == nil {
		return
	}
	rooms, err := s.repo.GetActiveDMRoomsForUserInHouse(ctx, userID, guestHouseID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list active dm rooms")
		return
	}
	for _, room := range rooms {
		if err := s.dm.End(ctx, userID, room.ID); err != nil {
			s.logger.Error().Err(err).Str("room_id", room.ID).Msg("failed to end dm room on checkout")
		}
	}
}

func (s *StayService) notifyManager(ctx context.Context, stay *models.RoomStay, action string) {
	if s.notifier == nil {
		return
	}
	house, ok := s.repo.GetGuestHouse(stay.GuestHouseID)
	if !ok || house.ManagerChatID == 0 {
		return
	}

	user, err := s.repo.GetUserByID(ctx, stay.UserID)
	nickname := "гость"
	if err == nil {
		nickname = user.Nickname
	}

	text := fmt.Sprintf("%s %s в %s (комната %d, до %s)",
		nickname, action, house.Name, stay.RoomID, stay.CheckOut.Format("02.01.2006"))
	if err := s.notifier.NotifyManager(house.ManagerChatID, text); err != nil {
		s.logger.Error().Err(err).Int64("guest_house_id", stay.GuestHouseID).Msg("manager notification failed")
	}
}

func (s *StayService) publishStayEvent(eventType string, stay *models.RoomStay) {
	if s.eventBus == nil {
		return
	}

	payload := events.StayEventPayload{
		StayID:       stay.ID,
		UserID:       stay.UserID,
		RoomID:       stay.RoomID,
		GuestHouseID: stay.GuestHouseID,
		Status:       stay.Status,
		CheckIn:      stay.CheckIn,
		CheckOut:     stay.CheckOut,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("stay_id", stay.ID).Msg("publish event error")
	}
}

func (s *StayService) enqueueStaySync(ctx context.Context, stay *models.RoomStay) {
	if s.syncWorker == nil {
		return
	}
	if err := s.syncWorker.EnqueueStaySync(ctx, stay); err != nil {
		s.logger.Error().Err(err).Int64("stay_id", stay.ID).Msg("stay sync enqueue error")
	}
}

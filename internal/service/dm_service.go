package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type DMService struct {
	repo        domain.Repository
	state       domain.StateRepository
	eventBus    domain.EventPublisher
	broadcaster domain.Broadcaster
	config      config.ChatConfig
	logger      *zerolog.Logger
}

func NewDMService(repo domain.Repository, state domain.StateRepository, eventBus domain.EventPublisher, cfg config.ChatConfig, logger *zerolog.Logger) *DMService {
	return &DMService{
		repo:     repo,
		state:    state,
		eventBus: eventBus,
		config:   cfg,
		logger:   logger,
	}
}

// SetBroadcaster wires the WebSocket hub in after construction.
func (s *DMService) SetBroadcaster(b domain.Broadcaster) {
	s.broadcaster = b
}

// DMRoomKey is the hub room for a direct-message conversation.
func DMRoomKey(roomID string) string {
	return fmt.Sprintf("dm:%s", roomID)
}

// UserKey is the hub room every client joins on connect, used for
// person-to-person notifications.
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Request opens a pending room. Both users must be checked in at the same
// guest house, and only one open room per pair may exist.
func (s *DMService) Request(ctx context.Context, requesterID, recipientID int64) (*models.DMRoom, error) {
	if requesterID == recipientID {
		return nil, ErrForbidden
	}

	recipient, err := s.repo.GetUserByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if recipient.IsBlacklisted {
		return nil, database.ErrNotFound
	}

	together, houseID, err := s.repo.AreCoLocated(ctx, requesterID, recipientID)
	if err != nil {
		return nil, err
	}
	if !together {
		return nil, ErrNotCoLocated
	}

	room := &models.DMRoom{
		ID:           uuid.NewString(),
		RequesterID:  requesterID,
		RecipientID:  recipientID,
		GuestHouseID: houseID,
	}
	if err := s.repo.CreateDMRoom(ctx, room); err != nil {
		return nil, err
	}

	s.publishDMEvent(events.EventDMRequested, room)
	s.notifyUser(recipientID, "dm_request", room)
	return room, nil
}

// Respond lets the recipient accept or reject a pending request.
func (s *DMService) Respond(ctx context.Context, userID int64, roomID string, version int64, accept bool) error {
	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.RecipientID != userID {
		return ErrForbidden
	}

	if err := s.repo.RespondDMRoom(ctx, roomID, version, accept); err != nil {
		return err
	}

	room, err = s.repo.GetDMRoom(ctx, roomID)
	if err == nil {
		s.publishDMEvent(events.EventDMResponded, room)
		s.notifyUser(room.RequesterID, "dm_response", room)
	}
	return nil
}

// Send stores a message; the first message in an accepted room activates
// the conversation.
func (s *DMService) Send(ctx context.Context, senderID int64, roomID, body string) (*models.DirectMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > s.config.MaxBodyLength {
		return nil, ErrMessageTooLong
	}

	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(senderID) {
		return nil, ErrForbidden
	}

	allowed, err := s.state.CheckRateLimit(ctx, senderID,
		s.config.MessageLimit, time.Duration(s.config.MessageWindow)*time.Second)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", senderID).Msg("rate limit check failed, allowing")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	msg := &models.DirectMessage{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		SenderID: senderID,
		Body:     body,
	}
	if err := s.repo.InsertDirectMessage(ctx, msg); err != nil {
		return nil, err
	}

	peer := room.Peer(senderID)
	if _, err := s.state.IncrUnread(ctx, roomID, peer); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("failed to bump unread counter")
	}

	if s.broadcaster != nil {
		payload := map[string]interface{}{
			"type":    "dm_message",
			"message": msg,
		}
		s.broadcaster.Broadcast(DMRoomKey(roomID), payload)
		s.broadcaster.Broadcast(UserKey(peer), payload)
	}

	return msg, nil
}

// End terminates an active room. Either participant may end it; the
// checkout sweep uses it too.
func (s *DMService) End(ctx context.Context, userID int64, roomID string) error {
	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasParticipant(userID) {
		return ErrForbidden
	}

	if err := s.repo.EndDMRoom(ctx, roomID); err != nil {
		return err
	}

	room.Status = models.DMEnded
	s.publishDMEvent(events.EventDMEnded, room)
	s.notifyUser(room.Peer(userID), "dm_ended", room)
	return nil
}

// History returns messages newest-first and clears the reader's unread
// counter.
func (s *DMService) History(ctx context.Context, userID int64, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error) {
	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, ErrForbidden
	}

	if limit <= 0 || limit > models.MaxPageSize {
		limit = s.config.HistorySize
	}

	messages, err := s.repo.GetDMHistory(ctx, roomID, before, limit)
	if err != nil {
		return nil, err
	}

	if err := s.state.ResetUnread(ctx, roomID, userID); err != nil {
		s.logger.Warn().Err(err).Str("room_id", roomID).Msg("failed to reset unread counter")
	}

	return messages, nil
}

func (s *DMService) DeleteMessage(ctx context.Context, userID int64, messageID string) error {
	return s.repo.SoftDeleteDirectMessage(ctx, messageID, userID)
}

func (s *DMService) ListRooms(ctx context.Context, userID int64) ([]*models.DMRoom, error) {
	return s.repo.GetDMRoomsForUser(ctx, userID)
}

// GetRoom returns the room after a participant check.
func (s *DMService) GetRoom(ctx context.Context, userID int64, roomID string) (*models.DMRoom, error) {
	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, ErrForbidden
	}
	return room, nil
}

func (s *DMService) Unread(ctx context.Context, userID int64, roomID string) (int64, error) {
	room, err := s.repo.GetDMRoom(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if !room.HasParticipant(userID) {
		return 0, ErrForbidden
	}
	return s.state.GetUnread(ctx, roomID, userID)
}

func (s *DMService) publishDMEvent(eventType string, room *models.DMRoom) {
	if s.eventBus == nil {
		return
	}

	payload := events.DMEventPayload{
		RoomID:       room.ID,
		RequesterID:  room.RequesterID,
		RecipientID:  room.RecipientID,
		GuestHouseID: room.GuestHouseID,
		Status:       room.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("room_id", room.ID).Msg("publish event error")
	}
}

func (s *DMService) notifyUser(userID int64, kind string, room *models.DMRoom) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(UserKey(userID), map[string]interface{}{
		"type": kind,
		"room": room,
	})
}

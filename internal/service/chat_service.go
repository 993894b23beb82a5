package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ChatService struct {
	repo        domain.Repository
	state       domain.StateRepository
	broadcaster domain.Broadcaster
	config      config.ChatConfig
	logger      *zerolog.Logger
}

func NewChatService(repo domain.Repository, state domain.StateRepository, cfg config.ChatConfig, logger *zerolog.Logger) *ChatService {
	return &ChatService{
		repo:   repo,
		state:  state,
		config: cfg,
		logger: logger,
	}
}

// SetBroadcaster wires the WebSocket hub in after construction.
func (s *ChatService) SetBroadcaster(b domain.Broadcaster) {
	s.broadcaster = b
}

// RoomKey is the hub room for a guest-house chat.
func RoomKey(guestHouseID int64) string {
	return fmt.Sprintf("gh:%d", guestHouseID)
}

// PostMessage persists and broadcasts a chat message. Only users with a
// checked_in stay at the guest house may post.
func (s *ChatService) PostMessage(ctx context.Context, userID, guestHouseID int64, kind, body string, cardID int64) (*models.ChatMessage, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCheckedInStay(ctx, userID, guestHouseID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	allowed, err := s.state.CheckRateLimit(ctx, userID,
		s.config.MessageLimit, time.Duration(s.config.MessageWindow)*time.Second)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("rate limit check failed, allowing")
	} else if !allowed {
		return nil, ErrRateLimited
	}

	msg := &models.ChatMessage{
		ID:           uuid.NewString(),
		GuestHouseID: guestHouseID,
		UserID:       userID,
		Nickname:     user.Nickname,
		CreatedAt:    time.Now(),
	}

	switch kind {
	case models.MessageCard:
		card, ok := s.repo.GetCard(cardID)
		if !ok {
			return nil, database.ErrNotFound
		}
		msg.Kind = models.MessageCard
		msg.CardID = card.ID
		msg.Body = card.Prompt
	default:
		body = strings.TrimSpace(body)
		if body == "" {
			return nil, ErrEmptyMessage
		}
		if len(body) > s.config.MaxBodyLength {
			return nil, ErrMessageTooLong
		}
		msg.Kind = models.MessageText
		msg.Body = body
	}

	if err := s.repo.InsertChatMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(RoomKey(guestHouseID), map[string]interface{}{
			"type":    "chat_message",
			"message": msg,
		})
	}

	return msg, nil
}

// History returns messages newest-first with a before-cursor. Readers must
// be checked in at the guest house; managers may always read.
func (s *ChatService) History(ctx context.Context, userID, guestHouseID int64, before time.Time, limit int) ([]*models.ChatMessage, error) {
	if err := s.CanAccess(ctx, userID, guestHouseID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > models.MaxPageSize {
		limit = s.config.HistorySize
	}
	return s.repo.GetChatHistory(ctx, guestHouseID, before, limit)
}

// DeleteMessage soft-deletes the author's own message; a manager may
// delete any. The deletion is broadcast so clients can drop it.
func (s *ChatService) DeleteMessage(ctx context.Context, userID int64, messageID string) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	msg, err := s.repo.GetChatMessage(ctx, messageID)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDeleteChatMessage(ctx, messageID, userID, user.IsManager); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(RoomKey(msg.GuestHouseID), map[string]interface{}{
			"type":       "chat_message_deleted",
			"message_id": messageID,
		})
	}
	return nil
}

func (s *ChatService) ListCards(ctx context.Context, cityID int64) []models.ConversationCard {
	return s.repo.GetCards(cityID)
}

// DrawCard picks a random active card, optionally scoped to a city.
func (s *ChatService) DrawCard(ctx context.Context, cityID int64) (models.ConversationCard, error) {
	pool := s.repo.GetCards(cityID)
	if len(pool) == 0 {
		return models.ConversationCard{}, database.ErrNotFound
	}
	return pool[rand.Intn(len(pool))], nil
}

// CanAccess reports whether the user may read the guest-house room:
// checked-in guests and managers.
func (s *ChatService) CanAccess(ctx context.Context, userID, guestHouseID int64) error {
	_, err := s.repo.GetCheckedInStay(ctx, userID, guestHouseID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	user, uerr := s.repo.GetUserByID(ctx, userID)
	if uerr == nil && user.IsManager {
		return nil
	}
	return ErrNotCheckedIn
}

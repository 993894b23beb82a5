package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	config   *config.Config
	logger   *zerolog.Logger
}

func NewUserService(repo domain.Repository, eventBus domain.EventPublisher, cfg *config.Config, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:     repo,
		eventBus: eventBus,
		config:   cfg,
		logger:   logger,
	}
}

// Register creates the user and credits the one-time signup bonus. The
// bonus reference makes a retried registration request harmless.
func (s *UserService) Register(ctx context.Context, email, password, nickname string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Nickname:     nickname,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	bonus, err := s.repo.Earn(ctx, user.ID, s.config.Points.SignupBonus,
		models.RefSignupBonus, fmt.Sprintf("%d", user.ID), "welcome bonus")
	if err != nil && !errors.Is(err, database.ErrDuplicateReference) {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("signup bonus failed")
	}
	publishPointsEvent(s.eventBus, bonus)

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventUserRegistered, map[string]interface{}{
			"user_id":  user.ID,
			"nickname": user.Nickname,
		})
	}

	return user, nil
}

// Login verifies credentials and issues a signed JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.IsBlacklisted {
		return "", nil, ErrBlacklisted
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	if err := s.repo.UpdateUserActivity(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to update activity")
	}

	return token, user, nil
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	role := "traveler"
	if user.IsManager {
		role = "manager"
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"nickname": user.Nickname,
		"role":     role,
		"iat":      now.Unix(),
		"exp":      now.Add(s.config.API.JWT.TokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.API.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TouchActivity stamps the user's last activity time. The API middleware
// calls it on every authenticated request, so failures are only logged.
func (s *UserService) TouchActivity(ctx context.Context, id int64) {
	if err := s.repo.UpdateUserActivity(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", id).Msg("failed to update activity")
	}
}

func (s *UserService) GetProfile(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id int64, nickname, bio, homeCity string) error {
	return s.repo.UpdateUserProfile(ctx, id, nickname, bio, homeCity)
}

func (s *UserService) IsBlacklisted(ctx context.Context, id int64) bool {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return false
	}
	return user.IsBlacklisted
}

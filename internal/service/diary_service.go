package service

import (
	"context"
	"errors"
	"fmt"

	"bezero/internal/config"
	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
)

type DiaryService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	points   config.PointsConfig
	logger   *zerolog.Logger
}

func NewDiaryService(repo domain.Repository, eventBus domain.EventPublisher, points config.PointsConfig, logger *zerolog.Logger) *DiaryService {
	return &DiaryService{
		repo:     repo,
		eventBus: eventBus,
		points:   points,
		logger:   logger,
	}
}

// Create stores the entry and credits the diary reward once per entry.
func (s *DiaryService) Create(ctx context.Context, entry *models.DiaryEntry) (*models.DiaryEntry, error) {
	if err := s.repo.CreateDiaryEntry(ctx, entry); err != nil {
		return nil, err
	}

	reward, err := s.repo.Earn(ctx, entry.UserID, s.points.DiaryReward,
		models.RefDiaryEntry, fmt.Sprintf("%d", entry.ID), "diary entry reward")
	if err != nil && !errors.Is(err, database.ErrDuplicateReference) {
		s.logger.Error().Err(err).Int64("entry_id", entry.ID).Msg("diary reward failed")
	}
	publishPointsEvent(s.eventBus, reward)

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventDiaryCreated, map[string]interface{}{
			"entry_id": entry.ID,
			"user_id":  entry.UserID,
		})
	}

	return entry, nil
}

func (s *DiaryService) Get(ctx context.Context, userID, entryID int64) (*models.DiaryEntry, error) {
	entry, err := s.repo.GetDiaryEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrForbidden
	}
	return entry, nil
}

func (s *DiaryService) Update(ctx context.Context, userID, entryID int64, title, body, mood string) error {
	return s.repo.UpdateDiaryEntry(ctx, entryID, userID, title, body, mood)
}

func (s *DiaryService) Delete(ctx context.Context, userID, entryID int64) error {
	return s.repo.SoftDeleteDiaryEntry(ctx, entryID, userID)
}

func (s *DiaryService) List(ctx context.Context, userID int64, limit, offset int) ([]*models.DiaryEntry, error) {
	if limit <= 0 || limit > models.MaxPageSize {
		limit = models.DefaultPageSize
	}
	return s.repo.GetDiaryEntries(ctx, userID, limit, offset)
}

func (s *DiaryService) ListQuestions(ctx context.Context, cityID int64) []models.Question {
	return s.repo.GetQuestions(cityID)
}

// Answer stores the answer and credits the questionnaire reward. A second
// answer to the same question is rejected by the unique index.
func (s *DiaryService) Answer(ctx context.Context, userID, questionID int64, body string) (*models.Answer, error) {
	question, ok := s.repo.GetQuestion(questionID)
	if !ok || !question.IsActive {
		return nil, database.ErrNotFound
	}

	answer := &models.Answer{
		QuestionID: questionID,
		UserID:     userID,
		Body:       body,
	}
	if err := s.repo.CreateAnswer(ctx, answer); err != nil {
		return nil, err
	}

	// Reference encodes question and user so each pair is rewarded once.
	reward, err := s.repo.Earn(ctx, userID, s.points.QuestionnaireReward,
		models.RefQuestionnaire, fmt.Sprintf("%d:%d", questionID, userID), "questionnaire reward")
	if err != nil && !errors.Is(err, database.ErrDuplicateReference) {
		s.logger.Error().Err(err).Int64("question_id", questionID).Msg("questionnaire reward failed")
	}
	publishPointsEvent(s.eventBus, reward)

	return answer, nil
}

func (s *DiaryService) ListAnswers(ctx context.Context, userID int64) ([]*models.Answer, error) {
	return s.repo.GetAnswers(ctx, userID)
}

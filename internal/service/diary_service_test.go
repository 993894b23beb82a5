package service

import (
	"context"
	"io"
	"testing"

	"bezero/internal/database"
	"bezero/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiaryService(repo *mockRepo, bus *stubBus) *DiaryService {
	logger := zerolog.New(io.Discard)
	return NewDiaryService(repo, bus, testConfig().Points, &logger)
}

func TestDiaryServiceCreateRewards(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	svc := newDiaryService(repo, bus)
	ctx := context.Background()

	entry := &models.DiaryEntry{UserID: 1, Title: "Den první", Body: "..."}
	repo.On("CreateDiaryEntry", ctx, entry).Run(func(args mock.Arguments) {
		args.Get(1).(*models.DiaryEntry).ID = 11
	}).Return(nil).Once()
	repo.On("Earn", ctx, int64(1), int64(50), models.RefDiaryEntry, "11", mock.Anything).
		Return(&models.PointTransaction{ID: 1, UserID: 1, Type: models.PointEarn, Amount: 50}, nil).Once()

	got, err := svc.Create(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	assert.Contains(t, bus.published, "diary_created")
	assert.Contains(t, bus.published, "points_earned")
	repo.AssertExpectations(t)
}

func TestDiaryServiceGetForbidden(t *testing.T) {
	repo := new(mockRepo)
	svc := newDiaryService(repo, &stubBus{})
	ctx := context.Background()

	repo.On("GetDiaryEntry", ctx, int64(11)).
		Return(&models.DiaryEntry{ID: 11, UserID: 1}, nil).Once()

	_, err := svc.Get(ctx, 99, 11)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDiaryServiceAnswer(t *testing.T) {
	repo := new(mockRepo)
	svc := newDiaryService(repo, &stubBus{})
	ctx := context.Background()

	question := models.Question{ID: 5, Prompt: "Что вас удивило?", IsActive: true}

	t.Run("Success", func(t *testing.T) {
		repo.On("GetQuestion", int64(5)).Return(question, true).Once()
		repo.On("CreateAnswer", ctx, mock.MatchedBy(func(a *models.Answer) bool {
			return a.QuestionID == 5 && a.UserID == 1
		})).Return(nil).Once()
		repo.On("Earn", ctx, int64(1), int64(30), models.RefQuestionnaire, "5:1", mock.Anything).
			Return(&models.PointTransaction{ID: 2}, nil).Once()

		answer, err := svc.Answer(ctx, 1, 5, "müsli")
		require.NoError(t, err)
		assert.Equal(t, int64(5), answer.QuestionID)
	})

	t.Run("UnknownQuestion", func(t *testing.T) {
		repo.On("GetQuestion", int64(6)).Return(models.Question{}, false).Once()

		_, err := svc.Answer(ctx, 1, 6, "x")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("AlreadyAnswered", func(t *testing.T) {
		repo.On("GetQuestion", int64(5)).Return(question, true).Once()
		repo.On("CreateAnswer", ctx, mock.Anything).Return(database.ErrAlreadyAnswered).Once()

		_, err := svc.Answer(ctx, 1, 5, "x")
		assert.ErrorIs(t, err, database.ErrAlreadyAnswered)
	})

	repo.AssertExpectations(t)
}

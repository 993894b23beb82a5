package service

import (
	"context"
	"io"
	"testing"
	"time"

	"bezero/internal/database"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDMService(repo *mockRepo, state *mockState, bus *stubBus) *DMService {
	logger := zerolog.New(io.Discard)
	return NewDMService(repo, state, bus, testConfig().Chat, &logger)
}

func TestDMServiceRequest(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	svc := newDMService(repo, new(mockState), bus)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo.On("GetUserByID", ctx, int64(2)).Return(&models.User{ID: 2}, nil).Once()
		repo.On("AreCoLocated", ctx, int64(1), int64(2)).Return(true, int64(3), nil).Once()
		repo.On("CreateDMRoom", ctx, mock.MatchedBy(func(r *models.DMRoom) bool {
			return r.RequesterID == 1 && r.RecipientID == 2 && r.GuestHouseID == 3 && r.ID != ""
		})).Return(nil).Once()

		room, err := svc.Request(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), room.GuestHouseID)
		assert.Contains(t, bus.published, events.EventDMRequested)
	})

	t.Run("NotCoLocated", func(t *testing.T) {
		repo.On("GetUserByID", ctx, int64(2)).Return(&models.User{ID: 2}, nil).Once()
		repo.On("AreCoLocated", ctx, int64(1), int64(2)).Return(false, int64(0), nil).Once()

		_, err := svc.Request(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrNotCoLocated)
	})

	t.Run("SelfRequest", func(t *testing.T) {
		_, err := svc.Request(ctx, 1, 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("DuplicatePair", func(t *testing.T) {
		repo.On("GetUserByID", ctx, int64(2)).Return(&models.User{ID: 2}, nil).Once()
		repo.On("AreCoLocated", ctx, int64(1), int64(2)).Return(true, int64(3), nil).Once()
		repo.On("CreateDMRoom", ctx, mock.Anything).Return(database.ErrDuplicateRequest).Once()

		_, err := svc.Request(ctx, 1, 2)
		assert.ErrorIs(t, err, database.ErrDuplicateRequest)
	})

	repo.AssertExpectations(t)
}

func TestDMServiceRespond(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	svc := newDMService(repo, new(mockState), bus)
	ctx := context.Background()

	pending := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMPending, Version: 1}

	t.Run("RecipientAccepts", func(t *testing.T) {
		accepted := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMAccepted, Version: 2}
		repo.On("GetDMRoom", ctx, "r1").Return(pending, nil).Once()
		repo.On("RespondDMRoom", ctx, "r1", int64(1), true).Return(nil).Once()
		repo.On("GetDMRoom", ctx, "r1").Return(accepted, nil).Once()

		require.NoError(t, svc.Respond(ctx, 2, "r1", 1, true))
		assert.Contains(t, bus.published, events.EventDMResponded)
	})

	t.Run("RequesterMayNotRespond", func(t *testing.T) {
		repo.On("GetDMRoom", ctx, "r1").Return(pending, nil).Once()

		err := svc.Respond(ctx, 1, "r1", 1, true)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	repo.AssertExpectations(t)
}

func TestDMServiceSend(t *testing.T) {
	repo := new(mockRepo)
	state := new(mockState)
	broadcaster := new(mockBroadcaster)
	svc := newDMService(repo, state, &stubBus{})
	svc.SetBroadcaster(broadcaster)
	ctx := context.Background()

	room := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMAccepted, Version: 2}

	repo.On("GetDMRoom", ctx, "r1").Return(room, nil).Once()
	state.On("CheckRateLimit", ctx, int64(1), 20, time.Minute).Return(true, nil).Once()
	repo.On("InsertDirectMessage", ctx, mock.MatchedBy(func(m *models.DirectMessage) bool {
		return m.RoomID == "r1" && m.SenderID == 1 && m.Body == "ahoj"
	})).Return(nil).Once()
	state.On("IncrUnread", ctx, "r1", int64(2)).Return(int64(1), nil).Once()
	broadcaster.On("Broadcast", "dm:r1", mock.Anything).Once()
	broadcaster.On("Broadcast", "user:2", mock.Anything).Once()

	msg, err := svc.Send(ctx, 1, "r1", "ahoj")
	require.NoError(t, err)
	assert.Equal(t, "r1", msg.RoomID)
	repo.AssertExpectations(t)
	state.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestDMServiceSendOutsiderForbidden(t *testing.T) {
	repo := new(mockRepo)
	svc := newDMService(repo, new(mockState), &stubBus{})
	ctx := context.Background()

	room := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMActive}
	repo.On("GetDMRoom", ctx, "r1").Return(room, nil).Once()

	_, err := svc.Send(ctx, 99, "r1", "ahoj")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDMServiceEnd(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	svc := newDMService(repo, new(mockState), bus)
	ctx := context.Background()

	room := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMActive}
	repo.On("GetDMRoom", ctx, "r1").Return(room, nil).Once()
	repo.On("EndDMRoom", ctx, "r1").Return(nil).Once()

	require.NoError(t, svc.End(ctx, 2, "r1"))
	assert.Contains(t, bus.published, events.EventDMEnded)
	repo.AssertExpectations(t)
}

func TestDMServiceHistoryResetsUnread(t *testing.T) {
	repo := new(mockRepo)
	state := new(mockState)
	svc := newDMService(repo, state, &stubBus{})
	ctx := context.Background()

	room := &models.DMRoom{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMActive}
	repo.On("GetDMRoom", ctx, "r1").Return(room, nil).Once()
	repo.On("GetDMHistory", ctx, "r1", mock.Anything, 50).
		Return([]*models.DirectMessage{{ID: "m1"}}, nil).Once()
	state.On("ResetUnread", ctx, "r1", int64(2)).Return(nil).Once()

	msgs, err := svc.History(ctx, 2, "r1", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
	state.AssertExpectations(t)
}

package service

import (
	"context"
	"io"
	"testing"
	"time"

	"bezero/internal/database"
	"bezero/internal/domain"
	"bezero/internal/events"
	"bezero/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStayService(repo *mockRepo, state *mockState, notifier *mockNotifier, bus *stubBus) *StayService {
	logger := zerolog.New(io.Discard)
	var n domain.Notifier
	if notifier != nil {
		n = notifier
	}
	return NewStayService(repo, state, bus, nil, n, &logger)
}

func TestStayServiceReserve(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	svc := newStayService(repo, new(mockState), nil, bus)
	ctx := context.Background()

	stay := &models.RoomStay{
		UserID:   1,
		RoomID:   2,
		CheckIn:  time.Now().Add(24 * time.Hour),
		CheckOut: time.Now().Add(72 * time.Hour),
	}
	repo.On("CreateStayWithLock", ctx, stay).Return(nil).Once()

	require.NoError(t, svc.Reserve(ctx, stay))
	assert.Contains(t, bus.published, events.EventStayReserved)
	repo.AssertExpectations(t)
}

func TestStayServiceReserveInvalidPeriod(t *testing.T) {
	svc := newStayService(new(mockRepo), new(mockState), nil, &stubBus{})
	ctx := context.Background()

	err := svc.Reserve(ctx, &models.RoomStay{
		CheckIn:  time.Now().Add(48 * time.Hour),
		CheckOut: time.Now().Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, database.ErrPastDate)
}

func TestStayServiceCheckIn(t *testing.T) {
	repo := new(mockRepo)
	state := new(mockState)
	notifier := new(mockNotifier)
	bus := &stubBus{}
	svc := newStayService(repo, state, notifier, bus)
	ctx := context.Background()

	stay := &models.RoomStay{ID: 10, UserID: 1, RoomID: 2, GuestHouseID: 3, Status: models.StayReserved, Version: 1, CheckOut: time.Now().Add(48 * time.Hour)}
	house := models.GuestHouse{ID: 3, Name: "Дом у моря", ManagerChatID: 555}

	repo.On("GetStay", ctx, int64(10)).Return(stay, nil).Once()
	repo.On("UpdateStayStatusWithVersion", ctx, int64(10), int64(1), models.StayReserved, models.StayCheckedIn).Return(nil).Once()
	state.On("SetPresence", ctx, int64(1), int64(3), mock.Anything).Return(nil).Once()
	repo.On("GetGuestHouse", int64(3)).Return(house, true).Once()
	repo.On("GetUserByID", ctx, int64(1)).Return(&models.User{ID: 1, Nickname: "ana"}, nil).Once()
	notifier.On("NotifyManager", int64(555), mock.Anything).Return(nil).Once()

	require.NoError(t, svc.CheckIn(ctx, 1, 10, 1))
	assert.Contains(t, bus.published, events.EventStayCheckedIn)
	repo.AssertExpectations(t)
	state.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestStayServiceCheckInWrongOwner(t *testing.T) {
	repo := new(mockRepo)
	svc := newStayService(repo, new(mockState), nil, &stubBus{})
	ctx := context.Background()

	stay := &models.RoomStay{ID: 10, UserID: 1, Status: models.StayReserved}
	repo.On("GetStay", ctx, int64(10)).Return(stay, nil).Once()

	err := svc.CheckIn(ctx, 99, 10, 1)
	assert.ErrorIs(t, err, ErrForbidden)
}

type stubDM struct {
	ended []string
}

func (d *stubDM) Request(ctx context.Context, requesterID, recipientID int64) (*models.DMRoom, error) {
	return nil, nil
}
func (d *stubDM) Respond(ctx context.Context, userID int64, roomID string, version int64, accept bool) error {
	return nil
}
func (d *stubDM) Send(ctx context.Context, senderID int64, roomID, body string) (*models.DirectMessage, error) {
	return nil, nil
}
func (d *stubDM) End(ctx context.Context, userID int64, roomID string) error {
	d.ended = append(d.ended, roomID)
	return nil
}
func (d *stubDM) History(ctx context.Context, userID int64, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error) {
	return nil, nil
}
func (d *stubDM) DeleteMessage(ctx context.Context, userID int64, messageID string) error {
	return nil
}
func (d *stubDM) ListRooms(ctx context.Context, userID int64) ([]*models.DMRoom, error) {
	return nil, nil
}
func (d *stubDM) GetRoom(ctx context.Context, userID int64, roomID string) (*models.DMRoom, error) {
	return nil, nil
}
func (d *stubDM) Unread(ctx context.Context, userID int64, roomID string) (int64, error) {
	return 0, nil
}

func TestStayServiceCheckOutEndsDMRooms(t *testing.T) {
	repo := new(mockRepo)
	state := new(mockState)
	bus := &stubBus{}
	svc := newStayService(repo, state, nil, bus)
	dm := &stubDM{}
	svc.SetDMService(dm)
	ctx := context.Background()

	stay := &models.RoomStay{ID: 10, UserID: 1, GuestHouseID: 3, Status: models.StayCheckedIn, Version: 2}
	rooms := []*models.DMRoom{
		{ID: "r1", RequesterID: 1, RecipientID: 2, Status: models.DMActive},
		{ID: "r2", RequesterID: 5, RecipientID: 1, Status: models.DMActive},
	}

	repo.On("GetStay", ctx, int64(10)).Return(stay, nil).Once()
	repo.On("UpdateStayStatusWithVersion", ctx, int64(10), int64(2), models.StayCheckedIn, models.StayCheckedOut).Return(nil).Once()
	state.On("ClearPresence", ctx, int64(1)).Return(nil).Once()
	repo.On("GetActiveDMRoomsForUserInHouse", ctx, int64(1), int64(3)).Return(rooms, nil).Once()

	require.NoError(t, svc.CheckOut(ctx, 1, 10, 2))
	assert.Equal(t, []string{"r1", "r2"}, dm.ended)
	assert.Contains(t, bus.published, events.EventStayCheckedOut)
	repo.AssertExpectations(t)
	state.AssertExpectations(t)
}

func TestStayServiceGetRoommates(t *testing.T) {
	repo := new(mockRepo)
	svc := newStayService(repo, new(mockState), nil, &stubBus{})
	ctx := context.Background()

	t.Run("NotCheckedIn", func(t *testing.T) {
		repo.On("GetCheckedInStay", ctx, int64(1), int64(3)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.GetRoommates(ctx, 1, 3)
		assert.ErrorIs(t, err, ErrNotCheckedIn)
	})

	t.Run("Success", func(t *testing.T) {
		repo.On("GetCheckedInStay", ctx, int64(1), int64(3)).
			Return(&models.RoomStay{ID: 10}, nil).Once()
		repo.On("GetRoommates", ctx, int64(3), int64(1)).
			Return([]*models.User{{ID: 2}}, nil).Once()

		users, err := svc.GetRoommates(ctx, 1, 3)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	repo.AssertExpectations(t)
}

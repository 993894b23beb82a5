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
	"github.com/stretchr/testify/require"
)

func TestTicketServicePurchase(t *testing.T) {
	repo := new(mockRepo)
	sync := new(mockSyncWorker)
	bus := &stubBus{}
	logger := zerolog.New(io.Discard)
	svc := NewTicketService(repo, bus, sync, 365, &logger)
	ctx := context.Background()

	ticket := &models.Ticket{
		UserID:      1,
		AirshipID:   2,
		FromCityID:  1,
		ToCityID:    3,
		Price:       120,
		DepartureAt: time.Now().Add(48 * time.Hour),
	}
	entry := &models.PointTransaction{ID: 9, Type: models.PointSpend, Amount: 120}

	repo.On("PurchaseTicket", ctx, ticket).Return(entry, nil).Once()
	sync.On("EnqueueLedgerSync", ctx, entry).Return(nil).Once()

	require.NoError(t, svc.Purchase(ctx, ticket))
	assert.Contains(t, bus.published, events.EventTicketPurchased)
	assert.Contains(t, bus.published, events.EventPointsSpent)
	repo.AssertExpectations(t)
	sync.AssertExpectations(t)
}

func TestTicketServicePurchaseDateValidation(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.New(io.Discard)
	svc := NewTicketService(repo, nil, nil, 30, &logger)
	ctx := context.Background()

	t.Run("Past", func(t *testing.T) {
		err := svc.Purchase(ctx, &models.Ticket{DepartureAt: time.Now().Add(-time.Hour)})
		assert.ErrorIs(t, err, database.ErrPastDate)
	})

	t.Run("TooFar", func(t *testing.T) {
		err := svc.Purchase(ctx, &models.Ticket{DepartureAt: time.Now().AddDate(0, 0, 60)})
		assert.ErrorIs(t, err, database.ErrDateTooFar)
	})
}

func TestTicketServiceCancel(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	logger := zerolog.New(io.Discard)
	svc := NewTicketService(repo, bus, nil, 365, &logger)
	ctx := context.Background()

	ticket := &models.Ticket{ID: 5, UserID: 1, Status: models.TicketPurchased, Version: 1}

	t.Run("Success", func(t *testing.T) {
		cancelled := &models.Ticket{ID: 5, UserID: 1, Status: models.TicketCancelled, Version: 2}
		repo.On("GetTicket", ctx, int64(5)).Return(ticket, nil).Once()
		repo.On("CancelTicket", ctx, int64(5), int64(1)).Return(cancelled, nil).Once()

		require.NoError(t, svc.Cancel(ctx, 1, 5, 1))
		assert.Contains(t, bus.published, events.EventTicketCancelled)
	})

	t.Run("NotOwner", func(t *testing.T) {
		repo.On("GetTicket", ctx, int64(5)).Return(ticket, nil).Once()

		err := svc.Cancel(ctx, 99, 5, 1)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("VersionConflict", func(t *testing.T) {
		repo.On("GetTicket", ctx, int64(5)).Return(ticket, nil).Once()
		repo.On("CancelTicket", ctx, int64(5), int64(3)).Return(nil, database.ErrVersionConflict).Once()

		err := svc.Cancel(ctx, 1, 5, 3)
		assert.ErrorIs(t, err, database.ErrVersionConflict)
	})

	repo.AssertExpectations(t)
}

func TestTicketServiceAdvance(t *testing.T) {
	repo := new(mockRepo)
	bus := &stubBus{}
	logger := zerolog.New(io.Discard)
	svc := NewTicketService(repo, bus, nil, 365, &logger)
	ctx := context.Background()

	t.Run("Boarding", func(t *testing.T) {
		boarding := &models.Ticket{ID: 5, Status: models.TicketBoarding}
		repo.On("UpdateTicketStatus", ctx, int64(5), models.TicketPurchased, models.TicketBoarding).
			Return(nil).Once()
		repo.On("GetTicket", ctx, int64(5)).Return(boarding, nil).Once()

		require.NoError(t, svc.Advance(ctx, 5, models.TicketBoarding))
		assert.Contains(t, bus.published, events.EventTicketAdvanced)
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		err := svc.Advance(ctx, 5, "teleported")
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	repo.AssertExpectations(t)
}

func TestTicketServiceListClampsLimit(t *testing.T) {
	repo := new(mockRepo)
	logger := zerolog.New(io.Discard)
	svc := NewTicketService(repo, nil, nil, 365, &logger)
	ctx := context.Background()

	repo.On("GetUserTickets", ctx, int64(1), models.DefaultPageSize, 0).
		Return([]*models.Ticket{}, nil).Once()

	_, err := svc.ListUserTickets(ctx, 1, 0, 0)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

package service

import (
	"context"
	"time"

	"bezero/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *mockRepo) UpdateUserProfile(ctx context.Context, id int64, nickname, bio, homeCity string) error {
	return m.Called(ctx, id, nickname, bio, homeCity).Error(0)
}
func (m *mockRepo) UpdateUserActivity(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) SetUserBlacklisted(ctx context.Context, id int64, b bool) error {
	return m.Called(ctx, id, b).Error(0)
}
func (m *mockRepo) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockRepo) Earn(ctx context.Context, userID, amount int64, refType, refID, desc string) (*models.PointTransaction, error) {
	args := m.Called(ctx, userID, amount, refType, refID, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PointTransaction), args.Error(1)
}
func (m *mockRepo) Spend(ctx context.Context, userID, amount int64, refType, refID, desc string) (*models.PointTransaction, error) {
	args := m.Called(ctx, userID, amount, refType, refID, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PointTransaction), args.Error(1)
}
func (m *mockRepo) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockRepo) GetPointTransactions(ctx context.Context, userID int64, limit, offset int) ([]*models.PointTransaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PointTransaction), args.Error(1)
}
func (m *mockRepo) GetAllPointTransactions(ctx context.Context) ([]*models.PointTransaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PointTransaction), args.Error(1)
}

func (m *mockRepo) PurchaseTicket(ctx context.Context, t *models.Ticket) (*models.PointTransaction, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PointTransaction), args.Error(1)
}
func (m *mockRepo) CancelTicket(ctx context.Context, id, version int64) (*models.Ticket, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}
func (m *mockRepo) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}
func (m *mockRepo) GetUserTickets(ctx context.Context, userID int64, limit, offset int) ([]*models.Ticket, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}
func (m *mockRepo) UpdateTicketStatus(ctx context.Context, id int64, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}
func (m *mockRepo) GetTicketsDue(ctx context.Context, status, timeField string, now time.Time) ([]*models.Ticket, error) {
	args := m.Called(ctx, status, timeField, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

func (m *mockRepo) CreateStayWithLock(ctx context.Context, s *models.RoomStay) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockRepo) UpdateStayStatusWithVersion(ctx context.Context, id, version int64, from, to string) error {
	return m.Called(ctx, id, version, from, to).Error(0)
}
func (m *mockRepo) GetStay(ctx context.Context, id int64) (*models.RoomStay, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoomStay), args.Error(1)
}
func (m *mockRepo) GetUserStays(ctx context.Context, userID int64) ([]*models.RoomStay, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomStay), args.Error(1)
}
func (m *mockRepo) GetCheckedInStay(ctx context.Context, userID, houseID int64) (*models.RoomStay, error) {
	args := m.Called(ctx, userID, houseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoomStay), args.Error(1)
}
func (m *mockRepo) GetRoommates(ctx context.Context, houseID, userID int64) ([]*models.User, error) {
	args := m.Called(ctx, houseID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
func (m *mockRepo) AreCoLocated(ctx context.Context, a, b int64) (bool, int64, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}
func (m *mockRepo) GetRoomAvailability(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.RoomAvailability, error) {
	args := m.Called(ctx, roomID, start, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomAvailability), args.Error(1)
}
func (m *mockRepo) GetStaysByDateRange(ctx context.Context, start, end time.Time) ([]*models.RoomStay, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomStay), args.Error(1)
}
func (m *mockRepo) GetExpiredStays(ctx context.Context, now time.Time) ([]*models.RoomStay, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RoomStay), args.Error(1)
}

func (m *mockRepo) InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockRepo) GetChatMessage(ctx context.Context, id string) (*models.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}
func (m *mockRepo) GetChatHistory(ctx context.Context, houseID int64, before time.Time, limit int) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, houseID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChatMessage), args.Error(1)
}
func (m *mockRepo) SoftDeleteChatMessage(ctx context.Context, id string, userID int64, asManager bool) error {
	return m.Called(ctx, id, userID, asManager).Error(0)
}

func (m *mockRepo) CreateDMRoom(ctx context.Context, room *models.DMRoom) error {
	return m.Called(ctx, room).Error(0)
}
func (m *mockRepo) GetDMRoom(ctx context.Context, id string) (*models.DMRoom, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DMRoom), args.Error(1)
}
func (m *mockRepo) RespondDMRoom(ctx context.Context, id string, version int64, accept bool) error {
	return m.Called(ctx, id, version, accept).Error(0)
}
func (m *mockRepo) EndDMRoom(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) InsertDirectMessage(ctx context.Context, msg *models.DirectMessage) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *mockRepo) GetDMHistory(ctx context.Context, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error) {
	args := m.Called(ctx, roomID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DirectMessage), args.Error(1)
}
func (m *mockRepo) SoftDeleteDirectMessage(ctx context.Context, id string, senderID int64) error {
	return m.Called(ctx, id, senderID).Error(0)
}
func (m *mockRepo) GetDMRoomsForUser(ctx context.Context, userID int64) ([]*models.DMRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DMRoom), args.Error(1)
}
func (m *mockRepo) GetActiveDMRoomsForUserInHouse(ctx context.Context, userID, houseID int64) ([]*models.DMRoom, error) {
	args := m.Called(ctx, userID, houseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DMRoom), args.Error(1)
}

func (m *mockRepo) CreateDiaryEntry(ctx context.Context, e *models.DiaryEntry) error {
	return m.Called(ctx, e).Error(0)
}
func (m *mockRepo) GetDiaryEntry(ctx context.Context, id int64) (*models.DiaryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiaryEntry), args.Error(1)
}
func (m *mockRepo) UpdateDiaryEntry(ctx context.Context, id, userID int64, title, body, mood string) error {
	return m.Called(ctx, id, userID, title, body, mood).Error(0)
}
func (m *mockRepo) SoftDeleteDiaryEntry(ctx context.Context, id, userID int64) error {
	return m.Called(ctx, id, userID).Error(0)
}
func (m *mockRepo) GetDiaryEntries(ctx context.Context, userID int64, limit, offset int) ([]*models.DiaryEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DiaryEntry), args.Error(1)
}
func (m *mockRepo) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockRepo) GetAnswers(ctx context.Context, userID int64) ([]*models.Answer, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Answer), args.Error(1)
}

func (m *mockRepo) SetCatalog(c models.Catalog) { m.Called(c) }
func (m *mockRepo) GetCity(id int64) (models.City, bool) {
	args := m.Called(id)
	return args.Get(0).(models.City), args.Bool(1)
}
func (m *mockRepo) GetCities() []models.City {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.City)
}
func (m *mockRepo) GetAirship(id int64) (models.Airship, bool) {
	args := m.Called(id)
	return args.Get(0).(models.Airship), args.Bool(1)
}
func (m *mockRepo) GetGuestHouse(id int64) (models.GuestHouse, bool) {
	args := m.Called(id)
	return args.Get(0).(models.GuestHouse), args.Bool(1)
}
func (m *mockRepo) GetGuestHouses() []models.GuestHouse {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.GuestHouse)
}
func (m *mockRepo) GetRoom(id int64) (models.Room, bool) {
	args := m.Called(id)
	return args.Get(0).(models.Room), args.Bool(1)
}
func (m *mockRepo) GetRoomsForGuestHouse(houseID int64) []models.Room {
	args := m.Called(houseID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Room)
}
func (m *mockRepo) GetCards(cityID int64) []models.ConversationCard {
	args := m.Called(cityID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.ConversationCard)
}
func (m *mockRepo) GetCard(id int64) (models.ConversationCard, bool) {
	args := m.Called(id)
	return args.Get(0).(models.ConversationCard), args.Bool(1)
}
func (m *mockRepo) GetQuestions(cityID int64) []models.Question {
	args := m.Called(cityID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.Question)
}
func (m *mockRepo) GetQuestion(id int64) (models.Question, bool) {
	args := m.Called(id)
	return args.Get(0).(models.Question), args.Bool(1)
}

type mockState struct {
	mock.Mock
}

func (m *mockState) SetPresence(ctx context.Context, userID, houseID int64, ttl time.Duration) error {
	return m.Called(ctx, userID, houseID, ttl).Error(0)
}
func (m *mockState) ClearPresence(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockState) GetPresence(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockState) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}
func (m *mockState) IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockState) GetUnread(ctx context.Context, roomID string, userID int64) (int64, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockState) ResetUnread(ctx context.Context, roomID string, userID int64) error {
	return m.Called(ctx, roomID, userID).Error(0)
}

type mockSyncWorker struct {
	mock.Mock
}

func (m *mockSyncWorker) EnqueueStaySync(ctx context.Context, s *models.RoomStay) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSyncWorker) EnqueueLedgerSync(ctx context.Context, tx *models.PointTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyManager(chatID int64, text string) error {
	return m.Called(chatID, text).Error(0)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(room string, payload interface{}) {
	m.Called(room, payload)
}

type stubBus struct {
	published []string
}

func (b *stubBus) PublishJSON(eventType string, payload interface{}) error {
	b.published = append(b.published, eventType)
	return nil
}

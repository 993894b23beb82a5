package domain

import (
	"context"
	"time"

	"bezero/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Repository is the persistence surface the services depend on.
type Repository interface {
	// users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, nickname, bio, homeCity string) error
	UpdateUserActivity(ctx context.Context, id int64) error
	SetUserBlacklisted(ctx context.Context, id int64, blacklisted bool) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)

	// points
	Earn(ctx context.Context, userID int64, amount int64, refType, refID, description string) (*models.PointTransaction, error)
	Spend(ctx context.Context, userID int64, amount int64, refType, refID, description string) (*models.PointTransaction, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	GetPointTransactions(ctx context.Context, userID int64, limit, offset int) ([]*models.PointTransaction, error)
	GetAllPointTransactions(ctx context.Context) ([]*models.PointTransaction, error)

	// tickets
	PurchaseTicket(ctx context.Context, ticket *models.Ticket) (*models.PointTransaction, error)
	CancelTicket(ctx context.Context, id, version int64) (*models.Ticket, error)
	GetTicket(ctx context.Context, id int64) (*models.Ticket, error)
	GetUserTickets(ctx context.Context, userID int64, limit, offset int) ([]*models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, id int64, fromStatus, toStatus string) error
	GetTicketsDue(ctx context.Context, status, timeField string, now time.Time) ([]*models.Ticket, error)

	// stays
	CreateStayWithLock(ctx context.Context, stay *models.RoomStay) error
	UpdateStayStatusWithVersion(ctx context.Context, id, version int64, fromStatus, toStatus string) error
	GetStay(ctx context.Context, id int64) (*models.RoomStay, error)
	GetUserStays(ctx context.Context, userID int64) ([]*models.RoomStay, error)
	GetCheckedInStay(ctx context.Context, userID, guestHouseID int64) (*models.RoomStay, error)
	GetRoommates(ctx context.Context, guestHouseID, userID int64) ([]*models.User, error)
	AreCoLocated(ctx context.Context, userA, userB int64) (bool, int64, error)
	GetRoomAvailability(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.RoomAvailability, error)
	GetStaysByDateRange(ctx context.Context, start, end time.Time) ([]*models.RoomStay, error)
	GetExpiredStays(ctx context.Context, now time.Time) ([]*models.RoomStay, error)

	// chat
	InsertChatMessage(ctx context.Context, msg *models.ChatMessage) error
	GetChatMessage(ctx context.Context, id string) (*models.ChatMessage, error)
	GetChatHistory(ctx context.Context, guestHouseID int64, before time.Time, limit int) ([]*models.ChatMessage, error)
	SoftDeleteChatMessage(ctx context.Context, id string, userID int64, asManager bool) error

	// direct messages
	CreateDMRoom(ctx context.Context, room *models.DMRoom) error
	GetDMRoom(ctx context.Context, id string) (*models.DMRoom, error)
	RespondDMRoom(ctx context.Context, id string, version int64, accept bool) error
	EndDMRoom(ctx context.Context, id string) error
	InsertDirectMessage(ctx context.Context, msg *models.DirectMessage) error
	GetDMHistory(ctx context.Context, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error)
	SoftDeleteDirectMessage(ctx context.Context, id string, senderID int64) error
	GetDMRoomsForUser(ctx context.Context, userID int64) ([]*models.DMRoom, error)
	GetActiveDMRoomsForUserInHouse(ctx context.Context, userID, guestHouseID int64) ([]*models.DMRoom, error)

	// diaries and questionnaires
	CreateDiaryEntry(ctx context.Context, entry *models.DiaryEntry) error
	GetDiaryEntry(ctx context.Context, id int64) (*models.DiaryEntry, error)
	UpdateDiaryEntry(ctx context.Context, id, userID int64, title, body, mood string) error
	SoftDeleteDiaryEntry(ctx context.Context, id, userID int64) error
	GetDiaryEntries(ctx context.Context, userID int64, limit, offset int) ([]*models.DiaryEntry, error)
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswers(ctx context.Context, userID int64) ([]*models.Answer, error)

	// catalog (in-memory, loaded from the seed file at startup)
	SetCatalog(cat models.Catalog)
	GetCity(id int64) (models.City, bool)
	GetCities() []models.City
	GetAirship(id int64) (models.Airship, bool)
	GetGuestHouse(id int64) (models.GuestHouse, bool)
	GetGuestHouses() []models.GuestHouse
	GetRoom(id int64) (models.Room, bool)
	GetRoomsForGuestHouse(guestHouseID int64) []models.Room
	GetCards(cityID int64) []models.ConversationCard
	GetCard(id int64) (models.ConversationCard, bool)
	GetQuestions(cityID int64) []models.Question
	GetQuestion(id int64) (models.Question, bool)
}

// StateRepository keeps volatile per-user state in Redis: presence,
// chat rate-limit windows and unread DM counters.
type StateRepository interface {
	SetPresence(ctx context.Context, userID, guestHouseID int64, ttl time.Duration) error
	ClearPresence(ctx context.Context, userID int64) error
	GetPresence(ctx context.Context, userID int64) (int64, error)
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	IncrUnread(ctx context.Context, roomID string, userID int64) (int64, error)
	GetUnread(ctx context.Context, roomID string, userID int64) (int64, error)
	ResetUnread(ctx context.Context, roomID string, userID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Broadcaster pushes a JSON-serializable payload to every client joined to
// a hub room ("gh:<id>", "dm:<room_id>", "user:<id>").
type Broadcaster interface {
	Broadcast(room string, payload interface{})
}

// Notifier delivers operational alerts to guest-house managers.
type Notifier interface {
	NotifyManager(chatID int64, text string) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SheetsWriter interface {
	UpdateStaysSheet(ctx context.Context, stays []*models.RoomStay) error
	AppendLedgerEntry(ctx context.Context, tx *models.PointTransaction) error
	ReplaceLedgerSheet(ctx context.Context, txs []*models.PointTransaction) error
}

type SyncWorker interface {
	EnqueueStaySync(ctx context.Context, stay *models.RoomStay) error
	EnqueueLedgerSync(ctx context.Context, tx *models.PointTransaction) error
}

type UserService interface {
	Register(ctx context.Context, email, password, nickname string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	GetProfile(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, nickname, bio, homeCity string) error
	TouchActivity(ctx context.Context, id int64)
	IsBlacklisted(ctx context.Context, id int64) bool
}

type TicketService interface {
	ListCities(ctx context.Context) []models.City
	Purchase(ctx context.Context, ticket *models.Ticket) error
	Cancel(ctx context.Context, userID, ticketID, version int64) error
	Advance(ctx context.Context, ticketID int64, toStatus string) error
	GetTicket(ctx context.Context, userID, ticketID int64) (*models.Ticket, error)
	ListUserTickets(ctx context.Context, userID int64, limit, offset int) ([]*models.Ticket, error)
}

type StayService interface {
	ListGuestHouses(ctx context.Context) []models.GuestHouse
	GetAvailability(ctx context.Context, roomID int64, start time.Time, days int) ([]*models.RoomAvailability, error)
	Reserve(ctx context.Context, stay *models.RoomStay) error
	CheckIn(ctx context.Context, userID, stayID, version int64) error
	CheckOut(ctx context.Context, userID, stayID, version int64) error
	Cancel(ctx context.Context, userID, stayID, version int64) error
	ListUserStays(ctx context.Context, userID int64) ([]*models.RoomStay, error)
	GetRoommates(ctx context.Context, userID, guestHouseID int64) ([]*models.User, error)
}

type ChatService interface {
	PostMessage(ctx context.Context, userID, guestHouseID int64, kind, body string, cardID int64) (*models.ChatMessage, error)
	History(ctx context.Context, userID, guestHouseID int64, before time.Time, limit int) ([]*models.ChatMessage, error)
	DeleteMessage(ctx context.Context, userID int64, messageID string) error
	CanAccess(ctx context.Context, userID, guestHouseID int64) error
	ListCards(ctx context.Context, cityID int64) []models.ConversationCard
	DrawCard(ctx context.Context, cityID int64) (models.ConversationCard, error)
}

type DMService interface {
	Request(ctx context.Context, requesterID, recipientID int64) (*models.DMRoom, error)
	Respond(ctx context.Context, userID int64, roomID string, version int64, accept bool) error
	Send(ctx context.Context, senderID int64, roomID, body string) (*models.DirectMessage, error)
	End(ctx context.Context, userID int64, roomID string) error
	History(ctx context.Context, userID int64, roomID string, before time.Time, limit int) ([]*models.DirectMessage, error)
	DeleteMessage(ctx context.Context, userID int64, messageID string) error
	ListRooms(ctx context.Context, userID int64) ([]*models.DMRoom, error)
	GetRoom(ctx context.Context, userID int64, roomID string) (*models.DMRoom, error)
	Unread(ctx context.Context, userID int64, roomID string) (int64, error)
}

type PointService interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64, limit, offset int) ([]*models.PointTransaction, error)
	ExportLedger(ctx context.Context) ([]byte, error)
	ExportStays(ctx context.Context, start, end time.Time) ([]byte, error)
}

type DiaryService interface {
	Create(ctx context.Context, entry *models.DiaryEntry) (*models.DiaryEntry, error)
	Get(ctx context.Context, userID, entryID int64) (*models.DiaryEntry, error)
	Update(ctx context.Context, userID, entryID int64, title, body, mood string) error
	Delete(ctx context.Context, userID, entryID int64) error
	List(ctx context.Context, userID int64, limit, offset int) ([]*models.DiaryEntry, error)
	ListQuestions(ctx context.Context, cityID int64) []models.Question
	Answer(ctx context.Context, userID, questionID int64, body string) (*models.Answer, error)
	ListAnswers(ctx context.Context, userID int64) ([]*models.Answer, error)
}

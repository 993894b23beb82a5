package models

// Ticket lifecycle.
const (
	TicketPurchased = "purchased"
	TicketBoarding  = "boarding"
	TicketCompleted = "completed"
	TicketCancelled = "cancelled"
)

// RoomStay lifecycle.
const (
	StayReserved   = "reserved"
	StayCheckedIn  = "checked_in"
	StayCheckedOut = "checked_out"
	StayCancelled  = "cancelled"
)

// DMRoom lifecycle.
const (
	DMPending  = "pending"
	DMAccepted = "accepted"
	DMActive   = "active"
	DMRejected = "rejected"
	DMEnded    = "ended"
)

// Point transaction types.
const (
	PointEarn  = "earn"
	PointSpend = "spend"
)

// Point reference types. Together with the reference ID they make a
// reward replay-safe: the ledger enforces uniqueness per pair.
const (
	RefSignupBonus   = "signup_bonus"
	RefTicket        = "ticket"
	RefTicketRefund  = "ticket_refund"
	RefDiaryEntry    = "diary_entry"
	RefQuestionnaire = "questionnaire_answer"
)

// Chat message kinds.
const (
	MessageText = "text"
	MessageCard = "card"
)

const (
	// SignupBonusPoints начисляются один раз при регистрации
	SignupBonusPoints = 500

	// DiaryRewardPoints начисляются за запись в дневнике
	DiaryRewardPoints = 50

	// QuestionnaireRewardPoints начисляются за ответ на вопрос
	QuestionnaireRewardPoints = 30

	// DefaultRedisTTL время жизни volatile-состояния в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// DefaultPageSize размер страницы по умолчанию
	DefaultPageSize = 50

	// MaxPageSize верхняя граница размера страницы
	MaxPageSize = 200

	// RateLimitMessages количество сообщений чата в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах

	// MaxMessageLength максимальная длина сообщения чата
	MaxMessageLength = 2000
)

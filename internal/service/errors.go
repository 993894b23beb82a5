package service

import "errors"

var (
	// ErrInvalidCredentials скрывает, что именно не совпало: email или пароль
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrBlacklisted — пользователь заблокирован
	ErrBlacklisted = errors.New("user is blacklisted")

	// ErrForbidden — операция не принадлежит пользователю
	ErrForbidden = errors.New("forbidden")

	// ErrNotCheckedIn — для чата нужен статус checked_in в этом доме
	ErrNotCheckedIn = errors.New("no checked-in stay at this guest house")

	// ErrNotCoLocated — запрос DM возможен только между соседями
	ErrNotCoLocated = errors.New("users are not co-located")

	// ErrRateLimited — превышен лимит сообщений в окне
	ErrRateLimited = errors.New("message rate limit exceeded")

	// ErrMessageTooLong — тело сообщения длиннее допустимого
	ErrMessageTooLong = errors.New("message body too long")

	// ErrEmptyMessage — пустое тело сообщения
	ErrEmptyMessage = errors.New("message body is empty")
)

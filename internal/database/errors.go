package database

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrNotAvailable       = errors.New("no free beds for the requested period")
	ErrCapacityExceeded   = errors.New("airship capacity exceeded")
	ErrVersionConflict    = errors.New("version conflict, record was modified")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInsufficientPoints = errors.New("insufficient point balance")
	ErrDuplicateReference = errors.New("ledger reference already rewarded")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrDuplicateRequest   = errors.New("open dm room already exists for this pair")
	ErrPastDate           = errors.New("date is in the past")
	ErrDateTooFar         = errors.New("date is too far in the future")
)

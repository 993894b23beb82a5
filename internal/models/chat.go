package models

import "time"

// ChatMessage is a message in a guest-house chat room. Kind is either
// "text" or "card" (a shared conversation card).
type ChatMessage struct {
	ID           string     `json:"id"`
	GuestHouseID int64      `json:"guest_house_id"`
	UserID       int64      `json:"user_id"`
	Nickname     string     `json:"nickname"`
	Kind         string     `json:"kind"`
	CardID       int64      `json:"card_id,omitempty"`
	Body         string     `json:"body"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"-"`
}

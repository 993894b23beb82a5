package models

import "time"

type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Nickname      string    `json:"nickname"`
	Bio           string    `json:"bio,omitempty"`
	HomeCity      string    `json:"home_city,omitempty"`
	IsManager     bool      `json:"is_manager"`
	IsBlacklisted bool      `json:"-"`
	LastActivity  time.Time `json:"last_activity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

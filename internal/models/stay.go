package models

import "time"

type GuestHouse struct {
	ID            int64  `yaml:"id" json:"id"`
	CityID        int64  `yaml:"city_id" json:"city_id"`
	Name          string `yaml:"name" json:"name"`
	ManagerChatID int64  `yaml:"manager_chat_id" json:"-"`
	SortOrder     int64  `yaml:"sort_order" json:"sort_order"`
	IsActive      bool   `yaml:"is_active" json:"is_active"`
}

type Room struct {
	ID           int64  `yaml:"id" json:"id"`
	GuestHouseID int64  `yaml:"guest_house_id" json:"guest_house_id"`
	Name         string `yaml:"name" json:"name"`
	Capacity     int64  `yaml:"capacity" json:"capacity"`
}

// RoomStay is a user's timed occupancy of a bed in a shared room.
// Status: reserved, checked_in, checked_out, cancelled.
type RoomStay struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	RoomID       int64     `json:"room_id"`
	GuestHouseID int64     `json:"guest_house_id"`
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int64     `json:"version"`
}

// RoomAvailability describes occupancy of a room on a single date.
type RoomAvailability struct {
	Date      time.Time `json:"date"`
	RoomID    int64     `json:"room_id"`
	Booked    int64     `json:"booked"`
	Available int64     `json:"available"`
}

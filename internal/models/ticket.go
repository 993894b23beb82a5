package models

import "time"

type City struct {
	ID        int64  `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Country   string `yaml:"country" json:"country"`
	SortOrder int64  `yaml:"sort_order" json:"sort_order"`
}

type Airship struct {
	ID       int64  `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Capacity int64  `yaml:"capacity" json:"capacity"`
}

// Ticket is a purchased flight between two cities on an airship.
// Status: purchased, boarding, completed, cancelled.
type Ticket struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	AirshipID   int64     `json:"airship_id"`
	FromCityID  int64     `json:"from_city_id"`
	ToCityID    int64     `json:"to_city_id"`
	Price       int64     `json:"price"`
	Status      string    `json:"status"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

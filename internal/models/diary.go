package models

import "time"

type DiaryEntry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	StayID    int64      `json:"stay_id,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Mood      string     `json:"mood,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Question struct {
	ID        int64  `yaml:"id" json:"id"`
	Prompt    string `yaml:"prompt" json:"prompt"`
	CityID    int64  `yaml:"city_id" json:"city_id,omitempty"`
	SortOrder int64  `yaml:"sort_order" json:"sort_order"`
	IsActive  bool   `yaml:"is_active" json:"is_active"`
}

type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	UserID     int64     `json:"user_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

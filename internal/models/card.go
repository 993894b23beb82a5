package models

// ConversationCard is a pre-seeded icebreaker question, optionally scoped
// to a city, shareable into a guest-house chat.
type ConversationCard struct {
	ID        int64  `yaml:"id" json:"id"`
	Prompt    string `yaml:"prompt" json:"prompt"`
	CityID    int64  `yaml:"city_id" json:"city_id,omitempty"`
	SortOrder int64  `yaml:"sort_order" json:"sort_order"`
	IsActive  bool   `yaml:"is_active" json:"is_active"`
}

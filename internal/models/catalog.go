package models

// Catalog is the static travel inventory seeded from YAML: where airships
// fly, where travelers sleep, and the icebreaker content.
type Catalog struct {
	Cities      []City             `yaml:"cities"`
	Airships    []Airship          `yaml:"airships"`
	GuestHouses []GuestHouse       `yaml:"guest_houses"`
	Rooms       []Room             `yaml:"rooms"`
	Cards       []ConversationCard `yaml:"conversation_cards"`
	Questions   []Question         `yaml:"questions"`
}

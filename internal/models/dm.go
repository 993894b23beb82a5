package models

import "time"

// DMRoom is a 1:1 conversation container between two co-located travelers.
//
// State machine: pending -> accepted | rejected; accepted -> active on the
// first message; active -> ended. Rejected and ended are terminal.
type DMRoom struct {
	ID           string     `json:"id"`
	RequesterID  int64      `json:"requester_id"`
	RecipientID  int64      `json:"recipient_id"`
	GuestHouseID int64      `json:"guest_house_id"`
	Status       string     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Version      int64      `json:"version"`
}

// Terminal reports whether no further transitions are possible.
func (r *DMRoom) Terminal() bool {
	return r.Status == DMRejected || r.Status == DMEnded
}

// HasParticipant reports whether userID is one of the two parties.
func (r *DMRoom) HasParticipant(userID int64) bool {
	return r.RequesterID == userID || r.RecipientID == userID
}

// Peer returns the other participant.
func (r *DMRoom) Peer(userID int64) int64 {
	if r.RequesterID == userID {
		return r.RecipientID
	}
	return r.RequesterID
}

type DirectMessage struct {
	ID        string     `json:"id"`
	RoomID    string     `json:"room_id"`
	SenderID  int64      `json:"sender_id"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"-"`
}

package state

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Session is one party's run through an investigation category.
type Session struct {
	ID         uuid.UUID `json:"id"`
	Category   string    `json:"category"`
	LocationID string    `json:"location_id"` // current node in the category tree
	LeaderID   string    `json:"leader_id"`
	Members    []string  `json:"members"`
	StartedAt  time.Time `json:"started_at"`
}

// NewSession starts a session at the root of a category.
func NewSession(category, rootID string, members []string) *Session {
	s := &Session{
		ID:         uuid.New(),
		Category:   category,
		LocationID: rootID,
		Members:    append([]string(nil), members...),
		StartedAt:  time.Now(),
	}
	if len(members) > 0 {
		s.LeaderID = members[0]
	}
	return s
}

// IsMember reports whether the player belongs to the party.
func (s *Session) IsMember(playerID string) bool {
	return slices.Contains(s.Members, playerID)
}

// PendingRoll is an action waiting for its d100. It is keyed by
// (SessionID, PlayerID) and consumed at most once.
type PendingRoll struct {
	ID           uuid.UUID `json:"id"`
	SessionID    uuid.UUID `json:"session_id"`
	PlayerID     string    `json:"player_id"`
	NodeID       string    `json:"node_id"`
	ItemID       string    `json:"item_id"`
	VariantOrder int       `json:"variant_order"`
	Stat         string    `json:"stat"`
	CreatedAt    time.Time `json:"created_at"`
}

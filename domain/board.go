package domain

import "time"

// Visibility controls who can read a board and the tasks on it.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
	VisibilityPublic  Visibility = "public"
)

// ValidVisibility reports whether v is one of the accepted visibility values.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPrivate, VisibilityTeam, VisibilityPublic:
		return true
	}
	return false
}

// Column is an ordered bucket within a board. WIPLimit is advisory only and
// never gates creates or moves.
type Column struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	WIPLimit int    `json:"wipLimit,omitempty"`
	Type     string `json:"columnType,omitempty"`
}

// Member is a board membership entry. Membership is an upsert-only list keyed
// by user id.
type Member struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// Board is a named collection of columns with visibility and membership
// controlling access to its tasks. Column positions are always a dense
// 0..n-1 sequence.
type Board struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Visibility  Visibility `json:"visibility"`
	Columns     []Column   `json:"columns"`
	Members     []Member   `json:"members"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Column returns the column with the given id, if present.
func (b *Board) Column(id string) (*Column, bool) {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i], true
		}
	}
	return nil, false
}

// MemberRole returns the membership role of userID, if they are a member.
func (b *Board) MemberRole(userID string) (Role, bool) {
	for _, m := range b.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// Clone returns a deep copy safe to hand to callers.
func (b *Board) Clone() *Board {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Columns = append([]Column(nil), b.Columns...)
	cp.Members = append([]Member(nil), b.Members...)
	return &cp
}

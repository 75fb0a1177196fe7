package domain

// ActorKind distinguishes the two account populations that may act on a board.
type ActorKind string

const (
	ActorKindAdmin   ActorKind = "admin"
	ActorKindStartup ActorKind = "startup"
)

// Role is the permission level an actor carries, either globally or as a board member.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Actor is the authenticated identity performing an operation, as resolved
// by the upstream auth provider.
type Actor struct {
	ID   string    `json:"id"`
	Kind ActorKind `json:"kind"`
	Role Role      `json:"role"`
}

// Ref returns the actor's identity tag for embedding in records.
func (a Actor) Ref() ActorRef {
	return ActorRef{ID: a.ID, Kind: a.Kind}
}

// IsSuperAdmin reports whether the actor bypasses membership checks on writes.
func (a Actor) IsSuperAdmin() bool {
	return a.Role == RoleSuperAdmin
}

// ActorRef tags a stored record with the identity that produced it.
type ActorRef struct {
	ID   string    `json:"id"`
	Kind ActorKind `json:"kind"`
}

// ValidRole reports whether r is a role accepted for board membership.
func ValidRole(r Role) bool {
	switch r {
	case RoleViewer, RoleMember, RoleAdmin:
		return true
	}
	return false
}

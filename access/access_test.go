package access

import (
	"testing"

	"taskboard-api/domain"
)

func board() *domain.Board {
	return &domain.Board{
		ID:         "b1",
		CreatedBy:  "owner",
		Visibility: domain.VisibilityPrivate,
		Members: []domain.Member{
			{UserID: "editor", Role: domain.RoleMember},
			{UserID: "manager", Role: domain.RoleAdmin},
			{UserID: "reader", Role: domain.RoleViewer},
		},
	}
}

func TestCanRead(t *testing.T) {
	b := board()

	cases := []struct {
		name    string
		actorID string
		want    bool
	}{
		{"owner", "owner", true},
		{"member", "editor", true},
		{"viewer member", "reader", true},
		{"stranger", "stranger", false},
		{"empty actor", "", false},
	}
	for _, tc := range cases {
		if got := CanRead(b, tc.actorID); got != tc.want {
			t.Fatalf("%s: CanRead = %v, want %v", tc.name, got, tc.want)
		}
	}

	if CanRead(nil, "owner") {
		t.Fatal("nil board must deny")
	}

	b.Visibility = domain.VisibilityPublic
	if !CanRead(b, "stranger") {
		t.Fatal("public boards are readable by anyone")
	}
	if !CanRead(b, "") {
		t.Fatal("public boards are readable without identity")
	}
}

func TestCanWrite(t *testing.T) {
	b := board()
	task := &domain.Task{ID: "t1", BoardID: "b1", AssigneeID: "assignee"}

	cases := []struct {
		name  string
		actor domain.Actor
		want  bool
	}{
		{"owner", domain.Actor{ID: "owner", Role: domain.RoleMember}, true},
		{"member", domain.Actor{ID: "editor", Role: domain.RoleMember}, true},
		{"admin member", domain.Actor{ID: "manager", Role: domain.RoleMember}, true},
		{"viewer member", domain.Actor{ID: "reader", Role: domain.RoleMember}, false},
		{"assignee", domain.Actor{ID: "assignee", Role: domain.RoleMember}, true},
		{"stranger", domain.Actor{ID: "stranger", Role: domain.RoleMember}, false},
		{"super admin", domain.Actor{ID: "root", Role: domain.RoleSuperAdmin}, true},
	}
	for _, tc := range cases {
		if got := CanWrite(task, b, tc.actor); got != tc.want {
			t.Fatalf("%s: CanWrite = %v, want %v", tc.name, got, tc.want)
		}
	}

	if CanWrite(nil, b, domain.Actor{ID: "owner"}) {
		t.Fatal("nil task must deny")
	}
	if CanWrite(task, nil, domain.Actor{ID: "owner"}) {
		t.Fatal("nil board must deny")
	}
}

func TestCanManageBoard(t *testing.T) {
	b := board()

	if !CanManageBoard(b, domain.Actor{ID: "owner"}) {
		t.Fatal("owner manages the board")
	}
	if !CanManageBoard(b, domain.Actor{ID: "manager"}) {
		t.Fatal("admin member manages the board")
	}
	if CanManageBoard(b, domain.Actor{ID: "editor"}) {
		t.Fatal("plain member must not manage the board")
	}
	if CanManageBoard(b, domain.Actor{ID: "reader"}) {
		t.Fatal("viewer must not manage the board")
	}
	if !CanManageBoard(b, domain.Actor{ID: "root", Role: domain.RoleSuperAdmin}) {
		t.Fatal("super admin manages any board")
	}
	if CanManageBoard(nil, domain.Actor{ID: "owner"}) {
		t.Fatal("nil board must deny")
	}
}

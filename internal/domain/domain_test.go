package domain

import "testing"

func TestEffectiveRoles_DefaultsOnlyWhenAbsent(t *testing.T) {
	absent := &Subject{ID: 1}
	if got := absent.EffectiveRoles(); len(got) != 1 || got[0] != RoleFreelancer {
		t.Fatalf("expected default role, got %v", got)
	}

	empty := &Subject{ID: 2, Roles: []Role{}}
	if got := empty.EffectiveRoles(); len(got) != 0 {
		t.Fatalf("expected empty role set to stay empty, got %v", got)
	}
}

func TestIdentity_HasAnyRole(t *testing.T) {
	id := Identity{SubjectID: 1, Roles: []Role{RoleAdmin, RoleFreelancer}}
	if !id.HasAnyRole(RoleAdmin) {
		t.Fatalf("expected admin match")
	}
	if id.HasAnyRole(RoleLegalAnalyst) {
		t.Fatalf("unexpected legal analyst match")
	}
	if id.HasAnyRole() {
		t.Fatalf("empty requirement never matches")
	}
}

func TestJoinRoles(t *testing.T) {
	if got := JoinRoles([]Role{RoleAdmin, RoleLegalAnalyst}); got != "ADMIN, LEGAL_ANALYST" {
		t.Fatalf("unexpected join: %q", got)
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoleClosedSet(t *testing.T) {
	for _, r := range []Role{
		RoleAdministrator, RoleBranchManager, RoleBusinessOwner,
		RoleInspector, RoleCollector, RoleStallholder, RoleApplicant,
	} {
		got, ok := ParseRole(r.String())
		assert.True(t, ok, r.String())
		assert.Equal(t, r, got)
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "superuser", "Administrator", "ADMIN", "branch manager"} {
		_, ok := ParseRole(s)
		assert.False(t, ok, s)
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleInspector.Valid())
	assert.False(t, Role("janitor").Valid())
	assert.False(t, Role("").Valid())
}

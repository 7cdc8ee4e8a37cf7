package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicies(t *testing.T) {
	admin := RoleSet{RoleAdministrator}
	teacher := RoleSet{RoleTeacher}
	student := RoleSet{RoleStudent}
	none := RoleSet{}
	unknown := RoleSet{"conserje"}

	tests := []struct {
		name   string
		policy Policy
		allow  []RoleSet
		deny   []RoleSet
	}{
		{name: "IsAuthenticated", policy: IsAuthenticated, allow: []RoleSet{admin, teacher, student, none}},
		{name: "IsAdministrator", policy: IsAdministrator, allow: []RoleSet{admin, {RoleStudent, RoleAdministrator}}, deny: []RoleSet{teacher, student, none}},
		{name: "IsAdministratorOrTeacher", policy: IsAdministratorOrTeacher, allow: []RoleSet{admin, teacher}, deny: []RoleSet{student, none, unknown}},
		{name: "IsAnyRole", policy: IsAnyRole, allow: []RoleSet{admin, teacher, student}, deny: []RoleSet{none, unknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, groups := range tt.allow {
				assert.True(t, tt.policy(groups), "%v should be allowed", groups)
			}
			for _, groups := range tt.deny {
				assert.False(t, tt.policy(groups), "%v should be denied", groups)
			}
		})
	}
}

func TestRoleSet_Canonical(t *testing.T) {
	role, ok := RoleSet{RoleTeacher, RoleAdministrator}.Canonical()
	assert.True(t, ok)
	assert.Equal(t, RoleTeacher, role)

	_, ok = RoleSet(nil).Canonical()
	assert.False(t, ok)

	assert.True(t, RoleStudent.IsValid())
	assert.False(t, Role("conserje").IsValid())
}

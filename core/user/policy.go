package user

// Policy decides whether a principal holding the given groups may perform an operation.
type Policy func(groups RoleSet) bool

func IsAuthenticated(RoleSet) bool { return true }

func IsAdministrator(groups RoleSet) bool {
	return groups.Has(RoleAdministrator)
}

func IsAdministratorOrTeacher(groups RoleSet) bool {
	return groups.HasAny(RoleAdministrator, RoleTeacher)
}

func IsAnyRole(groups RoleSet) bool {
	return groups.HasAny(AllRoles...)
}

package user

import (
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/azizzt/controlescolar/core"
)

// Role is a group name. The set of roles is closed.
type Role string

const (
	RoleAdministrator Role = "administrador"
	RoleTeacher       Role = "maestro"
	RoleStudent       Role = "alumno"
)

var AllRoles = []Role{RoleAdministrator, RoleTeacher, RoleStudent}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// RoleSet is the ordered list of groups a User belongs to.
type RoleSet []Role

func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

func (rs RoleSet) HasAny(roles ...Role) bool {
	for _, role := range roles {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// Canonical returns the role of the first group, if any.
func (rs RoleSet) Canonical() (Role, bool) {
	if len(rs) == 0 {
		return "", false
	}
	return rs[0], true
}

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsActive     bool      `json:"is_active"`
	Groups       RoleSet   `json:"groups"`
	PasswordHash []byte    `json:"-"`
	DateJoined   time.Time `json:"date_joined"` // UTC
	LastLogin    time.Time `json:"last_login"`  // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

var (
	unknownUserOnce sync.Once
	unknownUserHash []byte
)

// checkUnknownPassword spends the bcrypt work of CheckPassword when no account matches.
var checkUnknownPassword = func(pwd string) {
	unknownUserOnce.Do(func() {
		unknownUserHash, _ = bcrypt.GenerateFromPassword([]byte("no account matches"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(unknownUserHash, []byte(pwd))
}

func (u User) FullName() string {
	return core.CleanString(u.FirstName + " " + u.LastName)
}

// Basic is the principal as embedded in profile views.
type Basic struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (u User) Basic() Basic {
	return Basic{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

// Credentials contains the identity part of every profile creation request.
type Credentials struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,notblank,max=150"`
	LastName  string `json:"last_name" validate:"required,notblank,max=150"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
	c.FirstName = core.CleanString(c.FirstName)
	c.LastName = core.CleanString(c.LastName)
}

// UpdateNames defines the principal fields that profile updates may modify.
type UpdateNames struct {
	FirstName *string `json:"first_name" validate:"omitempty,notblank,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,notblank,max=150"`
}

func (un *UpdateNames) Clean() {
	if un.FirstName != nil {
		v := core.CleanString(*un.FirstName)
		un.FirstName = &v
	}
	if un.LastName != nil {
		v := core.CleanString(*un.LastName)
		un.LastName = &v
	}
}

func (un UpdateNames) Apply(usr *User) {
	if un.FirstName != nil {
		usr.FirstName = *un.FirstName
	}
	if un.LastName != nil {
		usr.LastName = *un.LastName
	}
}

type GetFilter struct {
	ID    int
	Email string
}

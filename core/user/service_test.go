package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/azizzt/controlescolar/core"
)

type fakeRepository struct {
	Repository
	users map[string]User
}

func (repo fakeRepository) GetUser(_ context.Context, filter GetFilter, _ ...core.DBExecutor) (User, error) {
	if usr, ok := repo.users[filter.Email]; ok {
		return usr, nil
	}
	return User{}, ErrNotFound
}

func TestService_Authenticate_unknownEmail(t *testing.T) {
	usr := User{ID: 1, Email: "ana@escuela.mx", IsActive: true}
	require.NoError(t, usr.SetPassword("Lumbre#Quieta42"))
	svc := NewService(nil, fakeRepository{users: map[string]User{usr.Email: usr}}, nil)

	var checked []string
	orig := checkUnknownPassword
	checkUnknownPassword = func(pwd string) { checked = append(checked, pwd) }
	t.Cleanup(func() { checkUnknownPassword = orig })

	_, err := svc.Authenticate(context.Background(), "nadie@escuela.mx", "Lumbre#Quieta42")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, []string{"Lumbre#Quieta42"}, checked)

	_, err = svc.Authenticate(context.Background(), usr.Email, "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, checked, 1, "known accounts check their own hash")
}

func TestCheckUnknownPassword(t *testing.T) {
	checkUnknownPassword("Lumbre#Quieta42")
	require.NotEmpty(t, unknownUserHash)
	cost, err := bcrypt.Cost(unknownUserHash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

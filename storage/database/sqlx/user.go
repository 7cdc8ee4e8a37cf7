package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
	"github.com/azizzt/controlescolar/storage/database"
)

var userColumns = []string{
	"id", "username", "email", "first_name", "last_name", "password_hash", "is_active", "date_joined", "last_login",
}

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash []byte    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	DateJoined   time.Time `db:"date_joined"`
	LastLogin    null.Time `db:"last_login"`
}

func (row userRow) user(groups []string) user.User {
	roles := make(user.RoleSet, 0, len(groups))
	for _, g := range groups {
		roles = append(roles, user.Role(g))
	}
	return user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		IsActive:     row.IsActive,
		Groups:       roles,
		PasswordHash: row.PasswordHash,
		DateJoined:   row.DateJoined.UTC(),
		LastLogin:    row.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	q := builder.Select("COUNT(*)").From("users").Where(sq.Or{sq.Eq{"email": email}, sq.Eq{"username": email}})
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	var count int
	if err := get(ctx, repo.getExec(exec), &count, q); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := builder.Insert("users").
		Columns("username", "email", "first_name", "last_name", "password_hash", "is_active", "date_joined", "last_login").
		Values(
			usr.Username, usr.Email, usr.FirstName, usr.LastName, usr.PasswordHash, usr.IsActive,
			usr.DateJoined.UTC(), null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		)
	id, err := insertReturningID(ctx, repo.getExec(exec), q)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) AddToGroups(ctx context.Context, userID int, roles []user.Role, exec ...core.DBExecutor) error {
	e := repo.getExec(exec)
	for _, role := range roles {
		var groupID int
		if err := get(ctx, e, &groupID, builder.Select("id").From("auth_groups").Where(sq.Eq{"name": string(role)})); err != nil {
			return trapNoRowsErr(err, errors.Errorf("group %q not found", role), "selecting group")
		}
		q := builder.Insert("user_groups").Columns("user_id", "group_id").Values(userID, groupID)
		if _, err := execute(ctx, e, q); err != nil {
			return errors.Wrapf(err, "adding user to group %q", role)
		}
	}
	return nil
}

func (repo userRepository) groups(ctx context.Context, userID int, exec core.DBExecutor) ([]string, error) {
	q := builder.Select("g.name").
		From("user_groups ug").
		Join("auth_groups g ON g.id = ug.group_id").
		Where(sq.Eq{"ug.user_id": userID}).
		OrderBy("ug.id ASC")
	var names []string
	if err := selectAll(ctx, exec, &names, q); err != nil {
		return nil, errors.Wrap(err, "selecting user groups")
	}
	return names, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	q := builder.Select(userColumns...).From("users")
	switch {
	case filter.ID != 0:
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Email != "":
		q = q.Where(sq.Or{sq.Eq{"email": filter.Email}, sq.Eq{"username": filter.Email}})
	default:
		return user.User{}, user.ErrNotFound
	}

	e := repo.getExec(exec)
	var row userRow
	if err := get(ctx, e, &row, q.Limit(1)); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	groups, err := repo.groups(ctx, row.ID, e)
	if err != nil {
		return user.User{}, err
	}
	return row.user(groups), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := builder.Update("users").
		SetMap(map[string]interface{}{
			"username":      usr.Username,
			"email":         usr.Email,
			"first_name":    usr.FirstName,
			"last_name":     usr.LastName,
			"password_hash": usr.PasswordHash,
			"is_active":     usr.IsActive,
			"last_login":    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		}).
		Where(sq.Eq{"id": usr.ID})
	res, err := execute(ctx, repo.getExec(exec), q)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := execute(ctx, repo.getExec(exec), builder.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}

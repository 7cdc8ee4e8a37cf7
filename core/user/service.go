package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		AddToGroups(ctx context.Context, userID int, roles []Role, exec ...core.DBExecutor) error
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// UpdateUser saves names, email, activity, password hash & last login.
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// DeleteUser removes the principal; profiles & group memberships go with it.
		DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, validate: validate}
}

// CheckEmailUniqueness reports a taken email as a field validation error.
func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, exec ...core.DBExecutor) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, nil, exec...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewFieldValidationError("email", ErrEmailExists)
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// CreateWithRole creates an active principal (username = email) belonging to `role`.
// Meant to run inside the caller's transaction.
func (svc *Service) CreateWithRole(ctx context.Context, creds Credentials, role Role, exec core.DBExecutor) (User, error) {
	if err := svc.CheckEmailUniqueness(ctx, creds.Email, exec); err != nil {
		return User{}, err
	}

	usr := User{
		Username:   creds.Email,
		Email:      creds.Email,
		FirstName:  creds.FirstName,
		LastName:   creds.LastName,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	if err := usr.SetPassword(creds.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr, exec)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, core.NewFieldValidationError("email", ErrEmailExists)
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	if err = svc.repo.AddToGroups(ctx, usr.ID, []Role{role}, exec); err != nil {
		return User{}, errors.Wrap(err, "adding user to group")
	}
	usr.Groups = RoleSet{role}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Authenticate checks the credentials of an active user and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			checkUnknownPassword(pwd)
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// ResetPassword applies the password policy then stores the new password of the user owning `email`.
func (svc *Service) ResetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	data := PasswordReset{Password: pwd, user: usr}
	if err = svc.validate.Struct(data); err != nil {
		return err
	}

	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

// Delete removes a principal by ID.
func (svc *Service) Delete(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return svc.repo.DeleteUser(ctx, id, exec...)
}

// UpdateNames applies `names` to the principal owning a profile. Meant to run inside the caller's transaction.
func (svc *Service) UpdateNames(ctx context.Context, id int, names UpdateNames, exec core.DBExecutor) error {
	if names.FirstName == nil && names.LastName == nil {
		return nil
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id}, exec)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	names.Apply(&usr)
	if _, err = svc.repo.UpdateUser(ctx, usr, exec); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

var (
	// errors
	ErrAdminNotFound   = core.NewNotFoundError("administrator not found")
	ErrTeacherNotFound = core.NewNotFoundError("teacher not found")
	ErrStudentNotFound = core.NewNotFoundError("student not found")
	ErrProfileNotFound = core.NewNotFoundError("profile not found")
	ErrSelfDelete      = errors.New("you cannot delete your own profile")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, adm Admin, exec ...core.DBExecutor) (Admin, error)
		GetAdmin(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Admin, error)
		UpdateAdmin(ctx context.Context, adm Admin, exec ...core.DBExecutor) (Admin, error)
		// QueryAdmins returns a page of admins whose user is active along with the total count.
		QueryAdmins(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]Admin, int, error)

		CreateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		GetTeacher(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Teacher, error)
		UpdateTeacher(ctx context.Context, tch Teacher, exec ...core.DBExecutor) (Teacher, error)
		QueryTeachers(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]Teacher, int, error)
		TeacherExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)

		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]Student, int, error)

		CountActive(ctx context.Context, exec ...core.DBExecutor) (Totals, error)
	}

	Service struct {
		db       core.DB
		usrSvc   *user.Service
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, usrSvc *user.Service, repo Repository, validate *validator.Validate) *Service {
	return &Service{db: db, usrSvc: usrSvc, repo: repo, validate: validate}
}

// createWithProfile validates `data` then creates the principal and its profile in a single transaction.
func (svc *Service) createWithProfile(
	ctx context.Context,
	data interface{},
	creds user.Credentials,
	role user.Role,
	insert func(usr user.User, tx core.DBExecutor) error,
) error {
	if err := svc.validate.Struct(data); err != nil {
		return err
	}
	return core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		usr, err := svc.usrSvc.CreateWithRole(ctx, creds, role, tx)
		if err != nil {
			return err
		}
		return insert(usr, tx)
	})
}

// Admins

func (svc *Service) CreateAdmin(ctx context.Context, na NewAdmin) (Admin, error) {
	na.Clean()
	var adm Admin
	err := svc.createWithProfile(ctx, na, na.Credentials, user.RoleAdministrator, func(usr user.User, tx core.DBExecutor) error {
		now := time.Now().UTC()
		adm = na.profile()
		adm.User = usr.Basic()
		adm.CreatedAt, adm.UpdatedAt = now, now

		var err error
		adm, err = svc.repo.CreateAdmin(ctx, adm, tx)
		return errors.Wrap(err, "inserting administrator")
	})
	if err != nil {
		return Admin{}, err
	}
	return adm, nil
}

func (svc *Service) GetAdmin(ctx context.Context, id int) (Admin, error) {
	return svc.repo.GetAdmin(ctx, GetFilter{ID: id})
}

func (svc *Service) UpdateAdmin(ctx context.Context, ua UpdateAdmin) (Admin, error) {
	ua.Clean()
	if err := svc.validate.Struct(ua); err != nil {
		return Admin{}, err
	}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		adm, err := svc.repo.GetAdmin(ctx, GetFilter{ID: ua.ID}, tx)
		if err != nil {
			return err
		}
		ua.apply(&adm)
		adm.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateAdmin(ctx, adm, tx); err != nil {
			return errors.Wrap(err, "updating administrator")
		}
		return svc.usrSvc.UpdateNames(ctx, adm.User.ID, ua.UpdateNames, tx)
	})
	if err != nil {
		return Admin{}, err
	}
	return svc.GetAdmin(ctx, ua.ID)
}

// DeleteAdmin deletes the administrator's user (the profile goes with it). `actor` may not delete themselves.
func (svc *Service) DeleteAdmin(ctx context.Context, id int, actor user.User) error {
	adm, err := svc.GetAdmin(ctx, id)
	if err != nil {
		return err
	}
	if adm.User.ID == actor.ID {
		return core.NewValidationError(ErrSelfDelete)
	}
	return errors.Wrap(svc.usrSvc.Delete(ctx, adm.User.ID), "deleting administrator")
}

func (svc *Service) QueryAdmins(ctx context.Context, q core.ListQuery) ([]Admin, int, error) {
	return svc.repo.QueryAdmins(ctx, q)
}

// Teachers

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	nt.Clean()
	var tch Teacher
	err := svc.createWithProfile(ctx, nt, nt.Credentials, user.RoleTeacher, func(usr user.User, tx core.DBExecutor) error {
		now := time.Now().UTC()
		tch = nt.profile()
		tch.User = usr.Basic()
		tch.CreatedAt, tch.UpdatedAt = now, now

		var err error
		tch, err = svc.repo.CreateTeacher(ctx, tch, tx)
		return errors.Wrap(err, "inserting teacher")
	})
	if err != nil {
		return Teacher{}, err
	}
	return tch, nil
}

func (svc *Service) GetTeacher(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, GetFilter{ID: id})
}

func (svc *Service) UpdateTeacher(ctx context.Context, ut UpdateTeacher) (Teacher, error) {
	ut.Clean()
	if err := svc.validate.Struct(ut); err != nil {
		return Teacher{}, err
	}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		tch, err := svc.repo.GetTeacher(ctx, GetFilter{ID: ut.ID}, tx)
		if err != nil {
			return err
		}
		ut.apply(&tch)
		tch.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateTeacher(ctx, tch, tx); err != nil {
			return errors.Wrap(err, "updating teacher")
		}
		return svc.usrSvc.UpdateNames(ctx, tch.User.ID, ut.UpdateNames, tx)
	})
	if err != nil {
		return Teacher{}, err
	}
	return svc.GetTeacher(ctx, ut.ID)
}

func (svc *Service) DeleteTeacher(ctx context.Context, id int) error {
	tch, err := svc.GetTeacher(ctx, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.usrSvc.Delete(ctx, tch.User.ID), "deleting teacher")
}

func (svc *Service) QueryTeachers(ctx context.Context, q core.ListQuery) ([]Teacher, int, error) {
	return svc.repo.QueryTeachers(ctx, q)
}

// TeacherExists resolves course teacher references.
func (svc *Service) TeacherExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	return svc.repo.TeacherExists(ctx, id, exec...)
}

// Students

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	var std Student
	err := svc.createWithProfile(ctx, ns, ns.Credentials, user.RoleStudent, func(usr user.User, tx core.DBExecutor) error {
		now := time.Now().UTC()
		std = ns.profile()
		std.User = usr.Basic()
		std.CreatedAt, std.UpdatedAt = now, now

		var err error
		std, err = svc.repo.CreateStudent(ctx, std, tx)
		return errors.Wrap(err, "inserting student")
	})
	if err != nil {
		return Student{}, err
	}
	return std, nil
}

func (svc *Service) GetStudent(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: id})
}

func (svc *Service) UpdateStudent(ctx context.Context, us UpdateStudent) (Student, error) {
	us.Clean()
	if err := svc.validate.Struct(us); err != nil {
		return Student{}, err
	}
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		std, err := svc.repo.GetStudent(ctx, GetFilter{ID: us.ID}, tx)
		if err != nil {
			return err
		}
		us.apply(&std)
		std.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateStudent(ctx, std, tx); err != nil {
			return errors.Wrap(err, "updating student")
		}
		return svc.usrSvc.UpdateNames(ctx, std.User.ID, us.UpdateNames, tx)
	})
	if err != nil {
		return Student{}, err
	}
	return svc.GetStudent(ctx, us.ID)
}

func (svc *Service) DeleteStudent(ctx context.Context, id int) error {
	std, err := svc.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	return errors.Wrap(svc.usrSvc.Delete(ctx, std.User.ID), "deleting student")
}

func (svc *Service) QueryStudents(ctx context.Context, q core.ListQuery) ([]Student, int, error) {
	return svc.repo.QueryStudents(ctx, q)
}

// Own profile & totals

// Own is the profile of the requesting principal, tagged with its role.
type Own struct {
	Role    user.Role
	Profile interface{} // Admin | Teacher | Student
}

func (o Own) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(o.Profile)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]interface{})
	if err = json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	fields["rol"] = o.Role
	return json.Marshal(fields)
}

// GetOwn loads the profile matching the canonical (first group) role of `usr`.
func (svc *Service) GetOwn(ctx context.Context, usr user.User) (Own, error) {
	role, ok := usr.Groups.Canonical()
	if !ok {
		return Own{}, ErrProfileNotFound
	}

	var (
		prof interface{}
		err  error
	)
	filter := GetFilter{UserID: usr.ID}
	switch role {
	case user.RoleAdministrator:
		prof, err = svc.repo.GetAdmin(ctx, filter)
	case user.RoleTeacher:
		prof, err = svc.repo.GetTeacher(ctx, filter)
	case user.RoleStudent:
		prof, err = svc.repo.GetStudent(ctx, filter)
	default:
		return Own{}, ErrProfileNotFound
	}
	if err != nil {
		if core.IsNotFound(err) {
			return Own{}, ErrProfileNotFound
		}
		return Own{}, errors.Wrap(err, "finding profile")
	}
	return Own{Role: role, Profile: prof}, nil
}

func (svc *Service) Totals(ctx context.Context) (Totals, error) {
	return svc.repo.CountActive(ctx)
}

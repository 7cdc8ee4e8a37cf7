package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("course not found")
	ErrNRCExists       = errors.New("a course with this NRC already exists")
	ErrTeacherNotFound = errors.New("the selected teacher does not exist")
)

type (
	Repository interface {
		// CheckNRCUniqueness returns ErrNRCExists when another course (not excludedID) holds `nrc`.
		CheckNRCUniqueness(ctx context.Context, nrc string, excludedID int, exec ...core.DBExecutor) error
		// CreateCourse & UpdateCourse map storage unique violations on `nrc` to ErrNRCExists.
		CreateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, exec ...core.DBExecutor) (Course, error)
		DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error
		QueryCourses(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]Course, int, error)
	}

	// TeacherResolver checks that a teacher profile exists.
	TeacherResolver interface {
		TeacherExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		teachers TeacherResolver
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, teachers TeacherResolver, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, teachers: teachers, validate: validate}
}

func (svc *Service) checkNRC(ctx context.Context, nrc string, excludedID int, exec core.DBExecutor) error {
	if err := svc.repo.CheckNRCUniqueness(ctx, nrc, excludedID, exec); err != nil {
		if errors.Is(err, ErrNRCExists) {
			return core.NewFieldValidationError("nrc", ErrNRCExists)
		}
		return errors.Wrap(err, "checking NRC uniqueness")
	}
	return nil
}

func (svc *Service) checkTeacher(ctx context.Context, ref core.NullableID, exec core.DBExecutor) error {
	if !ref.Valid {
		return nil
	}
	exists, err := svc.teachers.TeacherExists(ctx, ref.ID(), exec)
	if err != nil {
		return errors.Wrap(err, "resolving teacher")
	}
	if !exists {
		return core.NewFieldValidationError("profesor", ErrTeacherNotFound)
	}
	return nil
}

func trapNRCErr(err error, msg string) error {
	if errors.Is(err, ErrNRCExists) {
		return core.NewFieldValidationError("nrc", ErrNRCExists)
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	nc.Clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}

	var crs Course
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkNRC(ctx, string(nc.NRC), 0, tx); err != nil {
			return err
		}
		if err := svc.checkTeacher(ctx, nc.TeacherID, tx); err != nil {
			return err
		}

		now := time.Now().UTC()
		crs = nc.course()
		crs.CreatedAt, crs.UpdatedAt = now, now

		var err error
		if crs, err = svc.repo.CreateCourse(ctx, crs, tx); err != nil {
			return trapNRCErr(err, "inserting course")
		}
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return crs, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Update(ctx context.Context, uc UpdateCourse) (Course, error) {
	uc.Clean()
	if err := svc.validate.Struct(uc); err != nil {
		return Course{}, err
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		crs, err := svc.repo.GetCourse(ctx, uc.ID, tx)
		if err != nil {
			return err
		}
		if uc.NRC != nil && string(*uc.NRC) != crs.NRC {
			if err = svc.checkNRC(ctx, string(*uc.NRC), crs.ID, tx); err != nil {
				return err
			}
		}
		if uc.TeacherID.Set {
			if err = svc.checkTeacher(ctx, uc.TeacherID, tx); err != nil {
				return err
			}
		}

		uc.apply(&crs)
		crs.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateCourse(ctx, crs, tx); err != nil {
			return trapNRCErr(err, "updating course")
		}
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return svc.Get(ctx, uc.ID)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, q core.ListQuery) ([]Course, int, error) {
	return svc.repo.QueryCourses(ctx, q)
}

package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/course"
	"github.com/azizzt/controlescolar/storage/database"
)

var (
	courseFrom    = "courses c LEFT JOIN teachers t ON t.id = c.teacher_id LEFT JOIN users tu ON tu.id = t.user_id"
	courseColumns = []string{
		"c.id", "c.nrc", "c.name", "c.section", "c.days", "c.start_time", "c.end_time", "c.room", "c.program",
		"c.credits", "c.teacher_id", "c.created_at", "c.updated_at",
		"tu.first_name AS teacher_first_name", "tu.last_name AS teacher_last_name",
	}
	courseSpec = listSpec{
		from:    courseFrom,
		columns: courseColumns,
		idCol:   "c.id",
		fields: map[string]string{
			"id":                 "c.id",
			"nrc":                "c.nrc",
			"nombre":             "c.name",
			"seccion":            "c.section",
			"salon":              "c.room",
			"programa_educativo": "c.program",
			"creditos":           "c.credits",
		},
	}
)

type courseRow struct {
	ID               int         `db:"id"`
	NRC              string      `db:"nrc"`
	Name             string      `db:"name"`
	Section          string      `db:"section"`
	Days             jsonList    `db:"days"`
	StartTime        string      `db:"start_time"`
	EndTime          string      `db:"end_time"`
	Room             string      `db:"room"`
	Program          string      `db:"program"`
	Credits          int         `db:"credits"`
	TeacherID        null.Int    `db:"teacher_id"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
	TeacherFirstName null.String `db:"teacher_first_name"`
	TeacherLastName  null.String `db:"teacher_last_name"`
}

func (row courseRow) course() course.Course {
	crs := course.Course{
		ID:        row.ID,
		NRC:       row.NRC,
		Name:      row.Name,
		Section:   row.Section,
		Days:      core.StringList(row.Days),
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Room:      row.Room,
		Program:   row.Program,
		Credits:   row.Credits,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.TeacherID.Valid {
		crs.TeacherID = core.NullableIDFrom(row.TeacherID.Int)
		crs.TeacherName = core.CleanString(row.TeacherFirstName.String + " " + row.TeacherLastName.String)
	}
	return crs
}

func teacherRef(ref core.NullableID) null.Int {
	return null.NewInt(ref.ID(), ref.Valid)
}

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

func trapNRCViolation(err error, msg string) error {
	if database.IsUniqueViolation(err) {
		return course.ErrNRCExists
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CheckNRCUniqueness(ctx context.Context, nrc string, excludedID int, exec ...core.DBExecutor) error {
	q := builder.Select("COUNT(*)").From("courses").Where(sq.Eq{"nrc": nrc})
	if excludedID != 0 {
		q = q.Where(sq.NotEq{"id": excludedID})
	}
	var count int
	if err := get(ctx, repo.getExec(exec), &count, q); err != nil {
		return errors.Wrap(err, "checking NRC uniqueness")
	}
	if count > 0 {
		return course.ErrNRCExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := builder.Insert("courses").
		Columns(
			"nrc", "name", "section", "days", "start_time", "end_time", "room", "program", "credits", "teacher_id",
			"created_at", "updated_at",
		).
		Values(
			crs.NRC, crs.Name, crs.Section, jsonList(crs.Days), crs.StartTime, crs.EndTime, crs.Room, crs.Program,
			crs.Credits, teacherRef(crs.TeacherID), crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
		)
	id, err := insertReturningID(ctx, repo.getExec(exec), q)
	if err != nil {
		return course.Course{}, trapNRCViolation(err, "inserting course")
	}
	crs.ID = id
	if crs.Days == nil {
		crs.Days = core.StringList{}
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	var row courseRow
	q := builder.Select(courseColumns...).From(courseFrom).Where(sq.Eq{"c.id": id}).Limit(1)
	if err := get(ctx, repo.getExec(exec), &row, q); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "selecting course")
	}
	return row.course(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q := builder.Update("courses").
		SetMap(map[string]interface{}{
			"nrc":        crs.NRC,
			"name":       crs.Name,
			"section":    crs.Section,
			"days":       jsonList(crs.Days),
			"start_time": crs.StartTime,
			"end_time":   crs.EndTime,
			"room":       crs.Room,
			"program":    crs.Program,
			"credits":    crs.Credits,
			"teacher_id": teacherRef(crs.TeacherID),
			"updated_at": crs.UpdatedAt.UTC(),
		}).
		Where(sq.Eq{"id": crs.ID})
	res, err := execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return course.Course{}, trapNRCViolation(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound); err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := execute(ctx, repo.getExec(exec), builder.Delete("courses").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound)
}

func (repo courseRepository) QueryCourses(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]course.Course, int, error) {
	var rows []courseRow
	count, err := queryList(ctx, repo.getExec(exec), courseSpec, q, &rows)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, count, nil
}

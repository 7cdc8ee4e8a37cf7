package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
)

// columns of the owning user, shared by every profile query
var profileUserColumns = []string{
	"u.email AS user_email",
	"u.first_name AS user_first_name",
	"u.last_name AS user_last_name",
}

// search & ordering fields shared by every profile listing
var profileUserFields = map[string]string{
	"user__first_name": "u.first_name",
	"user__last_name":  "u.last_name",
	"user__email":      "u.email",
	"first_name":       "u.first_name",
	"last_name":        "u.last_name",
	"email":            "u.email",
}

type profileUserRow struct {
	UserID        int    `db:"user_id"`
	UserEmail     string `db:"user_email"`
	UserFirstName string `db:"user_first_name"`
	UserLastName  string `db:"user_last_name"`
}

func (row profileUserRow) user() user.Basic {
	return user.Basic{ID: row.UserID, FirstName: row.UserFirstName, LastName: row.UserLastName, Email: row.UserEmail}
}

func profileColumns(cols ...string) []string {
	all := make([]string, 0, len(cols)+len(profileUserColumns))
	for _, col := range cols {
		all = append(all, "p."+col)
	}
	return append(all, profileUserColumns...)
}

func profileFields(fields map[string]string) map[string]string {
	all := make(map[string]string, len(fields)+len(profileUserFields))
	for k, v := range profileUserFields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

func profileFrom(table string) string {
	return table + " p JOIN users u ON u.id = p.user_id"
}

func profileWhere(filter profile.GetFilter) (sq.Eq, bool) {
	switch {
	case filter.ID != 0:
		return sq.Eq{"p.id": filter.ID}, true
	case filter.UserID != 0:
		return sq.Eq{"p.user_id": filter.UserID}, true
	}
	return nil, false
}

func birthDate(d core.Date) null.Time {
	return null.NewTime(d.Time, !d.IsZero())
}

func fromBirthDate(t null.Time) core.Date {
	if !t.Valid {
		return core.Date{}
	}
	y, m, d := t.Time.Date()
	return core.NewDate(y, m, d)
}

type profileRepository struct {
	repository
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(exec core.DBExecutor) *profileRepository {
	return &profileRepository{repository{exec: exec}}
}

func (repo profileRepository) getProfile(ctx context.Context, table string, cols []string, filter profile.GetFilter, notFound error, dest interface{}, exec []core.DBExecutor) error {
	where, ok := profileWhere(filter)
	if !ok {
		return notFound
	}
	q := builder.Select(cols...).From(profileFrom(table)).Where(where).Limit(1)
	if err := get(ctx, repo.getExec(exec), dest, q); err != nil {
		return trapNoRowsErr(err, notFound, "selecting "+table)
	}
	return nil
}

func (repo profileRepository) updateProfile(ctx context.Context, table string, id int, values map[string]interface{}, notFound error, exec []core.DBExecutor) error {
	res, err := execute(ctx, repo.getExec(exec), builder.Update(table).SetMap(values).Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "updating "+table)
	}
	return checkAffected(res, notFound)
}

// onlyActive restricts listings & totals to profiles of active users.
var onlyActive = sq.Eq{"u.is_active": true}

// Admins

var (
	adminColumns = profileColumns("id", "user_id", "admin_code", "phone", "rfc", "age", "occupation", "created_at", "updated_at")
	adminSpec    = listSpec{
		from:    profileFrom("administrators"),
		columns: adminColumns,
		idCol:   "p.id",
		fields: profileFields(map[string]string{
			"id":          "p.id",
			"clave_admin": "p.admin_code",
			"rfc":         "p.rfc",
			"ocupacion":   "p.occupation",
		}),
		where: onlyActive,
	}
)

type adminRow struct {
	ID int `db:"id"`
	profileUserRow
	AdminCode  string    `db:"admin_code"`
	Phone      string    `db:"phone"`
	RFC        string    `db:"rfc"`
	Age        int       `db:"age"`
	Occupation string    `db:"occupation"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row adminRow) admin() profile.Admin {
	return profile.Admin{
		ID:         row.ID,
		User:       row.user(),
		AdminCode:  row.AdminCode,
		Phone:      row.Phone,
		RFC:        row.RFC,
		Age:        row.Age,
		Occupation: row.Occupation,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (repo profileRepository) CreateAdmin(ctx context.Context, adm profile.Admin, exec ...core.DBExecutor) (profile.Admin, error) {
	q := builder.Insert("administrators").
		Columns("user_id", "admin_code", "phone", "rfc", "age", "occupation", "created_at", "updated_at").
		Values(adm.User.ID, adm.AdminCode, adm.Phone, adm.RFC, adm.Age, adm.Occupation, adm.CreatedAt.UTC(), adm.UpdatedAt.UTC())
	id, err := insertReturningID(ctx, repo.getExec(exec), q)
	if err != nil {
		return profile.Admin{}, errors.Wrap(err, "inserting administrator")
	}
	adm.ID = id
	return adm, nil
}

func (repo profileRepository) GetAdmin(ctx context.Context, filter profile.GetFilter, exec ...core.DBExecutor) (profile.Admin, error) {
	var row adminRow
	if err := repo.getProfile(ctx, "administrators", adminColumns, filter, profile.ErrAdminNotFound, &row, exec); err != nil {
		return profile.Admin{}, err
	}
	return row.admin(), nil
}

func (repo profileRepository) UpdateAdmin(ctx context.Context, adm profile.Admin, exec ...core.DBExecutor) (profile.Admin, error) {
	err := repo.updateProfile(ctx, "administrators", adm.ID, map[string]interface{}{
		"admin_code": adm.AdminCode,
		"phone":      adm.Phone,
		"rfc":        adm.RFC,
		"age":        adm.Age,
		"occupation": adm.Occupation,
		"updated_at": adm.UpdatedAt.UTC(),
	}, profile.ErrAdminNotFound, exec)
	if err != nil {
		return profile.Admin{}, err
	}
	return adm, nil
}

func (repo profileRepository) QueryAdmins(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]profile.Admin, int, error) {
	var rows []adminRow
	count, err := queryList(ctx, repo.getExec(exec), adminSpec, q, &rows)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying administrators")
	}
	admins := make([]profile.Admin, 0, len(rows))
	for _, row := range rows {
		admins = append(admins, row.admin())
	}
	return admins, count, nil
}

// Teachers

var (
	teacherColumns = profileColumns(
		"id", "user_id", "worker_id", "birth_date", "phone", "rfc", "office", "research_area", "subjects",
		"created_at", "updated_at",
	)
	teacherSpec = listSpec{
		from:    profileFrom("teachers"),
		columns: teacherColumns,
		idCol:   "p.id",
		fields: profileFields(map[string]string{
			"id":                 "p.id",
			"id_trabajador":      "p.worker_id",
			"rfc":                "p.rfc",
			"cubiculo":           "p.office",
			"area_investigacion": "p.research_area",
		}),
		where: onlyActive,
	}
)

type teacherRow struct {
	ID int `db:"id"`
	profileUserRow
	WorkerID     string    `db:"worker_id"`
	BirthDate    null.Time `db:"birth_date"`
	Phone        string    `db:"phone"`
	RFC          string    `db:"rfc"`
	Office       string    `db:"office"`
	ResearchArea string    `db:"research_area"`
	Subjects     jsonList  `db:"subjects"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row teacherRow) teacher() profile.Teacher {
	return profile.Teacher{
		ID:           row.ID,
		User:         row.user(),
		WorkerID:     row.WorkerID,
		BirthDate:    fromBirthDate(row.BirthDate),
		Phone:        row.Phone,
		RFC:          row.RFC,
		Office:       row.Office,
		ResearchArea: row.ResearchArea,
		Subjects:     core.StringList(row.Subjects),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo profileRepository) CreateTeacher(ctx context.Context, tch profile.Teacher, exec ...core.DBExecutor) (profile.Teacher, error) {
	q := builder.Insert("teachers").
		Columns(
			"user_id", "worker_id", "birth_date", "phone", "rfc", "office", "research_area", "subjects",
			"created_at", "updated_at",
		).
		Values(
			tch.User.ID, tch.WorkerID, birthDate(tch.BirthDate), tch.Phone, tch.RFC, tch.Office, tch.ResearchArea,
			jsonList(tch.Subjects), tch.CreatedAt.UTC(), tch.UpdatedAt.UTC(),
		)
	id, err := insertReturningID(ctx, repo.getExec(exec), q)
	if err != nil {
		return profile.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	tch.ID = id
	if tch.Subjects == nil {
		tch.Subjects = core.StringList{}
	}
	return tch, nil
}

func (repo profileRepository) GetTeacher(ctx context.Context, filter profile.GetFilter, exec ...core.DBExecutor) (profile.Teacher, error) {
	var row teacherRow
	if err := repo.getProfile(ctx, "teachers", teacherColumns, filter, profile.ErrTeacherNotFound, &row, exec); err != nil {
		return profile.Teacher{}, err
	}
	return row.teacher(), nil
}

func (repo profileRepository) UpdateTeacher(ctx context.Context, tch profile.Teacher, exec ...core.DBExecutor) (profile.Teacher, error) {
	err := repo.updateProfile(ctx, "teachers", tch.ID, map[string]interface{}{
		"worker_id":     tch.WorkerID,
		"birth_date":    birthDate(tch.BirthDate),
		"phone":         tch.Phone,
		"rfc":           tch.RFC,
		"office":        tch.Office,
		"research_area": tch.ResearchArea,
		"subjects":      jsonList(tch.Subjects),
		"updated_at":    tch.UpdatedAt.UTC(),
	}, profile.ErrTeacherNotFound, exec)
	if err != nil {
		return profile.Teacher{}, err
	}
	return tch, nil
}

func (repo profileRepository) QueryTeachers(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]profile.Teacher, int, error) {
	var rows []teacherRow
	count, err := queryList(ctx, repo.getExec(exec), teacherSpec, q, &rows)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]profile.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.teacher())
	}
	return teachers, count, nil
}

func (repo profileRepository) TeacherExists(ctx context.Context, id int, exec ...core.DBExecutor) (bool, error) {
	var count int
	if err := get(ctx, repo.getExec(exec), &count, builder.Select("COUNT(*)").From("teachers").Where(sq.Eq{"id": id})); err != nil {
		return false, errors.Wrap(err, "checking teacher")
	}
	return count > 0, nil
}

// Students

var (
	studentColumns = profileColumns(
		"id", "user_id", "enrollment_id", "curp", "rfc", "birth_date", "age", "phone", "occupation",
		"created_at", "updated_at",
	)
	studentSpec = listSpec{
		from:    profileFrom("students"),
		columns: studentColumns,
		idCol:   "p.id",
		fields: profileFields(map[string]string{
			"id":        "p.id",
			"matricula": "p.enrollment_id",
			"curp":      "p.curp",
			"rfc":       "p.rfc",
		}),
		where: onlyActive,
	}
)

type studentRow struct {
	ID int `db:"id"`
	profileUserRow
	EnrollmentID string    `db:"enrollment_id"`
	CURP         string    `db:"curp"`
	RFC          string    `db:"rfc"`
	BirthDate    null.Time `db:"birth_date"`
	Age          int       `db:"age"`
	Phone        string    `db:"phone"`
	Occupation   string    `db:"occupation"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row studentRow) student() profile.Student {
	return profile.Student{
		ID:           row.ID,
		User:         row.user(),
		EnrollmentID: row.EnrollmentID,
		CURP:         row.CURP,
		RFC:          row.RFC,
		BirthDate:    fromBirthDate(row.BirthDate),
		Age:          row.Age,
		Phone:        row.Phone,
		Occupation:   row.Occupation,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo profileRepository) CreateStudent(ctx context.Context, std profile.Student, exec ...core.DBExecutor) (profile.Student, error) {
	q := builder.Insert("students").
		Columns(
			"user_id", "enrollment_id", "curp", "rfc", "birth_date", "age", "phone", "occupation",
			"created_at", "updated_at",
		).
		Values(
			std.User.ID, std.EnrollmentID, std.CURP, std.RFC, birthDate(std.BirthDate), std.Age, std.Phone, std.Occupation,
			std.CreatedAt.UTC(), std.UpdatedAt.UTC(),
		)
	id, err := insertReturningID(ctx, repo.getExec(exec), q)
	if err != nil {
		return profile.Student{}, errors.Wrap(err, "inserting student")
	}
	std.ID = id
	return std, nil
}

func (repo profileRepository) GetStudent(ctx context.Context, filter profile.GetFilter, exec ...core.DBExecutor) (profile.Student, error) {
	var row studentRow
	if err := repo.getProfile(ctx, "students", studentColumns, filter, profile.ErrStudentNotFound, &row, exec); err != nil {
		return profile.Student{}, err
	}
	return row.student(), nil
}

func (repo profileRepository) UpdateStudent(ctx context.Context, std profile.Student, exec ...core.DBExecutor) (profile.Student, error) {
	err := repo.updateProfile(ctx, "students", std.ID, map[string]interface{}{
		"enrollment_id": std.EnrollmentID,
		"curp":          std.CURP,
		"rfc":           std.RFC,
		"birth_date":    birthDate(std.BirthDate),
		"age":           std.Age,
		"phone":         std.Phone,
		"occupation":    std.Occupation,
		"updated_at":    std.UpdatedAt.UTC(),
	}, profile.ErrStudentNotFound, exec)
	if err != nil {
		return profile.Student{}, err
	}
	return std, nil
}

func (repo profileRepository) QueryStudents(ctx context.Context, q core.ListQuery, exec ...core.DBExecutor) ([]profile.Student, int, error) {
	var rows []studentRow
	count, err := queryList(ctx, repo.getExec(exec), studentSpec, q, &rows)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying students")
	}
	students := make([]profile.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, count, nil
}

// Totals

func (repo profileRepository) countActive(ctx context.Context, table string, exec core.DBExecutor) (int, error) {
	var count int
	q := builder.Select("COUNT(*)").From(profileFrom(table)).Where(onlyActive)
	if err := get(ctx, exec, &count, q); err != nil {
		return 0, errors.Wrap(err, "counting "+table)
	}
	return count, nil
}

func (repo profileRepository) CountActive(ctx context.Context, exec ...core.DBExecutor) (profile.Totals, error) {
	e := repo.getExec(exec)
	var (
		totals profile.Totals
		err    error
	)
	if totals.Admins, err = repo.countActive(ctx, "administrators", e); err != nil {
		return profile.Totals{}, err
	}
	if totals.Teachers, err = repo.countActive(ctx, "teachers", e); err != nil {
		return profile.Totals{}, err
	}
	if totals.Students, err = repo.countActive(ctx, "students", e); err != nil {
		return profile.Totals{}, err
	}
	return totals, nil
}

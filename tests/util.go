package testutil

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/course"
	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
	"github.com/azizzt/controlescolar/storage/database"
	sqlxrepos "github.com/azizzt/controlescolar/storage/database/sqlx"
)

// Password satisfies the password policy for every user created by the helpers below.
const Password = "Lumbre#Quieta42"

// PrepareDB opens a fresh migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	goose.SetLogger(goose.NopLogger())

	db, err := database.Open(core.NewTestConfig())
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db), "migrating test database")
	return db
}

func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// NewValidator returns a validator with every custom validation of the app registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// Services wires the domain services over one test database.
type Services struct {
	DB         *sqlx.DB
	Validate   *validator.Validate
	Translator ut.Translator
	Users      *user.Service
	Profiles   *profile.Service
	Courses    *course.Service
	Tokens     user.TokenRevoker
}

func NewServices(t *testing.T) Services {
	t.Helper()
	db := PrepareDB(t)
	validate, translator := NewValidator()

	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), validate)
	profileSvc := profile.NewService(db, usrSvc, sqlxrepos.NewProfileRepository(db), validate)
	courseSvc := course.NewService(db, sqlxrepos.NewCourseRepository(db), profileSvc, validate)

	return Services{
		DB:         db,
		Validate:   validate,
		Translator: translator,
		Users:      usrSvc,
		Profiles:   profileSvc,
		Courses:    courseSvc,
		Tokens:     sqlxrepos.NewTokenRepository(db),
	}
}

func credentials(email, first, last string) user.Credentials {
	return user.Credentials{Email: email, Password: Password, FirstName: first, LastName: last}
}

func CreateAdmin(t *testing.T, svc *profile.Service, email, first, last, code string) profile.Admin {
	t.Helper()
	adm, err := svc.CreateAdmin(context.Background(), profile.NewAdmin{
		Credentials: credentials(email, first, last),
		AdminCode:   code,
		Phone:       "2221234567",
		RFC:         "GODE561231GR8",
		Age:         40,
		Occupation:  "Coordinación",
	})
	require.NoError(t, err, "CreateAdmin()")
	return adm
}

func CreateTeacher(t *testing.T, svc *profile.Service, email, first, last, workerID string) profile.Teacher {
	t.Helper()
	tch, err := svc.CreateTeacher(context.Background(), profile.NewTeacher{
		Credentials:  credentials(email, first, last),
		WorkerID:     workerID,
		BirthDate:    core.NewDate(1980, 5, 17),
		Phone:        "2227654321",
		RFC:          "GODE561231GR8",
		Office:       "CC-101",
		ResearchArea: "Bases de datos",
		Subjects:     core.StringList{"Programación", "Estructuras de datos"},
	})
	require.NoError(t, err, "CreateTeacher()")
	return tch
}

func CreateStudent(t *testing.T, svc *profile.Service, email, first, last, enrollmentID string) profile.Student {
	t.Helper()
	std, err := svc.CreateStudent(context.Background(), profile.NewStudent{
		Credentials:  credentials(email, first, last),
		EnrollmentID: enrollmentID,
		CURP:         "GODE561231HDFRRN09",
		BirthDate:    core.NewDate(2003, 9, 2),
		Age:          21,
		Phone:        "2225550000",
		Occupation:   "Estudiante",
	})
	require.NoError(t, err, "CreateStudent()")
	return std
}

func CreateCourse(t *testing.T, svc *course.Service, nrc, name string, teacherID ...int) course.Course {
	t.Helper()
	data := course.NewCourse{
		NRC:       core.Code(nrc),
		Name:      name,
		Section:   "001",
		Days:      core.StringList{"Lunes", "Miércoles"},
		StartTime: "07:00",
		EndTime:   "08:30",
		Room:      "CCO1-204",
		Program:   "Ingeniería en Ciencias de la Computación",
	}
	if len(teacherID) > 0 {
		data.TeacherID = core.NullableIDFrom(teacherID[0])
	}
	crs, err := svc.Create(context.Background(), data)
	require.NoError(t, err, "CreateCourse()")
	return crs
}

// GetUser loads the principal owning a profile.
func GetUser(t *testing.T, svc *user.Service, id int) user.User {
	t.Helper()
	usr, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err, "GetUser()")
	return usr
}

package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/tests"
)

var errNRCExists = map[string]string{"nrc": "a course with this NRC already exists"}

func countCourses(t *testing.T, app testApp, nrc string) int {
	var count int
	require.NoError(t, app.svc.DB.Get(&count, "SELECT COUNT(*) FROM courses WHERE nrc = ?", nrc))
	return count
}

func Test_courseApi_create(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	std := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-01")
	token := app.getToken(t, tch.User.ID)

	newCourse := func(nrc string, extra map[string]interface{}) []byte {
		data := map[string]interface{}{
			"nrc":         nrc,
			"nombre":      "Bases de Datos",
			"seccion":     "001",
			"dias":        []string{"Martes", "Jueves"},
			"hora_inicio": "09:00",
			"hora_fin":    "10:30",
		}
		for k, v := range extra {
			data[k] = v
		}
		return marchallObj(t, data)
	}

	t.Run("Student forbidden", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", app.getToken(t, std.User.ID), newCourse("1234", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assertJSON(t, errForbidden, rec)
	})

	t.Run("Required fields", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", token, []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertJSON(t, map[string]string{"nrc": "this field is required", "nombre": "this field is required"}, rec)
	})

	t.Run("Invalid time", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", token, newCourse("1234", map[string]interface{}{"hora_fin": "25:00"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertJSON(t, map[string]string{"hora_fin": "invalid time, expected HH:MM"}, rec)
	})

	t.Run("Unknown teacher", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", token, newCourse("1234", map[string]interface{}{"profesor": 999}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertJSON(t, map[string]string{"profesor": "the selected teacher does not exist"}, rec)
		assert.Zero(t, countCourses(t, app, "1234"))
	})

	var created core.NullableID
	t.Run("Created with default credits", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", token, newCourse(" 1234 ", map[string]interface{}{"profesor": strconv.Itoa(tch.ID)}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		created = core.NullableIDFrom(resp.ID)

		crs, err := app.svc.Courses.Get(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "1234", crs.NRC)
		assert.Equal(t, 1, crs.Credits)
		assert.Equal(t, core.StringList{"Martes", "Jueves"}, crs.Days)
		assert.Equal(t, tch.ID, crs.TeacherID.ID())
		assert.Equal(t, "Teresa Campos", crs.TeacherName)
	})

	t.Run("Duplicated NRC", func(t *testing.T) {
		require.True(t, created.Valid)
		rec := app.do(http.MethodPost, "/courses", token, newCourse("1234", map[string]interface{}{"nombre": "Otra"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertJSON(t, errNRCExists, rec)
		assert.Equal(t, 1, countCourses(t, app, "1234"))
	})

	t.Run("Numeric NRC", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/materias", token, newCourse("", map[string]interface{}{"nrc": 1234}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assertJSON(t, errNRCExists, rec)

		rec = app.do(http.MethodPost, "/materias", token, newCourse("", map[string]interface{}{"nrc": 4321}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, 1, countCourses(t, app, "4321"))
	})
}

func Test_courseApi_retrieve(t *testing.T) {
	app := setup(t)

	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	std := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-01")
	created := testutil.CreateCourse(t, app.svc.Courses, "1234", "Bases de Datos", tch.ID)
	token := app.getToken(t, tch.User.ID)

	crs, err := app.svc.Courses.Get(context.Background(), created.ID)
	require.NoError(t, err)
	path := "/materias?id=" + strconv.Itoa(crs.ID)
	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student forbidden", path: path, token: app.getToken(t, std.User.ID), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Missing id", path: "/materias", token: token, wantCode: http.StatusBadRequest, wantData: marchallObj(t, errInvalidID)},
		{
			name: "Unknown id", path: "/materias?id=999", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "course not found"}),
		},
		{name: "Found", path: path, token: token, wantData: marchallObj(t, crs)},
		{name: "Found (alias)", path: "/courses?id=" + strconv.Itoa(crs.ID), token: token, wantData: marchallObj(t, crs)},
	}
	runHttpTests(t, app, tests)

	t.Run("View", func(t *testing.T) {
		rec := app.do(http.MethodGet, path, token)
		var view map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, float64(tch.ID), view["profesor"])
		assert.Equal(t, "Teresa Campos", view["profesor_nombre"])
		assert.Equal(t, []interface{}{"Lunes", "Miércoles"}, view["dias"])
	})
}

func Test_courseApi_update(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	adm := testutil.CreateAdmin(t, app.svc.Profiles, "ana@escuela.mx", "Ana", "Barrios", "ADM-01")
	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	crs := testutil.CreateCourse(t, app.svc.Courses, "1234", "Bases de Datos", tch.ID)
	other := testutil.CreateCourse(t, app.svc.Courses, "5678", "Redes")
	token := app.getToken(t, adm.User.ID)

	put := func(body string) (int, []byte) {
		rec := app.do(http.MethodPut, "/materias", token, []byte(body))
		return rec.Code, rec.Body.Bytes()
	}
	get := func(t *testing.T) (got struct {
		NRC     string
		Name    string
		Teacher core.NullableID
	}) {
		c, err := app.svc.Courses.Get(ctx, crs.ID)
		require.NoError(t, err)
		got.NRC, got.Name, got.Teacher = c.NRC, c.Name, c.TeacherID
		return got
	}
	id := strconv.Itoa(crs.ID)

	t.Run("Missing id", func(t *testing.T) {
		code, _ := put(`{"nombre": "X"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("Omitted teacher is kept", func(t *testing.T) {
		code, body := put(`{"id": ` + id + `, "nombre": "Bases de Datos Avanzadas"}`)
		require.Equal(t, http.StatusOK, code, string(body))
		got := get(t)
		assert.Equal(t, "Bases de Datos Avanzadas", got.Name)
		assert.Equal(t, tch.ID, got.Teacher.ID())
	})

	t.Run("Unknown teacher leaves the course untouched", func(t *testing.T) {
		code, body := put(`{"id": ` + id + `, "nombre": "Cambio", "profesor": 999}`)
		assert.Equal(t, http.StatusBadRequest, code)
		ok, err := jsonBytesEqual(t, body, marchallObj(t, map[string]string{"profesor": "the selected teacher does not exist"}))
		require.NoError(t, err)
		assert.True(t, ok, string(body))

		got := get(t)
		assert.Equal(t, "Bases de Datos Avanzadas", got.Name)
		assert.Equal(t, tch.ID, got.Teacher.ID())
	})

	t.Run("NRC held by another course", func(t *testing.T) {
		code, body := put(`{"id": ` + id + `, "nrc": "` + other.NRC + `"}`)
		assert.Equal(t, http.StatusBadRequest, code)
		ok, err := jsonBytesEqual(t, body, marchallObj(t, errNRCExists))
		require.NoError(t, err)
		assert.True(t, ok, string(body))
		assert.Equal(t, "1234", get(t).NRC)
	})

	t.Run("Own NRC is accepted", func(t *testing.T) {
		code, body := put(`{"id": ` + id + `, "nrc": "1234"}`)
		assert.Equal(t, http.StatusOK, code, string(body))
	})

	t.Run("Numeric own NRC is accepted", func(t *testing.T) {
		code, body := put(`{"id": ` + id + `, "nrc": 1234}`)
		assert.Equal(t, http.StatusOK, code, string(body))
		assert.Equal(t, "1234", get(t).NRC)
	})

	for _, clear := range []string{`""`, `null`} {
		t.Run("Teacher cleared with "+clear, func(t *testing.T) {
			app.svc.DB.MustExec("UPDATE courses SET teacher_id = ? WHERE id = ?", tch.ID, crs.ID)

			code, body := put(`{"id": ` + id + `, "profesor": ` + clear + `}`)
			require.Equal(t, http.StatusOK, code, string(body))

			var view map[string]interface{}
			require.NoError(t, json.Unmarshal(body, &view))
			assert.Nil(t, view["profesor"])
			assert.NotContains(t, view, "profesor_nombre")
			assert.False(t, get(t).Teacher.Valid)
		})
	}
}

func Test_courseApi_destroy(t *testing.T) {
	app := setup(t)

	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	crs := testutil.CreateCourse(t, app.svc.Courses, "1234", "Bases de Datos", tch.ID)
	token := app.getToken(t, tch.User.ID)
	path := "/materias?id=" + strconv.Itoa(crs.ID)

	tests := []httpTest{
		{name: "Unknown id", method: http.MethodDelete, path: "/materias?id=999", token: token, wantCode: http.StatusNotFound},
		{name: "Deleted", method: http.MethodDelete, path: path, token: token, wantData: marchallObj(t, httpErr{Message: "course deleted"})},
		{name: "Gone", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNotFound},
	}
	runHttpTests(t, app, tests)

	// the teacher outlives its courses
	_, err := app.svc.Profiles.GetTeacher(context.Background(), tch.ID)
	assert.NoError(t, err)
}

func Test_courseApi_query(t *testing.T) {
	app := setup(t)

	std := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-01")
	redes := testutil.CreateCourse(t, app.svc.Courses, "2000", "Redes")
	bd := testutil.CreateCourse(t, app.svc.Courses, "3000", "Bases de Datos")
	calc := testutil.CreateCourse(t, app.svc.Courses, "1000", "Cálculo")
	app.svc.DB.MustExec("UPDATE courses SET program = 'Matemáticas' WHERE id = ?", calc.ID)
	token := app.getToken(t, std.User.ID)

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{name: "Default ordering", wantIDs: []int{bd.ID, calc.ID, redes.ID}},
		{name: "ordering=nrc", query: "?ordering=nrc", wantIDs: []int{calc.ID, redes.ID, bd.ID}},
		{name: "ordering=-id", query: "?ordering=-id", wantIDs: []int{calc.ID, bd.ID, redes.ID}},
		{name: "Unknown ordering falls back", query: "?ordering=salon", wantIDs: []int{bd.ID, calc.ID, redes.ID}},
		{name: "search=matem", query: "?search=matem", wantIDs: []int{calc.ID}},
		{name: "search=2000", query: "?search=2000", wantIDs: []int{redes.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, "/lista-materias"+tt.query, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantIDs, decodePage(t, rec).resultIDs(t))
		})
	}

	t.Run("Malformed stored days are listed empty", func(t *testing.T) {
		app.svc.DB.MustExec("UPDATE courses SET days = 'not json' WHERE id = ?", redes.ID)

		rec := app.do(http.MethodGet, "/lista-courses?search=redes", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		pg := decodePage(t, rec)
		require.Len(t, pg.Results, 1)

		var view map[string]interface{}
		require.NoError(t, json.Unmarshal(pg.Results[0], &view))
		assert.Equal(t, []interface{}{}, view["dias"])
	})
}

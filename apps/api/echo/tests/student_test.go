package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/core/user"
	"github.com/azizzt/controlescolar/tests"
)

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	std := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-01")

	found, err := app.svc.Profiles.GetStudent(ctx, std.ID)
	require.NoError(t, err)
	path := "/alumnos?id=" + strconv.Itoa(std.ID)

	tests := []httpTest{
		{name: "Auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Invalid id", path: "/alumnos?id=abc", token: app.getToken(t, std.User.ID), wantCode: http.StatusBadRequest, wantData: marchallObj(t, errInvalidID)},
		{name: "Teacher", path: path, token: app.getToken(t, tch.User.ID), wantData: marchallObj(t, found)},
		{name: "Student", path: "/students?id=" + strconv.Itoa(std.ID), token: app.getToken(t, std.User.ID), wantData: marchallObj(t, found)},
	}
	runHttpTests(t, app, tests)
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	adm := testutil.CreateAdmin(t, app.svc.Profiles, "ana@escuela.mx", "Ana", "Barrios", "ADM-01")
	tch := testutil.CreateTeacher(t, app.svc.Profiles, "tere@escuela.mx", "Teresa", "Campos", "T-01")
	adminToken := app.getToken(t, adm.User.ID)

	body := func(email, curp string) []byte {
		return marchallObj(t, map[string]interface{}{
			"email":            email,
			"password":         testutil.Password,
			"first_name":       "Lucía",
			"last_name":        "Ortega",
			"matricula":        "202301234",
			"curp":             curp,
			"fecha_nacimiento": "2004-02-29",
			"edad":             20,
		})
	}

	tests := []httpTest{
		{
			name: "Teacher forbidden", method: http.MethodPost, path: "/alumnos", token: app.getToken(t, tch.User.ID),
			body: body("lucia@escuela.mx", "GODE561231HDFRRN09"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Invalid CURP", method: http.MethodPost, path: "/alumnos", token: adminToken,
			body: body("lucia@escuela.mx", "NOPE"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"curp": "invalid CURP"}),
		},
		{
			name: "Email used by another role", method: http.MethodPost, path: "/alumnos", token: adminToken,
			body: body("TERE@escuela.mx", "GODE561231HDFRRN09"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "Invalid birth date", method: http.MethodPost, path: "/alumnos", token: adminToken,
			body: marchallObj(t, map[string]interface{}{
				"email": "lucia@escuela.mx", "password": testutil.Password, "first_name": "Lucía", "last_name": "Ortega",
				"matricula": "202301234", "curp": "GODE561231HDFRRN09", "fecha_nacimiento": "29/02/2004",
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	runHttpTests(t, app, tests)

	t.Run("Created", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/students", adminToken, body("lucia@escuela.mx", "gode561231hdfrrn09"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		created, err := app.svc.Profiles.GetStudent(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "GODE561231HDFRRN09", created.CURP)
		assert.Equal(t, "2004-02-29", created.BirthDate.String())
		assert.Equal(t, 20, created.Age)

		usr := app.user(t, created.User.ID)
		assert.Equal(t, user.RoleSet{user.RoleStudent}, usr.Groups)
		assert.True(t, usr.IsActive)
	})
}

func Test_studentApi_updateAndDestroy(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	adm := testutil.CreateAdmin(t, app.svc.Profiles, "ana@escuela.mx", "Ana", "Barrios", "ADM-01")
	std := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-01")
	adminToken := app.getToken(t, adm.User.ID)

	t.Run("Student cannot update itself", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/alumnos", app.getToken(t, std.User.ID), marchallObj(t, map[string]interface{}{"id": std.ID}))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Updated", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/alumnos", adminToken, marchallObj(t, map[string]interface{}{
			"id":        std.ID,
			"matricula": " S-02 ",
			"ocupacion": "Becario",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated, err := app.svc.Profiles.GetStudent(ctx, std.ID)
		require.NoError(t, err)
		assertJSON(t, updated, rec)
		assert.Equal(t, "S-02", updated.EnrollmentID)
		assert.Equal(t, "Becario", updated.Occupation)
		assert.Equal(t, std.CURP, updated.CURP)
	})

	t.Run("CURP upper-cased on update", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/students", adminToken, marchallObj(t, map[string]interface{}{
			"id":   std.ID,
			"curp": " roma800517mdfrrn02 ",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated, err := app.svc.Profiles.GetStudent(ctx, std.ID)
		require.NoError(t, err)
		assert.Equal(t, "ROMA800517MDFRRN02", updated.CURP)
		assert.Equal(t, "S-02", updated.EnrollmentID)
	})

	t.Run("Deleted", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/alumnos?id="+strconv.Itoa(std.ID), adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assertJSON(t, httpErr{Message: "student deleted"}, rec)

		_, err := app.svc.Users.GetByID(ctx, std.User.ID)
		assert.ErrorIs(t, err, user.ErrNotFound)

		rec = app.do(http.MethodGet, "/alumnos?id="+strconv.Itoa(std.ID), adminToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	sam := testutil.CreateStudent(t, app.svc.Profiles, "sam@escuela.mx", "Samuel", "Duarte", "S-02")
	lu := testutil.CreateStudent(t, app.svc.Profiles, "lu@escuela.mx", "Lucía", "Ortega", "S-01")
	token := app.getToken(t, sam.User.ID)

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{name: "Default ordering", wantIDs: []int{sam.ID, lu.ID}},
		{name: "ordering=matricula", query: "?ordering=matricula", wantIDs: []int{lu.ID, sam.ID}},
		{name: "ordering=-user__first_name", query: "?ordering=-user__first_name", wantIDs: []int{sam.ID, lu.ID}},
		{name: "search by name and enrollment", query: "?search=luc%C3%ADa+s-01", wantIDs: []int{lu.ID}},
		{name: "search without matches", query: "?search=nadie", wantIDs: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodGet, "/lista-alumnos"+tt.query, token)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			pg := decodePage(t, rec)
			assert.Equal(t, tt.wantIDs, pg.resultIDs(t))
			assert.Equal(t, len(tt.wantIDs), pg.Count)
		})
	}
}

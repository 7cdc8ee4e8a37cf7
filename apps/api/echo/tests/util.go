package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/apps/api/echo"
	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
	"github.com/azizzt/controlescolar/services/logger"
	"github.com/azizzt/controlescolar/tests"
)

var (
	errMissingToken = httpErr{Message: "authentication credentials were not provided"}
	errInvalidToken = httpErr{Message: "invalid or expired token"}
	errUserInactive = httpErr{Message: "user inactive or deleted"}
	errForbidden    = httpErr{Message: "permission denied"}
	errInvalidPage  = httpErr{Message: "invalid page"}
	errInvalidID    = map[string]string{"id": "a valid id is required"}
)

type testApp struct {
	*echoapi.Server
	conf *core.Config
	svc  testutil.Services
}

func setup(t *testing.T) testApp {
	conf := core.NewTestConfig()
	svc := testutil.NewServices(t)

	std := logrus.New()
	std.SetOutput(io.Discard)
	logger := logsvc.NewRollbarLogger(logrus.NewEntry(std), conf)
	logger.Enable(false)

	srv := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    svc.Users,
		ProfileSvc: svc.Profiles,
		CourseSvc:  svc.Courses,
		Revoker:    svc.Tokens,
		Validate:   svc.Validate,
		Translator: svc.Translator,
	})
	return testApp{Server: srv, conf: conf, svc: svc}
}

type httpErr struct {
	Message string `json:"message"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves one request through app.
func (app testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func (app testApp) user(t *testing.T, id int) user.User {
	return testutil.GetUser(t, app.svc.Users, id)
}

func (app testApp) getToken(t *testing.T, userID int) string {
	token, _, err := echoapi.GenerateToken(app.conf, app.user(t, userID))
	require.NoError(t, err, "getToken()")
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, app testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// page is the decoded list envelope.
type page struct {
	Count    int               `json:"count"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Results  []json.RawMessage `json:"results"`
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) page {
	var pg page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pg), "decoding page")
	return pg
}

// resultIDs returns the `id` of every result of the page.
func (pg page) resultIDs(t *testing.T) []int {
	ids := make([]int, 0, len(pg.Results))
	for _, raw := range pg.Results {
		var obj struct {
			ID int `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &obj))
		ids = append(ids, obj.ID)
	}
	return ids
}

func assertJSON(t *testing.T, want interface{}, rec *httptest.ResponseRecorder) {
	assert.JSONEq(t, string(marchallObj(t, want)), rec.Body.String())
}

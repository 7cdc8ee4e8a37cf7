package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizzt/controlescolar/core"
	testutil "github.com/azizzt/controlescolar/tests"
)

func TestRequestLogger_status(t *testing.T) {
	validate, translator := testutil.NewValidator()

	app := echo.New()
	app.HTTPErrorHandler = newAppHTTPErrorHandler(nil, translator, func() {})
	logger, hook := logtest.NewNullLogger()
	app.Use(requestLogger(logger))

	app.GET("/ok", func(ctx echo.Context) error { return ctx.NoContent(http.StatusNoContent) })
	app.GET("/not-found", func(ctx echo.Context) error { return core.NewNotFoundError("course not found") })
	app.GET("/invalid", func(ctx echo.Context) error {
		return validate.Struct(struct {
			Name string `json:"nombre" validate:"required"`
		}{})
	})
	app.GET("/field", func(ctx echo.Context) error {
		return core.NewFieldValidationError("nrc", errors.New("taken"))
	})
	app.GET("/forbidden", func(ctx echo.Context) error { return errHttpForbidden })

	tests := []struct {
		path     string
		wantCode int
	}{
		{path: "/ok", wantCode: http.StatusNoContent},
		{path: "/not-found", wantCode: http.StatusNotFound},
		{path: "/invalid", wantCode: http.StatusBadRequest},
		{path: "/field", wantCode: http.StatusBadRequest},
		{path: "/forbidden", wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hook.Reset()
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)

			require.Len(t, hook.AllEntries(), 1)
			entry := hook.LastEntry()
			assert.Equal(t, logrus.InfoLevel, entry.Level)
			assert.Equal(t, tt.wantCode, entry.Data["status"])
		})
	}
}

package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core"
	"github.com/azizzt/controlescolar/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	errInvalidToken       = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	errUserInactive       = echo.NewHTTPError(http.StatusUnauthorized, "user inactive or deleted")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errInvalidPage        = echo.NewHTTPError(http.StatusNotFound, "invalid page")
	errInvalidID          = errors.New("a valid id is required")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		default:
			switch {
			case errors.Is(err, user.ErrInvalidCredentials):
				code = http.StatusBadRequest
				message = user.ErrInvalidCredentials.Error()
			case errors.Is(err, user.ErrAccountDeactivated):
				code = http.StatusForbidden
				message = user.ErrAccountDeactivated.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if usr, uErr := getContextUser(ctx); uErr == nil {
					logger.Error(msg, errors.Wrap(err, msg), usr)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				if ctx.Echo().Debug {
					message = err.Error()
				}
				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"message": m}
		}

		// Send response
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/profile"
	"github.com/azizzt/controlescolar/core/user"
)

// accountAPI serves the endpoints of the requesting principal: login, logout, own profile & totals.
type accountAPI struct {
	auth       tokenAuth
	usrSvc     *user.Service
	profileSvc *profile.Service
	revoker    user.TokenRevoker
	validate   *validator.Validate
}

func (api accountAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := api.usrSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.sign(api.auth.claims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, newLoginResponse(token, usr))
}

func (api accountAPI) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.revoker.RevokeToken(ctx.Request().Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return statusOK(ctx, "logged out")
}

func (api accountAPI) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	own, err := api.profileSvc.GetOwn(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "finding own profile")
	}
	return ctx.JSON(http.StatusOK, own)
}

func (api accountAPI) totals(ctx echo.Context) error {
	totals, err := api.profileSvc.Totals(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	return ctx.JSON(http.StatusOK, totals)
}

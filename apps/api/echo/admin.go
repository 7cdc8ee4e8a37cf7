package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/profile"
)

type adminAPI struct {
	svc     *profile.Service
	listing listConfig
}

func (api adminAPI) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	adm, err := api.svc.GetAdmin(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding administrator")
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api adminAPI) create(ctx echo.Context) error {
	var data profile.NewAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAdmin")
	}
	adm, err := api.svc.CreateAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating administrator")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: adm.ID})
}

func (api adminAPI) update(ctx echo.Context) error {
	var data profile.UpdateAdmin
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAdmin")
	}
	adm, err := api.svc.UpdateAdmin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating administrator")
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api adminAPI) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.DeleteAdmin(ctx.Request().Context(), id, ctxUsr); err != nil {
		return errors.Wrap(err, "deleting administrator")
	}
	return statusOK(ctx, "administrator deleted")
}

func (api adminAPI) query(ctx echo.Context) error {
	return list(ctx, api.listing, api.svc.QueryAdmins)
}

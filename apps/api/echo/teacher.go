package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/profile"
)

type teacherAPI struct {
	svc     *profile.Service
	listing listConfig
}

func (api teacherAPI) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	tch, err := api.svc.GetTeacher(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding teacher")
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api teacherAPI) create(ctx echo.Context) error {
	var data profile.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tch, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: tch.ID})
}

func (api teacherAPI) update(ctx echo.Context) error {
	var data profile.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	tch, err := api.svc.UpdateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tch)
}

func (api teacherAPI) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacher(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return statusOK(ctx, "teacher deleted")
}

func (api teacherAPI) query(ctx echo.Context) error {
	return list(ctx, api.listing, api.svc.QueryTeachers)
}

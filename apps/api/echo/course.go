package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/course"
)

type courseAPI struct {
	svc     *course.Service
	listing listConfig
}

func (api courseAPI) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	crs, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api courseAPI) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: crs.ID})
}

func (api courseAPI) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	crs, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api courseAPI) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return statusOK(ctx, "course deleted")
}

func (api courseAPI) query(ctx echo.Context) error {
	return list(ctx, api.listing, api.svc.Query)
}

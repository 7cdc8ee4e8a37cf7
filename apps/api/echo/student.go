package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/profile"
)

type studentAPI struct {
	svc     *profile.Service
	listing listConfig
}

func (api studentAPI) retrieve(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	std, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api studentAPI) create(ctx echo.Context) error {
	var data profile.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, CreatedResponse{ID: std.ID})
}

func (api studentAPI) update(ctx echo.Context) error {
	var data profile.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	std, err := api.svc.UpdateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api studentAPI) destroy(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteStudent(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return statusOK(ctx, "student deleted")
}

func (api studentAPI) query(ctx echo.Context) error {
	return list(ctx, api.listing, api.svc.QueryStudents)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentApi struct {
	ServerDeps
}

func registerEnrollmentAPI(s *Server, g *echo.Group) {
	api := enrollmentApi{ServerDeps: s.ServerDeps}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func registerProgressAPI(s *Server, g *echo.Group) {
	api := enrollmentApi{ServerDeps: s.ServerDeps}

	g.GET("", api.queryProgress)
	g.POST("", api.createProgress)
	g.GET("/:id", api.retrieveProgress)
	g.PUT("/:id", api.updateProgress)
	g.PATCH("/:id", api.updateProgress)
	g.DELETE("/:id", api.destroyProgress)
}

func (api *enrollmentApi) getEnrollment(ctx echo.Context) (enrollment.Enrollment, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	enr, err := api.EnrollmentSvc.GetEnrollmentByID(ctx.Request().Context(), id)
	return enr, errors.Wrap(err, "finding enrollment by ID")
}

func (api *enrollmentApi) getProgress(ctx echo.Context) (enrollment.Progress, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return enrollment.Progress{}, err
	}
	prg, err := api.EnrollmentSvc.GetProgressByID(ctx.Request().Context(), id)
	return prg, errors.Wrap(err, "finding progress by ID")
}

// Enrollment handlers

func (api *enrollmentApi) create(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data enrollment.NewEnrollment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	enr, err := api.EnrollmentSvc.CreateEnrollment(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating enrollment")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) query(ctx echo.Context) error {
	filter := new(enrollment.EnrollmentFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Enrollment{})
	}

	enrollments, err := api.EnrollmentSvc.QueryEnrollments(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	enr, err := api.getEnrollment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) update(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	enr, err := api.getEnrollment(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewEnrollment
	if isPartialUpdate(ctx) {
		data = enrollment.NewEnrollmentFrom(enr)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}

	enr, err = api.EnrollmentSvc.UpdateEnrollment(ctx.Request().Context(), actor, enr, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	enr, err := api.getEnrollment(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.EnrollmentSvc.DeleteEnrollment(ctx.Request().Context(), actor, enr); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Progress handlers

func (api *enrollmentApi) createProgress(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data enrollment.NewProgress
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgress")
	}

	prg, err := api.EnrollmentSvc.CreateProgress(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating progress")
	}
	return ctx.JSON(http.StatusCreated, prg)
}

func (api *enrollmentApi) queryProgress(ctx echo.Context) error {
	filter := new(enrollment.ProgressFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []enrollment.Progress{})
	}

	records, err := api.EnrollmentSvc.QueryProgress(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *enrollmentApi) retrieveProgress(ctx echo.Context) error {
	prg, err := api.getProgress(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *enrollmentApi) updateProgress(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	prg, err := api.getProgress(ctx)
	if err != nil {
		return err
	}

	var data enrollment.NewProgress
	if isPartialUpdate(ctx) {
		data = enrollment.NewProgressFrom(prg)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgress")
	}

	prg, err = api.EnrollmentSvc.UpdateProgress(ctx.Request().Context(), actor, prg, data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, prg)
}

func (api *enrollmentApi) destroyProgress(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	prg, err := api.getProgress(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.EnrollmentSvc.DeleteProgress(ctx.Request().Context(), actor, prg); err != nil {
		return errors.Wrap(err, "deleting progress")
	}
	return ctx.NoContent(http.StatusNoContent)
}

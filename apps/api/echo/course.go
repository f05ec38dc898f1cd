package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseApi struct {
	ServerDeps
}

func registerCourseAPI(s *Server, g *echo.Group) {
	api := courseApi{ServerDeps: s.ServerDeps}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func registerLessonAPI(s *Server, g *echo.Group) {
	api := courseApi{ServerDeps: s.ServerDeps}

	g.GET("", api.queryLessons)
	g.POST("", api.createLesson)
	g.GET("/:id", api.retrieveLesson)
	g.PUT("/:id", api.updateLesson)
	g.PATCH("/:id", api.updateLesson)
	g.DELETE("/:id", api.destroyLesson)
}

func (api *courseApi) getCourse(ctx echo.Context) (course.Course, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return course.Course{}, err
	}
	crs, err := api.CourseSvc.GetByID(ctx.Request().Context(), id)
	return crs, errors.Wrap(err, "finding course by ID")
}

func (api *courseApi) getLesson(ctx echo.Context) (course.Lesson, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return course.Lesson{}, err
	}
	lsn, err := api.CourseSvc.GetLessonByID(ctx.Request().Context(), id)
	return lsn, errors.Wrap(err, "finding lesson by ID")
}

// Course handlers

func (api *courseApi) create(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	crs, err := api.CourseSvc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.CourseFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	courses, err := api.CourseSvc.Query(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewCourse
	if isPartialUpdate(ctx) {
		data = course.NewCourseFrom(crs)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	crs, err = api.CourseSvc.Update(ctx.Request().Context(), actor, crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	crs, err := api.getCourse(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.CourseSvc.Delete(ctx.Request().Context(), actor, crs); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lesson handlers

func (api *courseApi) createLesson(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data course.NewLesson
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lsn, err := api.CourseSvc.CreateLesson(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) queryLessons(ctx echo.Context) error {
	filter := new(course.LessonFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Lesson{})
	}

	lessons, err := api.CourseSvc.QueryLessons(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) retrieveLesson(ctx echo.Context) error {
	lsn, err := api.getLesson(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	lsn, err := api.getLesson(ctx)
	if err != nil {
		return err
	}

	var data course.NewLesson
	if isPartialUpdate(ctx) {
		data = course.NewLessonFrom(lsn)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lsn, err = api.CourseSvc.UpdateLesson(ctx.Request().Context(), actor, lsn, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	lsn, err := api.getLesson(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.CourseSvc.DeleteLesson(ctx.Request().Context(), actor, lsn); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

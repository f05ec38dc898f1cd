package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrCourseNotFound = core.NewNotFoundError("course")
	ErrLessonNotFound = core.NewNotFoundError("lesson")

	errOnlyInstructors = "only instructors can create courses"
	errNotCourseOwner  = "only the course instructor can perform this action"
)

type Repository interface {
	CreateCourse(ctx context.Context, crs Course) (Course, error)
	QueryCourses(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, error)
	GetCourse(ctx context.Context, id int) (Course, error)
	UpdateCourse(ctx context.Context, crs Course) (Course, error)
	// DeleteCoursesByID also deletes the lessons, quizzes & enrollments of the courses,
	// and everything that references them.
	DeleteCoursesByID(ctx context.Context, ids ...int) (int, error)

	CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
	QueryLessons(ctx context.Context, filter *LessonFilter, ordering []core.DBOrdering) ([]Lesson, error)
	GetLesson(ctx context.Context, id int) (Lesson, error)
	UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
	// DeleteLessonsByID also deletes the progress records of the lessons.
	DeleteLessonsByID(ctx context.Context, ids ...int) (int, error)
}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// CheckOwner fails with a core.PermissionError unless actor is the instructor of crs or an admin.
func (svc *Service) CheckOwner(actor user.User, crs Course) error {
	if actor.IsAdmin || actor.ID == crs.InstructorID {
		return nil
	}
	return core.NewPermissionError(errNotCourseOwner)
}

// GetReference returns the Course referenced by the input field fld.
// A missing Course is reported as a validation error on fld.
func (svc *Service) GetReference(ctx context.Context, fld string, id int) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Course{}, core.NewInvalidPKError(fld, id)
		}
		return Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

// GetLessonReference is GetReference for lessons.
func (svc *Service) GetLessonReference(ctx context.Context, fld string, id int) (Lesson, error) {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Lesson{}, core.NewInvalidPKError(fld, id)
		}
		return Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return lsn, nil
}

// Courses

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !actor.IsInstructor {
		return Course{}, core.NewPermissionError(errOnlyInstructors)
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	crs, err := svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Description:  nc.Description,
		InstructorID: actor.ID,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (svc *Service) Query(ctx context.Context, filter *CourseFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, core.AllowedOrderings(ordering, CourseOrderings))
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actor user.User, crs Course, nc NewCourse) (Course, error) {
	if err := svc.CheckOwner(actor, crs); err != nil {
		return Course{}, err
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	crs.Title = nc.Title
	crs.Description = nc.Description
	crs, err := svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return crs, nil
}

func (svc *Service) Delete(ctx context.Context, actor user.User, crs Course) error {
	if err := svc.CheckOwner(actor, crs); err != nil {
		return err
	}
	_, err := svc.repo.DeleteCoursesByID(ctx, crs.ID)
	return errors.Wrap(err, "deleting course")
}

// Lessons

func (svc *Service) CreateLesson(ctx context.Context, actor user.User, nl NewLesson) (Lesson, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Lesson{}, err
	}
	crs, err := svc.GetReference(ctx, "course", nl.Course)
	if err != nil {
		return Lesson{}, err
	}
	if err = svc.CheckOwner(actor, crs); err != nil {
		return Lesson{}, err
	}

	lsn, err := svc.repo.CreateLesson(ctx, Lesson{CourseID: crs.ID, Title: nl.Title, Content: nl.Content})
	if err != nil {
		if errors.Cause(err) == core.ErrForeignKeyViolation {
			return Lesson{}, core.NewInvalidPKError("course", nl.Course)
		}
		return Lesson{}, errors.Wrap(err, "creating lesson")
	}
	return lsn, nil
}

func (svc *Service) QueryLessons(ctx context.Context, filter *LessonFilter, ordering []core.DBOrdering) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, filter, core.AllowedOrderings(ordering, LessonOrderings))
}

func (svc *Service) GetLessonByID(ctx context.Context, id int) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

// GetCourseLesson returns the Lesson lessonID only if it belongs to the Course courseID.
func (svc *Service) GetCourseLesson(ctx context.Context, courseID, lessonID int) (Lesson, error) {
	lsn, err := svc.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return Lesson{}, err
	}
	if lsn.CourseID != courseID {
		return Lesson{}, ErrLessonNotFound
	}
	return lsn, nil
}

// CheckLessonOwner fails unless actor owns the course of lsn.
func (svc *Service) CheckLessonOwner(ctx context.Context, actor user.User, lsn Lesson) error {
	if actor.IsAdmin {
		return nil
	}
	crs, err := svc.repo.GetCourse(ctx, lsn.CourseID)
	if err != nil {
		return errors.Wrap(err, "getting lesson course")
	}
	return svc.CheckOwner(actor, crs)
}

func (svc *Service) UpdateLesson(ctx context.Context, actor user.User, lsn Lesson, nl NewLesson) (Lesson, error) {
	if err := svc.CheckLessonOwner(ctx, actor, lsn); err != nil {
		return Lesson{}, err
	}
	if err := nl.Validate(svc.validate); err != nil {
		return Lesson{}, err
	}
	if nl.Course != lsn.CourseID {
		// moving the lesson: the new course must be owned too
		crs, err := svc.GetReference(ctx, "course", nl.Course)
		if err != nil {
			return Lesson{}, err
		}
		if err = svc.CheckOwner(actor, crs); err != nil {
			return Lesson{}, err
		}
	}

	lsn.CourseID = nl.Course
	lsn.Title = nl.Title
	lsn.Content = nl.Content
	lsn, err := svc.repo.UpdateLesson(ctx, lsn)
	if err != nil {
		if errors.Cause(err) == core.ErrForeignKeyViolation {
			return Lesson{}, core.NewInvalidPKError("course", nl.Course)
		}
		return Lesson{}, errors.Wrap(err, "updating lesson")
	}
	return lsn, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, actor user.User, lsn Lesson) error {
	if err := svc.CheckLessonOwner(ctx, actor, lsn); err != nil {
		return err
	}
	_, err := svc.repo.DeleteLessonsByID(ctx, lsn.ID)
	return errors.Wrap(err, "deleting lesson")
}

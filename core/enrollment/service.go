package enrollment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment")
	ErrProgressNotFound   = core.NewNotFoundError("progress")

	errNotStudent = "only the student can perform this action"
)

type Repository interface {
	CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	QueryEnrollments(ctx context.Context, filter *EnrollmentFilter, ordering []core.DBOrdering) ([]Enrollment, error)
	GetEnrollment(ctx context.Context, id int) (Enrollment, error)
	UpdateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
	DeleteEnrollmentsByID(ctx context.Context, ids ...int) (int, error)

	CreateProgress(ctx context.Context, prg Progress) (Progress, error)
	QueryProgress(ctx context.Context, filter *ProgressFilter, ordering []core.DBOrdering) ([]Progress, error)
	GetProgress(ctx context.Context, id int) (Progress, error)
	UpdateProgress(ctx context.Context, prg Progress) (Progress, error)
	DeleteProgressByID(ctx context.Context, ids ...int) (int, error)
}

type Service struct {
	repo     Repository
	courses  *course.Service
	users    *user.Service
	validate *validator.Validate
}

func NewService(repo Repository, courses *course.Service, users *user.Service, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		courses:  courses,
		users:    users,
		validate: validate,
	}
}

// ResolveStudent returns the student a record created or replaced by actor belongs to.
// Only admins may pick a student other than themselves; others always get their own ID.
func ResolveStudent(ctx context.Context, users *user.Service, actor user.User, requested, current int) (int, error) {
	if !actor.IsAdmin {
		if current != 0 {
			return current, nil
		}
		return actor.ID, nil
	}
	if requested == 0 {
		if current != 0 {
			return current, nil
		}
		return actor.ID, nil
	}
	if requested != actor.ID {
		if _, err := users.GetByID(ctx, requested); err != nil {
			if core.IsNotFound(err) {
				return 0, core.NewInvalidPKError("student", requested)
			}
			return 0, errors.Wrap(err, "getting student")
		}
	}
	return requested, nil
}

// CheckStudent fails unless actor is the student studentID or an admin.
func CheckStudent(actor user.User, studentID int) error {
	if actor.IsAdmin || actor.ID == studentID {
		return nil
	}
	return core.NewPermissionError(errNotStudent)
}

// Enrollments

func (svc *Service) CreateEnrollment(ctx context.Context, actor user.User, ne NewEnrollment) (Enrollment, error) {
	if err := ne.Validate(svc.validate); err != nil {
		return Enrollment{}, err
	}
	studentID, err := ResolveStudent(ctx, svc.users, actor, ne.Student, 0)
	if err != nil {
		return Enrollment{}, err
	}
	if _, err = svc.courses.GetReference(ctx, "course", ne.Course); err != nil {
		return Enrollment{}, err
	}

	enr, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  studentID,
		CourseID:   ne.Course,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		return Enrollment{}, enrollmentError(err, ne.Course, "creating enrollment")
	}
	return enr, nil
}

func (svc *Service) QueryEnrollments(ctx context.Context, filter *EnrollmentFilter, ordering []core.DBOrdering) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter, core.AllowedOrderings(ordering, EnrollmentOrderings))
}

func (svc *Service) GetEnrollmentByID(ctx context.Context, id int) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, id)
}

func (svc *Service) UpdateEnrollment(ctx context.Context, actor user.User, enr Enrollment, ne NewEnrollment) (Enrollment, error) {
	if err := CheckStudent(actor, enr.StudentID); err != nil {
		return Enrollment{}, err
	}
	if err := ne.Validate(svc.validate); err != nil {
		return Enrollment{}, err
	}
	studentID, err := ResolveStudent(ctx, svc.users, actor, ne.Student, enr.StudentID)
	if err != nil {
		return Enrollment{}, err
	}
	if ne.Course != enr.CourseID {
		if _, err = svc.courses.GetReference(ctx, "course", ne.Course); err != nil {
			return Enrollment{}, err
		}
	}

	enr.StudentID = studentID
	enr.CourseID = ne.Course
	enr, err = svc.repo.UpdateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, enrollmentError(err, ne.Course, "updating enrollment")
	}
	return enr, nil
}

// DeleteEnrollment is allowed to the student, the instructor of the course and admins.
func (svc *Service) DeleteEnrollment(ctx context.Context, actor user.User, enr Enrollment) error {
	if err := CheckStudent(actor, enr.StudentID); err != nil {
		crs, cErr := svc.courses.GetByID(ctx, enr.CourseID)
		if cErr != nil {
			return errors.Wrap(cErr, "getting enrollment course")
		}
		if svc.courses.CheckOwner(actor, crs) != nil {
			return err
		}
	}
	_, err := svc.repo.DeleteEnrollmentsByID(ctx, enr.ID)
	return errors.Wrap(err, "deleting enrollment")
}

func enrollmentError(err error, courseID int, msg string) error {
	switch errors.Cause(err) {
	case core.ErrUniqueViolation:
		return core.NewUniqueTogetherError("student", "course")
	case core.ErrForeignKeyViolation:
		return core.NewInvalidPKError("course", courseID)
	}
	return errors.Wrap(err, msg)
}

// Progress

func (svc *Service) CreateProgress(ctx context.Context, actor user.User, np NewProgress) (Progress, error) {
	if err := np.Validate(svc.validate); err != nil {
		return Progress{}, err
	}
	studentID, err := ResolveStudent(ctx, svc.users, actor, np.Student, 0)
	if err != nil {
		return Progress{}, err
	}
	if _, err = svc.courses.GetLessonReference(ctx, "lesson", np.Lesson); err != nil {
		return Progress{}, err
	}

	prg, err := svc.repo.CreateProgress(ctx, Progress{
		StudentID:   studentID,
		LessonID:    np.Lesson,
		Completed:   np.Completed,
		CompletedAt: np.CompletedAt,
	})
	if err != nil {
		return Progress{}, progressError(err, np.Lesson, "creating progress")
	}
	return prg, nil
}

func (svc *Service) QueryProgress(ctx context.Context, filter *ProgressFilter, ordering []core.DBOrdering) ([]Progress, error) {
	return svc.repo.QueryProgress(ctx, filter, core.AllowedOrderings(ordering, ProgressOrderings))
}

func (svc *Service) GetProgressByID(ctx context.Context, id int) (Progress, error) {
	return svc.repo.GetProgress(ctx, id)
}

func (svc *Service) UpdateProgress(ctx context.Context, actor user.User, prg Progress, np NewProgress) (Progress, error) {
	if err := CheckStudent(actor, prg.StudentID); err != nil {
		return Progress{}, err
	}
	if err := np.Validate(svc.validate); err != nil {
		return Progress{}, err
	}
	studentID, err := ResolveStudent(ctx, svc.users, actor, np.Student, prg.StudentID)
	if err != nil {
		return Progress{}, err
	}
	if np.Lesson != prg.LessonID {
		if _, err = svc.courses.GetLessonReference(ctx, "lesson", np.Lesson); err != nil {
			return Progress{}, err
		}
	}

	prg.StudentID = studentID
	prg.LessonID = np.Lesson
	prg.Completed = np.Completed
	prg.CompletedAt = np.CompletedAt
	prg, err = svc.repo.UpdateProgress(ctx, prg)
	if err != nil {
		return Progress{}, progressError(err, np.Lesson, "updating progress")
	}
	return prg, nil
}

func (svc *Service) DeleteProgress(ctx context.Context, actor user.User, prg Progress) error {
	if err := CheckStudent(actor, prg.StudentID); err != nil {
		return err
	}
	_, err := svc.repo.DeleteProgressByID(ctx, prg.ID)
	return errors.Wrap(err, "deleting progress")
}

func progressError(err error, lessonID int, msg string) error {
	switch errors.Cause(err) {
	case core.ErrUniqueViolation:
		return core.NewUniqueTogetherError("student", "lesson")
	case core.ErrForeignKeyViolation:
		return core.NewInvalidPKError("lesson", lessonID)
	}
	return errors.Wrap(err, msg)
}

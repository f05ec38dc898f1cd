package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

const (
	selectCourses = `SELECT c.id, c.title, c.description, c.instructor_id,
		u.username AS instructor_username, u.email AS instructor_email, u.is_instructor AS instructor_is_instructor
		FROM courses c JOIN users u ON u.id = c.instructor_id`
	lessonColumns = `id, course_id, title, content`
)

// courseRow is a course joined with its instructor.
type courseRow struct {
	course.Course
	InstructorUsername     string `db:"instructor_username"`
	InstructorEmail        string `db:"instructor_email"`
	InstructorIsInstructor bool   `db:"instructor_is_instructor"`
}

func (row courseRow) toCourse() course.Course {
	crs := row.Course
	crs.Instructor = user.Summary{
		ID:           crs.InstructorID,
		Username:     row.InstructorUsername,
		Email:        row.InstructorEmail,
		IsInstructor: row.InstructorIsInstructor,
	}
	return crs
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `INSERT INTO courses (title, description, instructor_id) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, crs.Title, crs.Description, crs.InstructorID).Scan(&crs.ID); err != nil {
		return course.Course{}, dbError(err)
	}
	return repo.GetCourse(ctx, crs.ID)
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var w where
	if filter != nil {
		if filter.Instructor != 0 {
			w.add(`c.instructor_id = ?`, filter.Instructor)
		}
		if filter.Search != "" {
			w.add(`(c.title ILIKE ? OR c.description ILIKE ?)`, likePattern(filter.Search))
		}
	}

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, selectCourses+w.String()+orderBy(ordering, "c."), w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, selectCourses+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `UPDATE courses SET title = $1, description = $2, instructor_id = $3 WHERE id = $4`
	n, err := rowsAffected(repo.db.ExecContext(ctx, q, crs.Title, crs.Description, crs.InstructorID, crs.ID))
	if err != nil {
		return course.Course{}, err
	}
	if n == 0 {
		return course.Course{}, course.ErrCourseNotFound
	}
	return repo.GetCourse(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...int) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		n, err = deleteCourses(ctx, tx, ids)
		return err
	})
	return n, err
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	q := `INSERT INTO lessons (course_id, title, content) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, lsn.CourseID, lsn.Title, lsn.Content).Scan(&lsn.ID); err != nil {
		return course.Lesson{}, dbError(err)
	}
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, filter *course.LessonFilter, ordering []core.DBOrdering) ([]course.Lesson, error) {
	var w where
	if filter != nil && filter.Course != 0 {
		w.add(`course_id = ?`, filter.Course)
	}

	lessons := make([]course.Lesson, 0)
	q := `SELECT ` + lessonColumns + ` FROM lessons` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &lessons, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting lessons")
	}
	return lessons, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id int) (course.Lesson, error) {
	var lsn course.Lesson
	if err := repo.db.GetContext(ctx, &lsn, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, errors.Wrap(err, "selecting lesson")
	}
	return lsn, nil
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	q := `UPDATE lessons SET course_id = :course_id, title = :title, content = :content WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, lsn))
	if err != nil {
		return course.Lesson{}, err
	}
	if n == 0 {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	return lsn, nil
}

func (repo *courseRepository) DeleteLessonsByID(ctx context.Context, ids ...int) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		n, err = deleteLessons(ctx, tx, ids)
		return err
	})
	return n, err
}

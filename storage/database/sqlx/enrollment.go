package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/enrollment"
)

const (
	enrollmentColumns = `id, student_id, course_id, enrolled_at`
	progressColumns   = `id, student_id, lesson_id, completed, completed_at`
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	q := `INSERT INTO enrollments (student_id, course_id, enrolled_at) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, enr.StudentID, enr.CourseID, enr.EnrolledAt).Scan(&enr.ID); err != nil {
		return enrollment.Enrollment{}, dbError(err)
	}
	return enr, nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.EnrollmentFilter, ordering []core.DBOrdering) ([]enrollment.Enrollment, error) {
	var w where
	if filter != nil {
		if filter.Student != 0 {
			w.add(`student_id = ?`, filter.Student)
		}
		if filter.Course != 0 {
			w.add(`course_id = ?`, filter.Course)
		}
	}

	enrollments := make([]enrollment.Enrollment, 0)
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &enrollments, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting enrollments")
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id int) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	if err := repo.db.GetContext(ctx, &enr, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrEnrollmentNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "selecting enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	q := `UPDATE enrollments SET student_id = :student_id, course_id = :course_id WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, enr))
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	if n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrEnrollmentNotFound
	}
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...int) (int, error) {
	return rowsAffected(repo.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ANY($1)`, int64s(ids)))
}

func (repo *enrollmentRepository) CreateProgress(ctx context.Context, prg enrollment.Progress) (enrollment.Progress, error) {
	q := `INSERT INTO progress (student_id, lesson_id, completed, completed_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, prg.StudentID, prg.LessonID, prg.Completed, prg.CompletedAt).Scan(&prg.ID); err != nil {
		return enrollment.Progress{}, dbError(err)
	}
	return prg, nil
}

func (repo *enrollmentRepository) QueryProgress(ctx context.Context, filter *enrollment.ProgressFilter, ordering []core.DBOrdering) ([]enrollment.Progress, error) {
	var w where
	if filter != nil {
		if filter.Student != 0 {
			w.add(`student_id = ?`, filter.Student)
		}
		if filter.Lesson != 0 {
			w.add(`lesson_id = ?`, filter.Lesson)
		}
	}

	records := make([]enrollment.Progress, 0)
	q := `SELECT ` + progressColumns + ` FROM progress` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &records, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	return records, nil
}

func (repo *enrollmentRepository) GetProgress(ctx context.Context, id int) (enrollment.Progress, error) {
	var prg enrollment.Progress
	if err := repo.db.GetContext(ctx, &prg, `SELECT `+progressColumns+` FROM progress WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Progress{}, enrollment.ErrProgressNotFound
		}
		return enrollment.Progress{}, errors.Wrap(err, "selecting progress")
	}
	return prg, nil
}

func (repo *enrollmentRepository) UpdateProgress(ctx context.Context, prg enrollment.Progress) (enrollment.Progress, error) {
	q := `UPDATE progress SET student_id = :student_id, lesson_id = :lesson_id, completed = :completed,
		completed_at = :completed_at WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, prg))
	if err != nil {
		return enrollment.Progress{}, err
	}
	if n == 0 {
		return enrollment.Progress{}, enrollment.ErrProgressNotFound
	}
	return prg, nil
}

func (repo *enrollmentRepository) DeleteProgressByID(ctx context.Context, ids ...int) (int, error) {
	return rowsAffected(repo.db.ExecContext(ctx, `DELETE FROM progress WHERE id = ANY($1)`, int64s(ids)))
}

package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) checkEnrollment(enr enrollment.Enrollment) error {
	if _, ok := repo.db.users[enr.StudentID]; !ok {
		return core.ErrForeignKeyViolation
	}
	if _, ok := repo.db.courses[enr.CourseID]; !ok {
		return core.ErrForeignKeyViolation
	}
	for _, e := range repo.db.enrollments {
		if e.StudentID == enr.StudentID && e.CourseID == enr.CourseID && e.ID != enr.ID {
			return core.ErrUniqueViolation
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkEnrollment(enr); err != nil {
		return enrollment.Enrollment{}, err
	}
	enr.ID = repo.db.nextID("enrollments")
	repo.db.enrollments[enr.ID] = enr
	return enr, nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter *enrollment.EnrollmentFilter, ordering []core.DBOrdering) ([]enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0, len(repo.db.enrollments))
	for _, enr := range repo.db.enrollments {
		if filter != nil {
			if filter.Student != 0 && enr.StudentID != filter.Student {
				continue
			}
			if filter.Course != 0 && enr.CourseID != filter.Course {
				continue
			}
		}
		enrollments = append(enrollments, enr)
	}
	sortObjects(enrollments, ordering)
	return enrollments, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id int) (enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if enr, ok := repo.db.enrollments[id]; ok {
		return enr, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrEnrollmentNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments[enr.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrEnrollmentNotFound
	}
	if err := repo.checkEnrollment(enr); err != nil {
		return enrollment.Enrollment{}, err
	}
	repo.db.enrollments[enr.ID] = enr
	return enr, nil
}

func (repo *enrollmentRepository) DeleteEnrollmentsByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	count := 0
	for _, id := range ids {
		if _, ok := repo.db.enrollments[id]; ok {
			delete(repo.db.enrollments, id)
			count++
		}
	}
	return count, nil
}

func (repo *enrollmentRepository) checkProgress(prg enrollment.Progress) error {
	if _, ok := repo.db.users[prg.StudentID]; !ok {
		return core.ErrForeignKeyViolation
	}
	if _, ok := repo.db.lessons[prg.LessonID]; !ok {
		return core.ErrForeignKeyViolation
	}
	for _, p := range repo.db.progress {
		if p.StudentID == prg.StudentID && p.LessonID == prg.LessonID && p.ID != prg.ID {
			return core.ErrUniqueViolation
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateProgress(ctx context.Context, prg enrollment.Progress) (enrollment.Progress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkProgress(prg); err != nil {
		return enrollment.Progress{}, err
	}
	prg.ID = repo.db.nextID("progress")
	repo.db.progress[prg.ID] = prg
	return prg, nil
}

func (repo *enrollmentRepository) QueryProgress(ctx context.Context, filter *enrollment.ProgressFilter, ordering []core.DBOrdering) ([]enrollment.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := make([]enrollment.Progress, 0, len(repo.db.progress))
	for _, prg := range repo.db.progress {
		if filter != nil {
			if filter.Student != 0 && prg.StudentID != filter.Student {
				continue
			}
			if filter.Lesson != 0 && prg.LessonID != filter.Lesson {
				continue
			}
		}
		records = append(records, prg)
	}
	sortObjects(records, ordering)
	return records, nil
}

func (repo *enrollmentRepository) GetProgress(ctx context.Context, id int) (enrollment.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if prg, ok := repo.db.progress[id]; ok {
		return prg, nil
	}
	return enrollment.Progress{}, enrollment.ErrProgressNotFound
}

func (repo *enrollmentRepository) UpdateProgress(ctx context.Context, prg enrollment.Progress) (enrollment.Progress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.progress[prg.ID]; !ok {
		return enrollment.Progress{}, enrollment.ErrProgressNotFound
	}
	if err := repo.checkProgress(prg); err != nil {
		return enrollment.Progress{}, err
	}
	repo.db.progress[prg.ID] = prg
	return prg, nil
}

func (repo *enrollmentRepository) DeleteProgressByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	count := 0
	for _, id := range ids {
		if _, ok := repo.db.progress[id]; ok {
			delete(repo.db.progress, id)
			count++
		}
	}
	return count, nil
}

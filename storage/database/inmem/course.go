package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// withInstructor sets the nested instructor of crs.
func (repo *courseRepository) withInstructor(crs course.Course) course.Course {
	if usr, ok := repo.db.users[crs.InstructorID]; ok {
		crs.Instructor = usr.Summary()
	}
	return crs
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[crs.InstructorID]; !ok {
		return course.Course{}, core.ErrForeignKeyViolation
	}
	crs.ID = repo.db.nextID("courses")
	repo.db.courses[crs.ID] = crs
	return repo.withInstructor(crs), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.CourseFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Instructor != 0 && crs.InstructorID != filter.Instructor {
				continue
			}
			if filter.Search != "" && !(containsFold(crs.Title, filter.Search) || containsFold(crs.Description, filter.Search)) {
				continue
			}
		}
		courses = append(courses, repo.withInstructor(crs))
	}
	sortObjects(courses, ordering)
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[id]; ok {
		return repo.withInstructor(crs), nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	if _, ok := repo.db.users[crs.InstructorID]; !ok {
		return course.Course{}, core.ErrForeignKeyViolation
	}
	repo.db.courses[crs.ID] = crs
	return repo.withInstructor(crs), nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.deleteCourses(ids), nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[lsn.CourseID]; !ok {
		return course.Lesson{}, core.ErrForeignKeyViolation
	}
	lsn.ID = repo.db.nextID("lessons")
	repo.db.lessons[lsn.ID] = lsn
	return lsn, nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, filter *course.LessonFilter, ordering []core.DBOrdering) ([]course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lessons := make([]course.Lesson, 0, len(repo.db.lessons))
	for _, lsn := range repo.db.lessons {
		if filter != nil && filter.Course != 0 && lsn.CourseID != filter.Course {
			continue
		}
		lessons = append(lessons, lsn)
	}
	sortObjects(lessons, ordering)
	return lessons, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id int) (course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lsn, ok := repo.db.lessons[id]; ok {
		return lsn, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.lessons[lsn.ID]; !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	if _, ok := repo.db.courses[lsn.CourseID]; !ok {
		return course.Lesson{}, core.ErrForeignKeyViolation
	}
	repo.db.lessons[lsn.ID] = lsn
	return lsn, nil
}

func (repo *courseRepository) DeleteLessonsByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.deleteLessons(ids), nil
}

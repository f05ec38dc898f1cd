package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/testutil"
)

// engines runs fn on every available storage engine.
// Postgres needs testutil.DatabaseURLEnv; it is skipped otherwise.
func engines(t *testing.T, fn func(t *testing.T, repos *database.Repositories)) {
	t.Run(database.EngineMemory, func(t *testing.T) {
		fn(t, database.NewMemoryRepositories(inmemdb.NewDB()))
	})
	t.Run(database.EnginePostgres, func(t *testing.T) {
		db := testutil.OpenDB(t)
		fn(t, database.NewPostgresRepositories(db))
	})
}

func usernames(users []user.User) []string {
	names := make([]string, 0, len(users))
	for _, usr := range users {
		names = append(names, usr.Username)
	}
	return names
}

func Test_userRepository(t *testing.T) {
	engines(t, func(t *testing.T, repos *database.Repositories) {
		ctx := context.Background()
		awe := testutil.CreateUser(t, repos.Users, "awe", "awe@test.cd", "pwd", false, false, true)
		teacher := testutil.CreateUser(t, repos.Users, "teacher", "KING@test.cd", "", true, false, true)
		ndog := testutil.CreateUser(t, repos.Users, "ndog", "", "pwd", false, false, false)

		t.Run("unique username", func(t *testing.T) {
			_, err := repos.Users.CreateUser(ctx, user.User{Username: "awe", CreatedAt: awe.CreatedAt, UpdatedAt: awe.UpdatedAt})
			assert.Equal(t, core.ErrUniqueViolation, err)

			assert.Equal(t, user.ErrUsernameExists, repos.Users.CheckUsernameUniqueness(ctx, "awe"))
			assert.NoError(t, repos.Users.CheckUsernameUniqueness(ctx, "awe", awe))
			assert.NoError(t, repos.Users.CheckUsernameUniqueness(ctx, "lol"))

			renamed := ndog
			renamed.Username = "awe"
			_, err = repos.Users.UpdateUser(ctx, renamed)
			assert.Equal(t, core.ErrUniqueViolation, err)
		})

		t.Run("get", func(t *testing.T) {
			usr, err := repos.Users.GetUser(ctx, user.GetFilter{Username: "teacher"})
			require.NoError(t, err)
			assert.Equal(t, teacher.ID, usr.ID)
			assert.Empty(t, usr.PasswordHash)

			usr, err = repos.Users.GetUser(ctx, user.GetFilter{ID: awe.ID})
			require.NoError(t, err)
			assert.NoError(t, usr.CheckPassword("pwd"))

			_, err = repos.Users.GetUser(ctx, user.GetFilter{ID: 999})
			assert.Equal(t, user.ErrNotFound, err)
			_, err = repos.Users.GetUser(ctx, user.GetFilter{})
			assert.Equal(t, user.ErrNotFound, err)
		})

		t.Run("query", func(t *testing.T) {
			yes, no := true, false
			tests := []struct {
				name     string
				filter   *user.QueryFilter
				ordering []core.DBOrdering
				want     []string
			}{
				{name: "all", want: []string{"awe", "teacher", "ndog"}},
				{name: "search email, case-insensitive", filter: &user.QueryFilter{Search: "king"}, want: []string{"teacher"}},
				{name: "search username", filter: &user.QueryFilter{Search: "DO"}, want: []string{"ndog"}},
				{name: "instructors", filter: &user.QueryFilter{IsInstructor: &yes}, want: []string{"teacher"}},
				{name: "inactive", filter: &user.QueryFilter{IsActive: &no}, want: []string{"ndog"}},
				{name: "by username", ordering: []core.DBOrdering{{Field: "username", Ascending: true}}, want: []string{"awe", "ndog", "teacher"}},
				{name: "by active, desc", ordering: []core.DBOrdering{{Field: "is_active"}}, want: []string{"awe", "teacher", "ndog"}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					users, err := repos.Users.QueryUsers(ctx, tt.filter, tt.ordering)
					require.NoError(t, err)
					assert.Equal(t, tt.want, usernames(users))
				})
			}
		})

		t.Run("update", func(t *testing.T) {
			usr := awe
			usr.Email = "new@test.cd"
			_, err := repos.Users.UpdateUser(ctx, usr)
			require.NoError(t, err)

			got, err := repos.Users.GetUser(ctx, user.GetFilter{ID: awe.ID})
			require.NoError(t, err)
			assert.Equal(t, "new@test.cd", got.Email)

			_, err = repos.Users.UpdateUser(ctx, user.User{ID: 999, Username: "lol"})
			assert.Equal(t, user.ErrNotFound, err)
		})
	})
}

func Test_courseRepository(t *testing.T) {
	engines(t, func(t *testing.T, repos *database.Repositories) {
		ctx := context.Background()
		teacher := testutil.CreateUser(t, repos.Users, "teacher", "teacher@test.cd", "", true, false, true)
		goCrs := testutil.CreateCourse(t, repos.Courses, teacher, "Go")
		testutil.CreateCourse(t, repos.Courses, teacher, "Python")

		assert.Equal(t, teacher.Summary(), goCrs.Instructor, "the instructor is nested")

		_, err := repos.Courses.CreateCourse(ctx, course.Course{Title: "lol", Description: "lol", InstructorID: 999})
		assert.Equal(t, core.ErrForeignKeyViolation, err)
		_, err = repos.Courses.CreateLesson(ctx, course.Lesson{CourseID: 999, Title: "lol", Content: "lol"})
		assert.Equal(t, core.ErrForeignKeyViolation, err)

		courses, err := repos.Courses.QueryCourses(ctx, &course.CourseFilter{Search: "PYTHON desc"}, nil)
		require.NoError(t, err)
		require.Len(t, courses, 1)
		assert.Equal(t, "Python", courses[0].Title)

		for _, search := range []string{"%", "_", `\`} {
			courses, err = repos.Courses.QueryCourses(ctx, &course.CourseFilter{Search: search}, nil)
			require.NoError(t, err)
			assert.Empty(t, courses, "wildcards are matched literally: %q", search)
		}

		courses, err = repos.Courses.QueryCourses(ctx, nil, []core.DBOrdering{{Field: "title"}})
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, "Python", courses[0].Title)
		assert.Equal(t, teacher.Summary(), courses[1].Instructor)

		lsn := testutil.CreateLesson(t, repos.Courses, goCrs, "Goroutines")
		lessons, err := repos.Courses.QueryLessons(ctx, &course.LessonFilter{Course: goCrs.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, []course.Lesson{lsn}, lessons)

		crs := goCrs
		crs.Title = "Golang"
		crs, err = repos.Courses.UpdateCourse(ctx, crs)
		require.NoError(t, err)
		assert.Equal(t, "Golang", crs.Title)
		assert.Equal(t, teacher.Summary(), crs.Instructor)

		_, err = repos.Courses.GetCourse(ctx, 999)
		assert.Equal(t, course.ErrCourseNotFound, err)
		_, err = repos.Courses.UpdateLesson(ctx, course.Lesson{ID: 999, CourseID: goCrs.ID})
		assert.Equal(t, course.ErrLessonNotFound, err)
	})
}

func Test_enrollmentRepository(t *testing.T) {
	engines(t, func(t *testing.T, repos *database.Repositories) {
		ctx := context.Background()
		teacher := testutil.CreateUser(t, repos.Users, "teacher", "", "", true, false, true)
		student := testutil.CreateUser(t, repos.Users, "student", "", "", false, false, true)
		crs := testutil.CreateCourse(t, repos.Courses, teacher, "Go")
		lsn := testutil.CreateLesson(t, repos.Courses, crs, "Goroutines")

		enr := testutil.CreateEnrollment(t, repos.Enrollments, student, crs)
		_, err := repos.Enrollments.CreateEnrollment(ctx, enrollment.Enrollment{StudentID: student.ID, CourseID: crs.ID, EnrolledAt: enr.EnrolledAt})
		assert.Equal(t, core.ErrUniqueViolation, err)
		_, err = repos.Enrollments.CreateEnrollment(ctx, enrollment.Enrollment{StudentID: student.ID, CourseID: 999, EnrolledAt: enr.EnrolledAt})
		assert.Equal(t, core.ErrForeignKeyViolation, err)

		// re-saving an enrollment does not collide with itself
		_, err = repos.Enrollments.UpdateEnrollment(ctx, enr)
		assert.NoError(t, err)

		testutil.CreateProgress(t, repos.Enrollments, student, lsn)
		_, err = repos.Enrollments.CreateProgress(ctx, enrollment.Progress{StudentID: student.ID, LessonID: lsn.ID})
		assert.Equal(t, core.ErrUniqueViolation, err)

		enrollments, err := repos.Enrollments.QueryEnrollments(ctx, &enrollment.EnrollmentFilter{Course: crs.ID}, nil)
		require.NoError(t, err)
		require.Len(t, enrollments, 1)
		assert.Equal(t, student.ID, enrollments[0].StudentID)

		n, err := repos.Enrollments.DeleteEnrollmentsByID(ctx, enr.ID, 999)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = repos.Enrollments.GetEnrollment(ctx, enr.ID)
		assert.Equal(t, enrollment.ErrEnrollmentNotFound, err)
	})
}

func Test_cascadeDelete(t *testing.T) {
	engines(t, func(t *testing.T, repos *database.Repositories) {
		ctx := context.Background()
		teacher := testutil.CreateUser(t, repos.Users, "teacher", "", "", true, false, true)
		student := testutil.CreateUser(t, repos.Users, "student", "", "", false, false, true)
		crs := testutil.CreateCourse(t, repos.Courses, teacher, "Go")
		lsn := testutil.CreateLesson(t, repos.Courses, crs, "Goroutines")
		qz := testutil.CreateQuiz(t, repos.Quizzes, crs, "Basics")
		qn := testutil.CreateQuestion(t, repos.Quizzes, qz, "2+2?", "4")
		ans := testutil.CreateAnswer(t, repos.Quizzes, student, qn, "4")
		enr := testutil.CreateEnrollment(t, repos.Enrollments, student, crs)
		prg := testutil.CreateProgress(t, repos.Enrollments, student, lsn)
		assert.True(t, ans.IsCorrect)

		t.Run("student", func(t *testing.T) {
			other := testutil.CreateUser(t, repos.Users, "other", "", "", false, false, true)
			otherEnr := testutil.CreateEnrollment(t, repos.Enrollments, other, crs)
			otherAns := testutil.CreateAnswer(t, repos.Quizzes, other, qn, "5")

			n, err := repos.Users.DeleteUsersByID(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = repos.Enrollments.GetEnrollment(ctx, otherEnr.ID)
			assert.Equal(t, enrollment.ErrEnrollmentNotFound, err)
			_, err = repos.Quizzes.GetAnswer(ctx, otherAns.ID)
			assert.Equal(t, quiz.ErrAnswerNotFound, err)
			_, err = repos.Courses.GetCourse(ctx, crs.ID)
			assert.NoError(t, err, "the course is kept")
		})

		t.Run("instructor", func(t *testing.T) {
			n, err := repos.Users.DeleteUsersByID(ctx, teacher.ID, 999)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			_, err = repos.Courses.GetCourse(ctx, crs.ID)
			assert.Equal(t, course.ErrCourseNotFound, err)
			_, err = repos.Courses.GetLesson(ctx, lsn.ID)
			assert.Equal(t, course.ErrLessonNotFound, err)
			_, err = repos.Quizzes.GetQuiz(ctx, qz.ID)
			assert.Equal(t, quiz.ErrQuizNotFound, err)
			_, err = repos.Quizzes.GetQuestion(ctx, qn.ID)
			assert.Equal(t, quiz.ErrQuestionNotFound, err)
			_, err = repos.Quizzes.GetAnswer(ctx, ans.ID)
			assert.Equal(t, quiz.ErrAnswerNotFound, err)
			_, err = repos.Enrollments.GetEnrollment(ctx, enr.ID)
			assert.Equal(t, enrollment.ErrEnrollmentNotFound, err)
			_, err = repos.Enrollments.GetProgress(ctx, prg.ID)
			assert.Equal(t, enrollment.ErrProgressNotFound, err)

			_, err = repos.Users.GetUser(ctx, user.GetFilter{ID: student.ID})
			assert.NoError(t, err, "the student is kept")
		})
	})
}

func Test_NewRepositories_unknownEngine(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Database.Engine = "lol"
	_, err := database.NewRepositories(conf, false)
	assert.EqualError(t, err, `unknown database engine "lol"`)

	conf.Database.Engine = database.EngineMemory
	repos, err := database.NewRepositories(conf, false)
	require.NoError(t, err)
	assert.Nil(t, repos.DB)
	assert.NoError(t, repos.Close())
}

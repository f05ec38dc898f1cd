// Package testutil holds the helpers shared by the tests of every package.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
)

// DatabaseURLEnv names the env var holding the DSN of the Postgres test database.
const DatabaseURLEnv = "TEST_DATABASE_URL"

func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "Darasa",
		Build:            "test",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:8000",
		DefaultFromEmail: "noreply@darasa.test",
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      8000,
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			AllowedOrigins:            []string{"*"},
		},
		Database: core.DatabaseConfig{Engine: database.EngineMemory},
		Throttle: core.ThrottleConfig{Attempts: 3, Window: time.Minute},
	}
}

// NewValidator returns a validator set up like the app's.
func NewValidator() *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	return validate
}

// OpenDB opens & migrates the Postgres test database, skipping the test when it is not configured.
// Every table is emptied.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", DatabaseURLEnv)
	}
	db, err := database.OpenURL(dsn)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		t.Fatalf("OpenDB() failed to migrate: %v", err)
	}
	ResetDB(t, db)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	t.Helper()
	q := `TRUNCATE TABLE answers, questions, quizzes, progress, lessons, enrollments, courses, users RESTART IDENTITY`
	if _, err := db.Exec(q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateUser(t *testing.T, repo user.Repository, uname, email, pwd string, isInstructor, isAdmin, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Username:     uname,
		Email:        email,
		IsInstructor: isInstructor,
		IsAdmin:      isAdmin,
		IsActive:     isActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, instructor user.User, title string) course.Course {
	t.Helper()
	crs, err := repo.CreateCourse(context.Background(), course.Course{
		Title:        title,
		Description:  title + " description",
		InstructorID: instructor.ID,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateLesson(t *testing.T, repo course.Repository, crs course.Course, title string) course.Lesson {
	t.Helper()
	lsn, err := repo.CreateLesson(context.Background(), course.Lesson{CourseID: crs.ID, Title: title, Content: title + " content"})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

func CreateEnrollment(t *testing.T, repo enrollment.Repository, student user.User, crs course.Course) enrollment.Enrollment {
	t.Helper()
	enr, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		StudentID:  student.ID,
		CourseID:   crs.ID,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateProgress(t *testing.T, repo enrollment.Repository, student user.User, lsn course.Lesson) enrollment.Progress {
	t.Helper()
	prg, err := repo.CreateProgress(context.Background(), enrollment.Progress{StudentID: student.ID, LessonID: lsn.ID})
	if err != nil {
		t.Fatalf("CreateProgress() failed: %v", err)
	}
	return prg
}

func CreateQuiz(t *testing.T, repo quiz.Repository, crs course.Course, title string) quiz.Quiz {
	t.Helper()
	qz, err := repo.CreateQuiz(context.Background(), quiz.Quiz{CourseID: crs.ID, Title: title})
	if err != nil {
		t.Fatalf("CreateQuiz() failed: %v", err)
	}
	return qz
}

func CreateQuestion(t *testing.T, repo quiz.Repository, qz quiz.Quiz, text, correct string) quiz.Question {
	t.Helper()
	qn, err := repo.CreateQuestion(context.Background(), quiz.Question{QuizID: qz.ID, Text: text, CorrectAnswer: correct})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return qn
}

func CreateAnswer(t *testing.T, repo quiz.Repository, student user.User, qn quiz.Question, text string) quiz.Answer {
	t.Helper()
	ans := quiz.Answer{StudentID: student.ID, QuestionID: qn.ID, AnswerText: text}
	ans.Check(qn)
	ans, err := repo.CreateAnswer(context.Background(), ans)
	if err != nil {
		t.Fatalf("CreateAnswer() failed: %v", err)
	}
	return ans
}

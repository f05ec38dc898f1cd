package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

type Enrollment struct {
	ID         int       `json:"id" db:"id"`
	StudentID  int       `json:"student" db:"student_id"`
	CourseID   int       `json:"course" db:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"` // UTC
}

// NewEnrollment contains information needed to create or replace an Enrollment.
// Student defaults to the requester and may only be set by admins.
type NewEnrollment struct {
	Student int `json:"student"`
	Course  int `json:"course" validate:"required"`
}

func NewEnrollmentFrom(enr Enrollment) NewEnrollment {
	return NewEnrollment{Student: enr.StudentID, Course: enr.CourseID}
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	return validate.Struct(ne)
}

type EnrollmentFilter struct {
	Student int `query:"student"`
	Course  int `query:"course"`
}

var EnrollmentOrderings = map[string]string{
	"id":          "id",
	"student":     "student_id",
	"course":      "course_id",
	"enrolled_at": "enrolled_at",
}

type Progress struct {
	ID          int       `json:"id" db:"id"`
	StudentID   int       `json:"student" db:"student_id"`
	LessonID    int       `json:"lesson" db:"lesson_id"`
	Completed   bool      `json:"completed" db:"completed"`
	CompletedAt null.Time `json:"completed_at" db:"completed_at"` // UTC
}

// NewProgress contains information needed to create or replace a Progress record.
type NewProgress struct {
	Student     int       `json:"student"`
	Lesson      int       `json:"lesson" validate:"required"`
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completed_at"`
}

func NewProgressFrom(prg Progress) NewProgress {
	return NewProgress{
		Student:     prg.StudentID,
		Lesson:      prg.LessonID,
		Completed:   prg.Completed,
		CompletedAt: prg.CompletedAt,
	}
}

func (np *NewProgress) Validate(validate *validator.Validate) error {
	if np.Completed && !np.CompletedAt.Valid {
		np.CompletedAt = null.TimeFrom(time.Now().UTC())
	}
	return validate.Struct(np)
}

type ProgressFilter struct {
	Student int `query:"student"`
	Lesson  int `query:"lesson"`
}

var ProgressOrderings = map[string]string{
	"id":           "id",
	"student":      "student_id",
	"lesson":       "lesson_id",
	"completed_at": "completed_at",
}

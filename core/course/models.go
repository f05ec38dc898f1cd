package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type Course struct {
	ID           int          `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	Description  string       `json:"description" db:"description"`
	InstructorID int          `json:"-" db:"instructor_id"`
	Instructor   user.Summary `json:"instructor" db:"-"`
}

// NewCourse contains information needed to create or replace a Course.
// The instructor is always the requester.
type NewCourse struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}

// NewCourseFrom returns the NewCourse matching crs; used to apply partial updates.
func NewCourseFrom(crs Course) NewCourse {
	return NewCourse{Title: crs.Title, Description: crs.Description}
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}

type CourseFilter struct {
	Search     string `query:"search"`
	Instructor int    `query:"instructor"`
}

func (cf *CourseFilter) Clean() {
	cf.Search = core.CleanString(cf.Search)
}

// CourseOrderings maps the fields courses can be ordered by to their columns.
var CourseOrderings = map[string]string{
	"id":         "id",
	"title":      "title",
	"instructor": "instructor_id",
}

type Lesson struct {
	ID       int    `json:"id" db:"id"`
	CourseID int    `json:"course" db:"course_id"`
	Title    string `json:"title" db:"title"`
	Content  string `json:"content" db:"content"`
}

// NewLesson contains information needed to create or replace a Lesson.
type NewLesson struct {
	Course  int    `json:"course" validate:"required"`
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

func NewLessonFrom(lsn Lesson) NewLesson {
	return NewLesson{Course: lsn.CourseID, Title: lsn.Title, Content: lsn.Content}
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	return validate.Struct(nl)
}

type LessonFilter struct {
	Course int `query:"course"`
}

var LessonOrderings = map[string]string{
	"id":     "id",
	"title":  "title",
	"course": "course_id",
}

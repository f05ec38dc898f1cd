package quiz

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

type Quiz struct {
	ID       int    `json:"id" db:"id"`
	CourseID int    `json:"course" db:"course_id"`
	Title    string `json:"title" db:"title"`
}

// NewQuiz contains information needed to create or replace a Quiz.
type NewQuiz struct {
	Course int    `json:"course" validate:"required"`
	Title  string `json:"title" validate:"required,max=255"`
}

func NewQuizFrom(qz Quiz) NewQuiz {
	return NewQuiz{Course: qz.CourseID, Title: qz.Title}
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	return validate.Struct(nq)
}

type QuizFilter struct {
	Course int `query:"course"`
}

var QuizOrderings = map[string]string{
	"id":     "id",
	"title":  "title",
	"course": "course_id",
}

type Question struct {
	ID            int    `json:"id" db:"id"`
	QuizID        int    `json:"quiz" db:"quiz_id"`
	Text          string `json:"text" db:"text"`
	CorrectAnswer string `json:"correct_answer" db:"correct_answer"`
}

// NewQuestion contains information needed to create or replace a Question.
type NewQuestion struct {
	Quiz          int    `json:"quiz" validate:"required"`
	Text          string `json:"text" validate:"required"`
	CorrectAnswer string `json:"correct_answer" validate:"required,max=255"`
}

func NewQuestionFrom(qn Question) NewQuestion {
	return NewQuestion{Quiz: qn.QuizID, Text: qn.Text, CorrectAnswer: qn.CorrectAnswer}
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	return validate.Struct(nq)
}

type QuestionFilter struct {
	Quiz int `query:"quiz"`
}

var QuestionOrderings = map[string]string{
	"id":   "id",
	"quiz": "quiz_id",
}

type Answer struct {
	ID         int    `json:"id" db:"id"`
	StudentID  int    `json:"student" db:"student_id"`
	QuestionID int    `json:"question" db:"question_id"`
	AnswerText string `json:"answer_text" db:"answer_text"`
	IsCorrect  bool   `json:"is_correct" db:"is_correct"`
}

// Check sets IsCorrect by comparing AnswerText to the correct answer of qn, as is.
func (a *Answer) Check(qn Question) {
	a.IsCorrect = a.AnswerText == qn.CorrectAnswer
}

// NewAnswer contains information needed to create or replace an Answer.
// `is_correct` is not accepted: it is always computed.
type NewAnswer struct {
	Student    int    `json:"student"`
	Question   int    `json:"question" validate:"required"`
	AnswerText string `json:"answer_text" validate:"required,max=255"`
}

func NewAnswerFrom(ans Answer) NewAnswer {
	return NewAnswer{Student: ans.StudentID, Question: ans.QuestionID, AnswerText: ans.AnswerText}
}

func (na *NewAnswer) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type AnswerFilter struct {
	Student  int `query:"student"`
	Question int `query:"question"`
}

var AnswerOrderings = map[string]string{
	"id":       "id",
	"student":  "student_id",
	"question": "question_id",
}

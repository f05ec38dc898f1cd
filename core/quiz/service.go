package quiz

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrQuizNotFound     = core.NewNotFoundError("quiz")
	ErrQuestionNotFound = core.NewNotFoundError("question")
	ErrAnswerNotFound   = core.NewNotFoundError("answer")
)

type Repository interface {
	CreateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
	QueryQuizzes(ctx context.Context, filter *QuizFilter, ordering []core.DBOrdering) ([]Quiz, error)
	GetQuiz(ctx context.Context, id int) (Quiz, error)
	UpdateQuiz(ctx context.Context, qz Quiz) (Quiz, error)
	// DeleteQuizzesByID also deletes the questions of the quizzes and their answers.
	DeleteQuizzesByID(ctx context.Context, ids ...int) (int, error)

	CreateQuestion(ctx context.Context, qn Question) (Question, error)
	QueryQuestions(ctx context.Context, filter *QuestionFilter, ordering []core.DBOrdering) ([]Question, error)
	GetQuestion(ctx context.Context, id int) (Question, error)
	UpdateQuestion(ctx context.Context, qn Question) (Question, error)
	// DeleteQuestionsByID also deletes the answers to the questions.
	DeleteQuestionsByID(ctx context.Context, ids ...int) (int, error)

	CreateAnswer(ctx context.Context, ans Answer) (Answer, error)
	QueryAnswers(ctx context.Context, filter *AnswerFilter, ordering []core.DBOrdering) ([]Answer, error)
	GetAnswer(ctx context.Context, id int) (Answer, error)
	UpdateAnswer(ctx context.Context, ans Answer) (Answer, error)
	DeleteAnswersByID(ctx context.Context, ids ...int) (int, error)
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

// checkCourseOwner fails unless actor owns the course courseID.
func (svc *Service) checkCourseOwner(ctx context.Context, actor user.User, courseID int) error {
	if actor.IsAdmin {
		return nil
	}
	crs, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return svc.courses.CheckOwner(actor, crs)
}

func (svc *Service) getQuizReference(ctx context.Context, id int) (Quiz, error) {
	qz, err := svc.repo.GetQuiz(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Quiz{}, core.NewInvalidPKError("quiz", id)
		}
		return Quiz{}, errors.Wrap(err, "getting quiz")
	}
	return qz, nil
}

func (svc *Service) getQuestionReference(ctx context.Context, id int) (Question, error) {
	qn, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Question{}, core.NewInvalidPKError("question", id)
		}
		return Question{}, errors.Wrap(err, "getting question")
	}
	return qn, nil
}

func referenceError(err error, fld string, id int, msg string) error {
	if errors.Cause(err) == core.ErrForeignKeyViolation {
		return core.NewInvalidPKError(fld, id)
	}
	return errors.Wrap(err, msg)
}

// Quizzes

func (svc *Service) CreateQuiz(ctx context.Context, actor user.User, nq NewQuiz) (Quiz, error) {
	if err := nq.Validate(svc.validate); err != nil {
		return Quiz{}, err
	}
	crs, err := svc.courses.GetReference(ctx, "course", nq.Course)
	if err != nil {
		return Quiz{}, err
	}
	if err = svc.courses.CheckOwner(actor, crs); err != nil {
		return Quiz{}, err
	}

	qz, err := svc.repo.CreateQuiz(ctx, Quiz{CourseID: crs.ID, Title: nq.Title})
	if err != nil {
		return Quiz{}, referenceError(err, "course", nq.Course, "creating quiz")
	}
	return qz, nil
}

func (svc *Service) QueryQuizzes(ctx context.Context, filter *QuizFilter, ordering []core.DBOrdering) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, filter, core.AllowedOrderings(ordering, QuizOrderings))
}

func (svc *Service) GetQuizByID(ctx context.Context, id int) (Quiz, error) {
	return svc.repo.GetQuiz(ctx, id)
}

func (svc *Service) UpdateQuiz(ctx context.Context, actor user.User, qz Quiz, nq NewQuiz) (Quiz, error) {
	if err := svc.checkCourseOwner(ctx, actor, qz.CourseID); err != nil {
		return Quiz{}, err
	}
	if err := nq.Validate(svc.validate); err != nil {
		return Quiz{}, err
	}
	if nq.Course != qz.CourseID {
		crs, err := svc.courses.GetReference(ctx, "course", nq.Course)
		if err != nil {
			return Quiz{}, err
		}
		if err = svc.courses.CheckOwner(actor, crs); err != nil {
			return Quiz{}, err
		}
	}

	qz.CourseID = nq.Course
	qz.Title = nq.Title
	qz, err := svc.repo.UpdateQuiz(ctx, qz)
	if err != nil {
		return Quiz{}, referenceError(err, "course", nq.Course, "updating quiz")
	}
	return qz, nil
}

func (svc *Service) DeleteQuiz(ctx context.Context, actor user.User, qz Quiz) error {
	if err := svc.checkCourseOwner(ctx, actor, qz.CourseID); err != nil {
		return err
	}
	_, err := svc.repo.DeleteQuizzesByID(ctx, qz.ID)
	return errors.Wrap(err, "deleting quiz")
}

// Questions

func (svc *Service) CreateQuestion(ctx context.Context, actor user.User, nq NewQuestion) (Question, error) {
	if err := nq.Validate(svc.validate); err != nil {
		return Question{}, err
	}
	qz, err := svc.getQuizReference(ctx, nq.Quiz)
	if err != nil {
		return Question{}, err
	}
	if err = svc.checkCourseOwner(ctx, actor, qz.CourseID); err != nil {
		return Question{}, err
	}

	qn, err := svc.repo.CreateQuestion(ctx, Question{QuizID: qz.ID, Text: nq.Text, CorrectAnswer: nq.CorrectAnswer})
	if err != nil {
		return Question{}, referenceError(err, "quiz", nq.Quiz, "creating question")
	}
	return qn, nil
}

func (svc *Service) QueryQuestions(ctx context.Context, filter *QuestionFilter, ordering []core.DBOrdering) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter, core.AllowedOrderings(ordering, QuestionOrderings))
}

func (svc *Service) GetQuestionByID(ctx context.Context, id int) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *Service) checkQuestionOwner(ctx context.Context, actor user.User, qn Question) error {
	if actor.IsAdmin {
		return nil
	}
	qz, err := svc.repo.GetQuiz(ctx, qn.QuizID)
	if err != nil {
		return errors.Wrap(err, "getting question quiz")
	}
	return svc.checkCourseOwner(ctx, actor, qz.CourseID)
}

func (svc *Service) UpdateQuestion(ctx context.Context, actor user.User, qn Question, nq NewQuestion) (Question, error) {
	if err := svc.checkQuestionOwner(ctx, actor, qn); err != nil {
		return Question{}, err
	}
	if err := nq.Validate(svc.validate); err != nil {
		return Question{}, err
	}
	if nq.Quiz != qn.QuizID {
		qz, err := svc.getQuizReference(ctx, nq.Quiz)
		if err != nil {
			return Question{}, err
		}
		if err = svc.checkCourseOwner(ctx, actor, qz.CourseID); err != nil {
			return Question{}, err
		}
	}

	qn.QuizID = nq.Quiz
	qn.Text = nq.Text
	qn.CorrectAnswer = nq.CorrectAnswer
	qn, err := svc.repo.UpdateQuestion(ctx, qn)
	if err != nil {
		return Question{}, referenceError(err, "quiz", nq.Quiz, "updating question")
	}
	return qn, nil
}

func (svc *Service) DeleteQuestion(ctx context.Context, actor user.User, qn Question) error {
	if err := svc.checkQuestionOwner(ctx, actor, qn); err != nil {
		return err
	}
	_, err := svc.repo.DeleteQuestionsByID(ctx, qn.ID)
	return errors.Wrap(err, "deleting question")
}

// Answers

func (svc *Service) CreateAnswer(ctx context.Context, actor user.User, na NewAnswer) (Answer, error) {
	if err := na.Validate(svc.validate); err != nil {
		return Answer{}, err
	}
	studentID, err := enrollment.ResolveStudent(ctx, svc.users, actor, na.Student, 0)
	if err != nil {
		return Answer{}, err
	}
	qn, err := svc.getQuestionReference(ctx, na.Question)
	if err != nil {
		return Answer{}, err
	}

	ans := Answer{StudentID: studentID, QuestionID: qn.ID, AnswerText: na.AnswerText}
	ans.Check(qn)
	ans, err = svc.repo.CreateAnswer(ctx, ans)
	if err != nil {
		return Answer{}, referenceError(err, "question", na.Question, "creating answer")
	}
	return ans, nil
}

func (svc *Service) QueryAnswers(ctx context.Context, filter *AnswerFilter, ordering []core.DBOrdering) ([]Answer, error) {
	return svc.repo.QueryAnswers(ctx, filter, core.AllowedOrderings(ordering, AnswerOrderings))
}

func (svc *Service) GetAnswerByID(ctx context.Context, id int) (Answer, error) {
	return svc.repo.GetAnswer(ctx, id)
}

func (svc *Service) UpdateAnswer(ctx context.Context, actor user.User, ans Answer, na NewAnswer) (Answer, error) {
	if err := enrollment.CheckStudent(actor, ans.StudentID); err != nil {
		return Answer{}, err
	}
	if err := na.Validate(svc.validate); err != nil {
		return Answer{}, err
	}
	studentID, err := enrollment.ResolveStudent(ctx, svc.users, actor, na.Student, ans.StudentID)
	if err != nil {
		return Answer{}, err
	}
	qn, err := svc.getQuestionReference(ctx, na.Question)
	if err != nil {
		return Answer{}, err
	}

	ans.StudentID = studentID
	ans.QuestionID = qn.ID
	ans.AnswerText = na.AnswerText
	ans.Check(qn)
	ans, err = svc.repo.UpdateAnswer(ctx, ans)
	if err != nil {
		return Answer{}, referenceError(err, "question", na.Question, "updating answer")
	}
	return ans, nil
}

func (svc *Service) DeleteAnswer(ctx context.Context, actor user.User, ans Answer) error {
	if err := enrollment.CheckStudent(actor, ans.StudentID); err != nil {
		return err
	}
	_, err := svc.repo.DeleteAnswersByID(ctx, ans.ID)
	return errors.Wrap(err, "deleting answer")
}

package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

const (
	quizColumns     = `id, course_id, title`
	questionColumns = `id, quiz_id, text, correct_answer`
	answerColumns   = `id, student_id, question_id, answer_text, is_correct`
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	q := `INSERT INTO quizzes (course_id, title) VALUES ($1, $2) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, qz.CourseID, qz.Title).Scan(&qz.ID); err != nil {
		return quiz.Quiz{}, dbError(err)
	}
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QuizFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	var w where
	if filter != nil && filter.Course != 0 {
		w.add(`course_id = ?`, filter.Course)
	}

	quizzes := make([]quiz.Quiz, 0)
	q := `SELECT ` + quizColumns + ` FROM quizzes` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &quizzes, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting quizzes")
	}
	return quizzes, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id int) (quiz.Quiz, error) {
	var qz quiz.Quiz
	if err := repo.db.GetContext(ctx, &qz, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Quiz{}, quiz.ErrQuizNotFound
		}
		return quiz.Quiz{}, errors.Wrap(err, "selecting quiz")
	}
	return qz, nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	q := `UPDATE quizzes SET course_id = :course_id, title = :title WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, qz))
	if err != nil {
		return quiz.Quiz{}, err
	}
	if n == 0 {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	return qz, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...int) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		n, err = deleteQuizzes(ctx, tx, ids)
		return err
	})
	return n, err
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	q := `INSERT INTO questions (quiz_id, text, correct_answer) VALUES ($1, $2, $3) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, qn.QuizID, qn.Text, qn.CorrectAnswer).Scan(&qn.ID); err != nil {
		return quiz.Question{}, dbError(err)
	}
	return qn, nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, filter *quiz.QuestionFilter, ordering []core.DBOrdering) ([]quiz.Question, error) {
	var w where
	if filter != nil && filter.Quiz != 0 {
		w.add(`quiz_id = ?`, filter.Quiz)
	}

	questions := make([]quiz.Question, 0)
	q := `SELECT ` + questionColumns + ` FROM questions` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &questions, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	return questions, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id int) (quiz.Question, error) {
	var qn quiz.Question
	if err := repo.db.GetContext(ctx, &qn, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, errors.Wrap(err, "selecting question")
	}
	return qn, nil
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	q := `UPDATE questions SET quiz_id = :quiz_id, text = :text, correct_answer = :correct_answer WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, qn))
	if err != nil {
		return quiz.Question{}, err
	}
	if n == 0 {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	return qn, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...int) (int, error) {
	var n int
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		n, err = deleteQuestions(ctx, tx, ids)
		return err
	})
	return n, err
}

func (repo *quizRepository) CreateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	q := `INSERT INTO answers (student_id, question_id, answer_text, is_correct) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := repo.db.QueryRowxContext(ctx, q, ans.StudentID, ans.QuestionID, ans.AnswerText, ans.IsCorrect).Scan(&ans.ID); err != nil {
		return quiz.Answer{}, dbError(err)
	}
	return ans, nil
}

func (repo *quizRepository) QueryAnswers(ctx context.Context, filter *quiz.AnswerFilter, ordering []core.DBOrdering) ([]quiz.Answer, error) {
	var w where
	if filter != nil {
		if filter.Student != 0 {
			w.add(`student_id = ?`, filter.Student)
		}
		if filter.Question != 0 {
			w.add(`question_id = ?`, filter.Question)
		}
	}

	answers := make([]quiz.Answer, 0)
	q := `SELECT ` + answerColumns + ` FROM answers` + w.String() + orderBy(ordering, "")
	if err := repo.db.SelectContext(ctx, &answers, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting answers")
	}
	return answers, nil
}

func (repo *quizRepository) GetAnswer(ctx context.Context, id int) (quiz.Answer, error) {
	var ans quiz.Answer
	if err := repo.db.GetContext(ctx, &ans, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Answer{}, quiz.ErrAnswerNotFound
		}
		return quiz.Answer{}, errors.Wrap(err, "selecting answer")
	}
	return ans, nil
}

func (repo *quizRepository) UpdateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	q := `UPDATE answers SET student_id = :student_id, question_id = :question_id, answer_text = :answer_text,
		is_correct = :is_correct WHERE id = :id`
	n, err := rowsAffected(repo.db.NamedExecContext(ctx, q, ans))
	if err != nil {
		return quiz.Answer{}, err
	}
	if n == 0 {
		return quiz.Answer{}, quiz.ErrAnswerNotFound
	}
	return ans, nil
}

func (repo *quizRepository) DeleteAnswersByID(ctx context.Context, ids ...int) (int, error) {
	return rowsAffected(repo.db.ExecContext(ctx, `DELETE FROM answers WHERE id = ANY($1)`, int64s(ids)))
}

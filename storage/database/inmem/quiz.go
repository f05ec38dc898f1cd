package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[qz.CourseID]; !ok {
		return quiz.Quiz{}, core.ErrForeignKeyViolation
	}
	qz.ID = repo.db.nextID("quizzes")
	repo.db.quizzes[qz.ID] = qz
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QuizFilter, ordering []core.DBOrdering) ([]quiz.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		if filter != nil && filter.Course != 0 && qz.CourseID != filter.Course {
			continue
		}
		quizzes = append(quizzes, qz)
	}
	sortObjects(quizzes, ordering)
	return quizzes, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id int) (quiz.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if qz, ok := repo.db.quizzes[id]; ok {
		return qz, nil
	}
	return quiz.Quiz{}, quiz.ErrQuizNotFound
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[qz.ID]; !ok {
		return quiz.Quiz{}, quiz.ErrQuizNotFound
	}
	if _, ok := repo.db.courses[qz.CourseID]; !ok {
		return quiz.Quiz{}, core.ErrForeignKeyViolation
	}
	repo.db.quizzes[qz.ID] = qz
	return qz, nil
}

func (repo *quizRepository) DeleteQuizzesByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.deleteQuizzes(ids), nil
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[qn.QuizID]; !ok {
		return quiz.Question{}, core.ErrForeignKeyViolation
	}
	qn.ID = repo.db.nextID("questions")
	repo.db.questions[qn.ID] = qn
	return qn, nil
}

func (repo *quizRepository) QueryQuestions(ctx context.Context, filter *quiz.QuestionFilter, ordering []core.DBOrdering) ([]quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	questions := make([]quiz.Question, 0, len(repo.db.questions))
	for _, qn := range repo.db.questions {
		if filter != nil && filter.Quiz != 0 && qn.QuizID != filter.Quiz {
			continue
		}
		questions = append(questions, qn)
	}
	sortObjects(questions, ordering)
	return questions, nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id int) (quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if qn, ok := repo.db.questions[id]; ok {
		return qn, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, qn quiz.Question) (quiz.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[qn.ID]; !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	if _, ok := repo.db.quizzes[qn.QuizID]; !ok {
		return quiz.Question{}, core.ErrForeignKeyViolation
	}
	repo.db.questions[qn.ID] = qn
	return qn, nil
}

func (repo *quizRepository) DeleteQuestionsByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return repo.db.deleteQuestions(ids), nil
}

func (repo *quizRepository) checkAnswer(ans quiz.Answer) error {
	if _, ok := repo.db.users[ans.StudentID]; !ok {
		return core.ErrForeignKeyViolation
	}
	if _, ok := repo.db.questions[ans.QuestionID]; !ok {
		return core.ErrForeignKeyViolation
	}
	return nil
}

func (repo *quizRepository) CreateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkAnswer(ans); err != nil {
		return quiz.Answer{}, err
	}
	ans.ID = repo.db.nextID("answers")
	repo.db.answers[ans.ID] = ans
	return ans, nil
}

func (repo *quizRepository) QueryAnswers(ctx context.Context, filter *quiz.AnswerFilter, ordering []core.DBOrdering) ([]quiz.Answer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	answers := make([]quiz.Answer, 0, len(repo.db.answers))
	for _, ans := range repo.db.answers {
		if filter != nil {
			if filter.Student != 0 && ans.StudentID != filter.Student {
				continue
			}
			if filter.Question != 0 && ans.QuestionID != filter.Question {
				continue
			}
		}
		answers = append(answers, ans)
	}
	sortObjects(answers, ordering)
	return answers, nil
}

func (repo *quizRepository) GetAnswer(ctx context.Context, id int) (quiz.Answer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ans, ok := repo.db.answers[id]; ok {
		return ans, nil
	}
	return quiz.Answer{}, quiz.ErrAnswerNotFound
}

func (repo *quizRepository) UpdateAnswer(ctx context.Context, ans quiz.Answer) (quiz.Answer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.answers[ans.ID]; !ok {
		return quiz.Answer{}, quiz.ErrAnswerNotFound
	}
	if err := repo.checkAnswer(ans); err != nil {
		return quiz.Answer{}, err
	}
	repo.db.answers[ans.ID] = ans
	return ans, nil
}

func (repo *quizRepository) DeleteAnswersByID(ctx context.Context, ids ...int) (int, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	count := 0
	for _, id := range ids {
		if _, ok := repo.db.answers[id]; ok {
			delete(repo.db.answers, id)
			count++
		}
	}
	return count, nil
}

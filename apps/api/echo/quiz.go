package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

type quizApi struct {
	ServerDeps
}

func registerQuizAPI(s *Server, g *echo.Group) {
	api := quizApi{ServerDeps: s.ServerDeps}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.PATCH("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func registerQuestionAPI(s *Server, g *echo.Group) {
	api := quizApi{ServerDeps: s.ServerDeps}

	g.GET("", api.queryQuestions)
	g.POST("", api.createQuestion)
	g.GET("/:id", api.retrieveQuestion)
	g.PUT("/:id", api.updateQuestion)
	g.PATCH("/:id", api.updateQuestion)
	g.DELETE("/:id", api.destroyQuestion)
}

func registerAnswerAPI(s *Server, g *echo.Group) {
	api := quizApi{ServerDeps: s.ServerDeps}

	g.GET("", api.queryAnswers)
	g.POST("", api.createAnswer)
	g.GET("/:id", api.retrieveAnswer)
	g.PUT("/:id", api.updateAnswer)
	g.PATCH("/:id", api.updateAnswer)
	g.DELETE("/:id", api.destroyAnswer)
}

func (api *quizApi) getQuiz(ctx echo.Context) (quiz.Quiz, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return quiz.Quiz{}, err
	}
	qz, err := api.QuizSvc.GetQuizByID(ctx.Request().Context(), id)
	return qz, errors.Wrap(err, "finding quiz by ID")
}

func (api *quizApi) getQuestion(ctx echo.Context) (quiz.Question, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return quiz.Question{}, err
	}
	qn, err := api.QuizSvc.GetQuestionByID(ctx.Request().Context(), id)
	return qn, errors.Wrap(err, "finding question by ID")
}

func (api *quizApi) getAnswer(ctx echo.Context) (quiz.Answer, error) {
	id, err := paramID(ctx, "id")
	if err != nil {
		return quiz.Answer{}, err
	}
	ans, err := api.QuizSvc.GetAnswerByID(ctx.Request().Context(), id)
	return ans, errors.Wrap(err, "finding answer by ID")
}

// Quiz handlers

func (api *quizApi) create(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data quiz.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	qz, err := api.QuizSvc.CreateQuiz(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

func (api *quizApi) query(ctx echo.Context) error {
	filter := new(quiz.QuizFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Quiz{})
	}

	quizzes, err := api.QuizSvc.QueryQuizzes(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.getQuiz(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	qz, err := api.getQuiz(ctx)
	if err != nil {
		return err
	}

	var data quiz.NewQuiz
	if isPartialUpdate(ctx) {
		data = quiz.NewQuizFrom(qz)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}

	qz, err = api.QuizSvc.UpdateQuiz(ctx.Request().Context(), actor, qz, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	qz, err := api.getQuiz(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.QuizSvc.DeleteQuiz(ctx.Request().Context(), actor, qz); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Question handlers

func (api *quizApi) createQuestion(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data quiz.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}

	qn, err := api.QuizSvc.CreateQuestion(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, qn)
}

func (api *quizApi) queryQuestions(ctx echo.Context) error {
	filter := new(quiz.QuestionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Question{})
	}

	questions, err := api.QuizSvc.QueryQuestions(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *quizApi) retrieveQuestion(ctx echo.Context) error {
	qn, err := api.getQuestion(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	qn, err := api.getQuestion(ctx)
	if err != nil {
		return err
	}

	var data quiz.NewQuestion
	if isPartialUpdate(ctx) {
		data = quiz.NewQuestionFrom(qn)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}

	qn, err = api.QuizSvc.UpdateQuestion(ctx.Request().Context(), actor, qn, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, qn)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	qn, err := api.getQuestion(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.QuizSvc.DeleteQuestion(ctx.Request().Context(), actor, qn); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Answer handlers

func (api *quizApi) createAnswer(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	var data quiz.NewAnswer
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}

	ans, err := api.QuizSvc.CreateAnswer(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating answer")
	}
	return ctx.JSON(http.StatusCreated, ans)
}

func (api *quizApi) queryAnswers(ctx echo.Context) error {
	filter := new(quiz.AnswerFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []quiz.Answer{})
	}

	answers, err := api.QuizSvc.QueryAnswers(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying answers")
	}
	return ctx.JSON(http.StatusOK, answers)
}

func (api *quizApi) retrieveAnswer(ctx echo.Context) error {
	ans, err := api.getAnswer(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *quizApi) updateAnswer(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	ans, err := api.getAnswer(ctx)
	if err != nil {
		return err
	}

	var data quiz.NewAnswer
	if isPartialUpdate(ctx) {
		data = quiz.NewAnswerFrom(ans)
	}
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}

	ans, err = api.QuizSvc.UpdateAnswer(ctx.Request().Context(), actor, ans, data)
	if err != nil {
		return errors.Wrap(err, "updating answer")
	}
	return ctx.JSON(http.StatusOK, ans)
}

func (api *quizApi) destroyAnswer(ctx echo.Context) error {
	actor, err := api.actor(ctx)
	if err != nil {
		return err
	}
	ans, err := api.getAnswer(ctx)
	if err != nil {
		if core.IsNotFound(err) {
			return ctx.NoContent(http.StatusNoContent)
		}
		return err
	}

	if err = api.QuizSvc.DeleteAnswer(ctx.Request().Context(), actor, ans); err != nil {
		return errors.Wrap(err, "deleting answer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

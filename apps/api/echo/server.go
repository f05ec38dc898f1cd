package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		MailSvc       core.EmailService
		Throttler     core.Throttler // optional
		UserSvc       *user.Service
		CourseSvc     *course.Service
		EnrollmentSvc *enrollment.Service
		QuizSvc       *quiz.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.Conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.signalShutdown)
	s.app.Renderer = newPageRenderer()

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	jwt := middleware.JWTWithConfig(newJWTConfig(s.Conf))
	authed := s.authUserMiddleware()

	api := s.app.Group("/api", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.Conf.Server.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	registerAuthAPI(s, api.Group("/auth"), jwt)
	registerUserAPI(s, api.Group("/users", jwt, authed, adminMiddleware()))
	registerCourseAPI(s, api.Group("/courses", jwt, authed))
	registerLessonAPI(s, api.Group("/lessons", jwt, authed))
	registerEnrollmentAPI(s, api.Group("/enrollments", jwt, authed))
	registerProgressAPI(s, api.Group("/progress", jwt, authed))
	registerQuizAPI(s, api.Group("/quizzes", jwt, authed))
	registerQuestionAPI(s, api.Group("/questions", jwt, authed))
	registerAnswerAPI(s, api.Group("/answers", jwt, authed))

	s.app.GET("/ws/test", wsEcho)

	registerPages(s)
}

// Start starts the HTTP server. Errors are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

// Close forcefully closes the server.
func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

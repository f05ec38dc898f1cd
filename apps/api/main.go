package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"

	appfs "github.com/trezcool/darasa/assets"
	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	throttlesvc "github.com/trezcool/darasa/services/throttle"
	"github.com/trezcool/darasa/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB & repos
	repos, err := database.NewRepositories(conf, true /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	dbLogger.Info(fmt.Sprintf("storage engine: %s", conf.Database.Engine))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var throttler core.Throttler
	if conf.Redis.Addr != "" {
		client := throttlesvc.NewRedisClient(conf)
		defer func() { _ = client.Close() }()
		if err = client.Ping(context.Background()).Err(); err != nil {
			logger.Warn(fmt.Sprintf("redis not reachable, attempts are not throttled: %v", err))
		}
		throttler = throttlesvc.NewRedisThrottler(client, conf)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	usrSvc := user.NewService(repos.Users)
	crsSvc := course.NewService(repos.Courses, validate)
	enrSvc := enrollment.NewService(repos.Enrollments, crsSvc, usrSvc, validate)
	qzSvc := quiz.NewService(repos.Quizzes, crsSvc, usrSvc, validate)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %s", conf))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf.FrontendBaseURL, false, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			MailSvc:       mailSvc,
			Throttler:     throttler,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			EnrollmentSvc: enrSvc,
			QuizSvc:       qzSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

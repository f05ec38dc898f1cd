package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

var (
	csrfContextKey = "csrf"
	csrfFormField  = "csrf_token"

	msgRegistered   = "Registration successful. You can now log in."
	msgLoginFailed  = "Invalid username or password"
	msgLoggedOut    = "You have been logged out."
	titleOrdering   = []core.DBOrdering{{Field: "title", Ascending: true}}
	defaultOrdering = []core.DBOrdering{{Field: "id", Ascending: true}}
)

type pagesApp struct {
	ServerDeps
}

func registerPages(s *Server) {
	app := pagesApp{ServerDeps: s.ServerDeps}

	mw := []echo.MiddlewareFunc{
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:" + csrfFormField,
			ContextKey:     csrfContextKey,
			CookiePath:     "/",
			CookieHTTPOnly: true,
		}),
		app.userMiddleware,
	}

	s.app.GET("/", app.home, mw...)
	s.app.GET("/courses", app.courseList, mw...)
	s.app.GET("/courses/:id", app.courseDetail, mw...)
	s.app.GET("/courses/:id/lessons/:lesson_id", app.lessonDetail, mw...)

	s.app.GET("/register", app.registerForm, mw...)
	s.app.POST("/register", app.register, append(mw, s.throttleMiddleware("register"))...)
	s.app.GET("/login", app.loginForm, mw...)
	s.app.POST("/login", app.login, append(mw, s.throttleMiddleware("login"))...)
	s.app.POST("/logout", app.logout, mw...)
}

// userMiddleware loads the user of the token cookie, if any. Invalid tokens are ignored.
func (app *pagesApp) userMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		cookie, err := ctx.Cookie(tokenCookieName)
		if err != nil || cookie.Value == "" {
			return next(ctx)
		}
		claims, err := parseToken(cookie.Value, app.Conf)
		if err != nil {
			return next(ctx)
		}
		usr, err := app.UserSvc.GetByID(ctx.Request().Context(), claims.UserID())
		if err != nil {
			if core.IsNotFound(err) {
				return next(ctx)
			}
			return errors.Wrap(err, "finding user by ID")
		}
		if usr.IsActive {
			ctx.Set(contextUserKey, usr)
		}
		return next(ctx)
	}
}

func (app *pagesApp) home(ctx echo.Context) error {
	return renderPage(ctx, http.StatusOK, "home.gohtml", nil)
}

func (app *pagesApp) courseList(ctx echo.Context) error {
	courses, err := app.CourseSvc.Query(ctx.Request().Context(), &course.CourseFilter{}, titleOrdering)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return renderPage(ctx, http.StatusOK, "course_list.gohtml", echo.Map{"Courses": courses})
}

func (app *pagesApp) courseDetail(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	crs, err := app.CourseSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	lessons, err := app.CourseSvc.QueryLessons(ctx.Request().Context(), &course.LessonFilter{Course: crs.ID}, defaultOrdering)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	return renderPage(ctx, http.StatusOK, "course_detail.gohtml", echo.Map{"Course": crs, "Lessons": lessons})
}

func (app *pagesApp) lessonDetail(ctx echo.Context) error {
	courseID, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	lessonID, err := paramID(ctx, "lesson_id")
	if err != nil {
		return err
	}
	lsn, err := app.CourseSvc.GetCourseLesson(ctx.Request().Context(), courseID, lessonID)
	if err != nil {
		return errors.Wrap(err, "finding course lesson")
	}
	return renderPage(ctx, http.StatusOK, "lesson_detail.gohtml", echo.Map{"Lesson": lsn})
}

func (app *pagesApp) registerForm(ctx echo.Context) error {
	return renderPage(ctx, http.StatusOK, "register.gohtml", user.NewUser{})
}

func (app *pagesApp) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.IsAdmin = false

	err := data.Validate(app.Validate, app.UserSvc)
	if err == nil {
		var usr user.User
		usr, err = app.UserSvc.Create(ctx.Request().Context(), data)
		if err == nil {
			if msg := user.WelcomeMessage(usr); msg != nil {
				app.MailSvc.SendMessages(msg)
			}
			addFlash(ctx, flashMessage{Level: levelSuccess, Text: msgRegistered})
			return ctx.Redirect(http.StatusFound, "/login")
		}
	}

	msgs, ok := validationMessages(err, app.Translator)
	if !ok {
		return errors.Wrap(err, "registering user")
	}
	data.Password = ""
	return renderPage(ctx, http.StatusOK, "register.gohtml", data, msgs...)
}

func (app *pagesApp) loginForm(ctx echo.Context) error {
	return renderPage(ctx, http.StatusOK, "login.gohtml", LoginRequest{})
}

func (app *pagesApp) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	failed := func() error {
		data.Password = ""
		return renderPage(ctx, http.StatusOK, "login.gohtml", data, flashMessage{Level: levelError, Text: msgLoginFailed})
	}
	if err := data.Validate(app.Validate); err != nil {
		return failed()
	}

	claims, err := authenticate(ctx.Request().Context(), data.Username, data.Password, app.UserSvc, app.Conf)
	if err != nil {
		if errors.Cause(err) == errAuthenticationFailed {
			return failed()
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims, app.Conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Unix(claims.ExpiresAt, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.Redirect(http.StatusFound, "/courses")
}

func (app *pagesApp) logout(ctx echo.Context) error {
	ctx.SetCookie(&http.Cookie{Name: tokenCookieName, Path: "/", MaxAge: -1, HttpOnly: true})
	addFlash(ctx, flashMessage{Level: levelInfo, Text: msgLoggedOut})
	return ctx.Redirect(http.StatusFound, "/")
}

// validationMessages turns validation errors into flash messages; ok is false for any other error.
func validationMessages(err error, translator ut.Translator) (msgs []flashMessage, ok bool) {
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fErr := range vErr {
			msgs = append(msgs, flashMessage{Level: levelError, Text: fmtFieldError(fErr.Field(), fErr.Translate(translator))})
		}
		return msgs, true
	case *core.ValidationError:
		if len(vErr.Fields) == 0 {
			return []flashMessage{{Level: levelError, Text: vErr.Error()}}, true
		}
		for _, fErr := range vErr.Fields {
			msgs = append(msgs, flashMessage{Level: levelError, Text: fmtFieldError(fErr.Field, fErr.Error)})
		}
		return msgs, true
	}
	return nil, false
}

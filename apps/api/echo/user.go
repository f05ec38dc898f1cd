package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

type userApi struct {
	ServerDeps
}

func registerAuthAPI(s *Server, g *echo.Group, jwt echo.MiddlewareFunc) {
	api := userApi{ServerDeps: s.ServerDeps}

	// un-authed endpoints
	g.POST("/register", api.register, s.throttleMiddleware("register"))
	g.POST("/login", api.login, s.throttleMiddleware("login"))

	// authed endpoints
	g.POST("/token-refresh", api.refreshToken, jwt)
}

// registerUserAPI registers the user management endpoints; g is restricted to admins.
func registerUserAPI(s *Server, g *echo.Group) {
	api := userApi{ServerDeps: s.ServerDeps}

	g.GET("", api.query)
	g.POST("", api.create)

	// detail endpoints
	dg := g.Group("/:id", api.objectMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PATCH("", api.update)
	g.DELETE("/:id", api.destroy)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.IsAdmin = false // admins are created with the admin CLI
	if err := data.Validate(api.Validate, api.UserSvc); err != nil {
		return err
	}

	usr, err := api.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	if msg := user.WelcomeMessage(usr); msg != nil {
		api.MailSvc.SendMessages(msg)
	}

	token, err := GenerateToken(GetUserClaims(usr, api.Conf), api.Conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, LoginResponse{Token: token})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Username, data.Password, api.UserSvc, api.Conf)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims, api.Conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.UserSvc, api.Conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.Validate, api.UserSvc); err != nil {
		return err
	}

	usr, err := api.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()

	users, err := api.UserSvc.Query(ctx.Request().Context(), filter, getOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if ctx.Request().Method == http.MethodPut && data.Username == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "username", Error: "this field is required"})
	}
	if err := data.Validate(usr, api.Validate, api.UserSvc); err != nil {
		return err
	}

	usr, err := api.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if id == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.UserSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) objectMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return err
		}
		usr, err := api.UserSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set("object", usr)
		return next(ctx)
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" form:"username" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

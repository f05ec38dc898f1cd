package echoapi

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

// authUserMiddleware loads the token's user into the context.
// Tokens of deleted or deactivated users are rejected.
func (s *Server) authUserMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, s.UserSvc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if !usr.IsActive {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}

// adminMiddleware must run after authUserMiddleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := ctx.Get(contextUserKey).(user.User)
			if ok && usr.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// throttleMiddleware limits the attempts per client IP on the credential endpoints.
// It is a no-op when no throttler is configured.
func (s *Server) throttleMiddleware(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if s.Throttler == nil {
			return next
		}
		return func(ctx echo.Context) error {
			key := scope + ":" + ctx.RealIP()
			allowed, retryAfter, err := s.Throttler.Allow(ctx.Request().Context(), key)
			if err != nil {
				// do not lock users out when the limiter is down
				s.Logger.Warn(fmt.Sprintf("throttling %s: %v", key, err), err)
				return next(ctx)
			}
			if !allowed {
				if retryAfter > 0 {
					ctx.Response().Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
				}
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

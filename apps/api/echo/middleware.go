package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lyceum/core/user"
)

// currentUserMiddleware loads the User behind the token; deleted or blocked Users are turned away.
func currentUserMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsBlocked() {
				return errAccountBlocked
			}
			return next(ctx)
		}
	}
}

// staffMiddleware only lets teachers and admins through.
func staffMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, ok := ctx.Get(contextUserKey).(user.User)
			if !ok {
				return errUnauthorized
			}
			if usr.IsStaff() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// contextUser must only be called behind currentUserMiddleware.
func contextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}

// selfOrStaff forbids students from acting on behalf of someone else.
func selfOrStaff(ctx echo.Context, userID string) error {
	usr := contextUser(ctx)
	if usr.IsStaff() || usr.ID == userID {
		return nil
	}
	return errHttpForbidden
}

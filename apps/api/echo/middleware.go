package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/azizzt/controlescolar/core/user"
)

// policyMiddleware lets the request through when the context user satisfies policy.
// Must run after authMiddleware.
func policyMiddleware(policy user.Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if policy(usr.Groups) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

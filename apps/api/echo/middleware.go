package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/access"
)

// roleMiddleware blocks the request unless the caller's role is in the
// allowed set. An empty set only requires authentication.
func roleMiddleware(roles ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			if err = access.RequireRole(sess, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// featureMiddleware blocks teachers lacking the feature behind the given tab.
// Admins always pass.
func featureMiddleware(tab string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}
			if !access.HasFeature(sess, tab) {
				return access.FeatureForbiddenError{
					Message: "you do not have access to the " + access.NormalizeTab(tab) + " feature",
				}
			}
			return next(ctx)
		}
	}
}

type objectLoader func(ctx echo.Context, id string) (schoolID string, err error)

// objectMiddleware loads the detail object, stashes it in the context under
// "object" and enforces tenant isolation. Existence is checked first so a
// cross-tenant probe of a missing ID still reads as 404.
func objectMiddleware(resource string, load objectLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return err
			}

			schoolID, err := load(ctx, ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "loading "+resource)
			}
			if err = access.RequireSameTenant(sess, schoolID, resource); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

package session

import (
	"github.com/labstack/echo/v4"

	"github.com/bionotes/bionotes/internal/apperror"
)

// RequireUnlocked guards routes that expose note content. Requests while
// locked are rejected before reaching the handler.
func RequireUnlocked(c *Controller) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if c.State() != StateUnlocked {
				return apperror.NewSessionLocked()
			}
			return next(ctx)
		}
	}
}

// TrackActivity treats every request through it as user activity, pushing
// the inactivity deadline out. Mount it on the same groups RequireUnlocked
// guards so reading and editing notes keeps the session alive.
func TrackActivity(c *Controller) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c.Activity()
			return next(ctx)
		}
	}
}

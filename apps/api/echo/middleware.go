package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/session"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

// requireRoles guards an API group: the request must carry a token whose
// session is still registered, and the session's role must be in the
// allowed set. An empty set admits any authenticated user.
func (a *auth) requireRoles(allowed ...session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := a.contextSession(ctx)
			if err != nil {
				return err
			}
			switch session.Decide(sess, allowed...) {
			case session.Allow:
				return next(ctx)
			case session.RedirectToLogin:
				return errUnauthorized
			default:
				return errHTTPForbidden
			}
		}
	}
}

// pageGuard maps guard outcomes to navigation: unauthenticated visitors
// land on the login page, authenticated ones with the wrong role are sent
// home. No error page is rendered either way.
func (a *auth) pageGuard(route session.Route) echo.MiddlewareFunc {
	guard := route.Guard()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := a.pageSession(ctx)
			switch guard(sess) {
			case session.Allow:
				return next(ctx)
			case session.RedirectToLogin:
				return ctx.Redirect(http.StatusFound, loginPath)
			default:
				return ctx.Redirect(http.StatusFound, homePath)
			}
		}
	}
}

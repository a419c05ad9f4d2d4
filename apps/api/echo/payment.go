package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/payment"
)

type paymentAPI struct {
	auth     *auth
	svc      payment.ServiceInterface
	validate *validator.Validate
}

func registerPaymentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *auth,
	svc payment.ServiceInterface,
	validate *validator.Validate,
) {
	api := paymentAPI{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	// checkout needs a logged-in user, any role
	pg := g.Group("/payments", jwt, auth.requireRoles())
	pg.POST("", api.initiate)
	pg.GET("", api.history)
	pg.GET("/:id", api.verify)
}

// Handlers

func (api *paymentAPI) initiate(ctx echo.Context) error {
	var data payment.InitiatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InitiatePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}
	pmt, err := api.svc.Initiate(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "initiating payment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentAPI) history(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	pmts, err := api.svc.History(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if pmts == nil {
		pmts = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

func (api *paymentAPI) verify(ctx echo.Context) error {
	claims, err := api.auth.getContextClaims(ctx)
	if err != nil {
		return err
	}

	pmt, err := api.svc.Verify(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHTTPNotFound
		}
		return errors.Wrap(err, "verifying payment")
	}
	return ctx.JSON(http.StatusOK, pmt)
}

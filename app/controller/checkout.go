package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/config"
)

const (
	checkoutTemplate      = "checkout.html"
	defaultRedirectTarget = "_self"
)

var redirectTargets = map[string]bool{
	"_self":  true,
	"_blank": true,
	"_top":   true,
	"_modal": true,
}

type checkoutPage struct {
	SessionID      string
	Mode           string
	RedirectTarget string
	RetryURL       string
}

// CheckoutController hands the donor over to the gateway's hosted checkout.
// It keeps no server-side state.
type CheckoutController struct {
	mode   string
	logger logrus.FieldLogger
}

func NewCheckoutController(environment string) *CheckoutController {
	mode := config.EnvironmentSandbox
	if strings.EqualFold(strings.TrimSpace(environment), config.EnvironmentProduction) {
		mode = config.EnvironmentProduction
	}
	return &CheckoutController{
		mode:   mode,
		logger: factory.NewModuleLogger("checkout-controller"),
	}
}

func (c *CheckoutController) Checkout(ctx echo.Context) error {
	sessionID := strings.TrimSpace(ctx.Param("session_id"))
	if sessionID == "" {
		return writeError(ctx, http.StatusBadRequest, "payment session id is required")
	}

	target := strings.TrimSpace(ctx.QueryParam("target"))
	if target == "" {
		target = defaultRedirectTarget
	}
	if !redirectTargets[target] {
		return writeError(ctx, http.StatusBadRequest, "unsupported redirect target")
	}

	page := checkoutPage{
		SessionID:      sessionID,
		Mode:           c.mode,
		RedirectTarget: target,
		RetryURL:       ctx.Request().URL.RequestURI(),
	}
	if err := ctx.Render(http.StatusOK, checkoutTemplate, page); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Render checkout page failed")
		return writeError(ctx, http.StatusInternalServerError, internalErrorMessage)
	}
	return nil
}

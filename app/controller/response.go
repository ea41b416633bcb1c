package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

const internalErrorMessage = "internal server error"

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

// writeValidationError renders field details when err carries them.
func writeValidationError(ctx echo.Context, err error) error {
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{
			Error:   types.ErrValidation.Error(),
			Details: validationErr.Details,
		})
	}
	return writeError(ctx, http.StatusBadRequest, err.Error())
}

// writeServiceError maps the service and gateway sentinels shared by every
// handler. A gateway 404 is a plain gateway failure here; order lookups answer
// it with writeOrderLookupError. Anything unrecognised is logged and hidden
// behind a 500.
func writeServiceError(ctx echo.Context, logger logrus.FieldLogger, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrDuplicateOrder):
		return writeError(ctx, http.StatusConflict, "duplicate order")
	case errors.Is(err, service.ErrGatewayValidation):
		return writeError(ctx, http.StatusBadRequest, gatewayMessage(err, "invalid payment request"))
	case errors.Is(err, service.ErrGatewayAuth):
		return writeError(ctx, http.StatusUnauthorized, "authentication failed")
	case errors.Is(err, service.ErrGatewayFailure), errors.Is(err, service.ErrOrderNotFound):
		factory.LoggerWithContext(logger, ctx).WithError(err).Warn(action + " failed at the gateway")
		return writeError(ctx, http.StatusBadGateway, gatewayMessage(err, "payment gateway error"))
	case errors.Is(err, service.ErrDonationNotFound):
		return writeError(ctx, http.StatusNotFound, "donation not found")
	case errors.Is(err, service.ErrInvalidStatusTransition), errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrProviderUnsupported):
		return writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return writeError(ctx, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrAdminAlreadyExists):
		return writeError(ctx, http.StatusConflict, err.Error())
	default:
		factory.LoggerWithContext(logger, ctx).WithError(err).Error(action + " failed")
		return writeError(ctx, http.StatusInternalServerError, internalErrorMessage)
	}
}

// writeOrderLookupError is writeServiceError for handlers that look an order
// up at the gateway, where a gateway 404 means the order does not exist.
func writeOrderLookupError(ctx echo.Context, logger logrus.FieldLogger, err error, action string) error {
	if errors.Is(err, service.ErrOrderNotFound) {
		return writeError(ctx, http.StatusNotFound, "order not found")
	}
	return writeServiceError(ctx, logger, err, action)
}

func gatewayMessage(err error, fallback string) string {
	var gatewayErr *provider.GatewayError
	if errors.As(err, &gatewayErr) && strings.TrimSpace(gatewayErr.Message) != "" {
		return gatewayErr.Message
	}
	return fallback
}

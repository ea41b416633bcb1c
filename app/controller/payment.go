package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type PaymentController struct {
	donationService *service.DonationService
	defaultCurrency string
	logger          logrus.FieldLogger
}

func NewPaymentController(donationService *service.DonationService, defaultCurrency string) *PaymentController {
	return &PaymentController{
		donationService: donationService,
		defaultCurrency: defaultCurrency,
		logger:          factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Success: true, Status: "ok"})
}

func (c *PaymentController) CreatePaymentSession(ctx echo.Context) error {
	req, err := types.NewCreatePaymentSessionRequestFromContext(ctx, c.defaultCurrency)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	out, err := c.donationService.CreatePaymentSession(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Create payment session")
	}

	return ctx.JSON(http.StatusOK, &types.CreatePaymentSessionResponse{
		Success:          true,
		PaymentSessionID: out.PaymentSessionID,
		OrderID:          out.OrderID,
		GatewayOrderID:   out.GatewayOrderID,
		OrderStatus:      out.OrderStatus,
	})
}

func (c *PaymentController) GetOrderStatus(ctx echo.Context) error {
	req, err := types.NewOrderStatusRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	status, err := c.donationService.GetOrderStatus(ctx.Request().Context(), req.OrderID)
	if err != nil {
		return writeOrderLookupError(ctx, c.logger, err, "Get order status")
	}

	return ctx.JSON(http.StatusOK, mapper.OrderStatusToResponse(status))
}

func (c *PaymentController) VerifyPayment(ctx echo.Context) error {
	req, err := types.NewVerifyPaymentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	donation, err := c.donationService.VerifyPayment(ctx.Request().Context(), req.OrderID)
	if err != nil {
		return writeOrderLookupError(ctx, c.logger, err, "Verify payment")
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

// HandleCashfreeWebhook answers 500 on storage failures so the gateway redelivers.
func (c *PaymentController) HandleCashfreeWebhook(ctx echo.Context) error {
	req, err := types.NewGatewayWebhookRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	donation, err := c.donationService.HandleGatewayWebhook(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookRejected):
			return writeError(ctx, http.StatusUnauthorized, "invalid webhook signature")
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrProviderUnsupported):
			return writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDonationNotFound):
			return writeError(ctx, http.StatusNotFound, "donation not found")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle gateway webhook failed")
			return writeError(ctx, http.StatusInternalServerError, internalErrorMessage)
		}
	}

	return ctx.JSON(http.StatusOK, &types.WebhookAckResponse{
		Success: true,
		Message: "Webhook processed",
		Status:  string(donation.PaymentStatus),
	})
}

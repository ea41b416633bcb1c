package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type DonationController struct {
	donationService *service.DonationService
	defaultCurrency string
	logger          logrus.FieldLogger
}

func NewDonationController(donationService *service.DonationService, defaultCurrency string) *DonationController {
	return &DonationController{
		donationService: donationService,
		defaultCurrency: defaultCurrency,
		logger:          factory.NewModuleLogger("donations-controller"),
	}
}

func (c *DonationController) SubmitDonation(ctx echo.Context) error {
	req, err := types.NewSubmitDonationRequestFromContext(ctx, c.defaultCurrency)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	result, err := c.donationService.SubmitDonation(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Submit donation")
	}

	return ctx.JSON(http.StatusCreated, &types.SubmitDonationResponse{
		Success:          true,
		Donation:         mapper.DonationToResponse(result.Donation),
		OrderID:          result.Donation.OrderID,
		PaymentSessionID: result.PaymentSessionID,
		CheckoutURL:      result.CheckoutURL,
	})
}

func (c *DonationController) GetDonation(ctx echo.Context) error {
	req, err := types.NewGetDonationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	donation, err := c.donationService.GetDonation(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Get donation")
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

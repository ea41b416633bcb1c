package controller

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

const adminEmailContextKey = "admin_email"

type AdminController struct {
	adminService    *service.AdminService
	donationService *service.DonationService
	emailService    *service.EmailService
	logger          logrus.FieldLogger
}

func NewAdminController(adminService *service.AdminService, donationService *service.DonationService, emailService *service.EmailService) *AdminController {
	return &AdminController{
		adminService:    adminService,
		donationService: donationService,
		emailService:    emailService,
		logger:          factory.NewModuleLogger("admin-controller"),
	}
}

// RequireAdmin admits requests whose X-Admin-Email belongs to an active admin.
func (c *AdminController) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		email := strings.ToLower(strings.TrimSpace(ctx.Request().Header.Get(types.HeaderAdminEmail)))
		if email == "" {
			return writeError(ctx, http.StatusUnauthorized, "admin email header is required")
		}

		ok, err := c.adminService.IsUserAdmin(ctx.Request().Context(), email)
		if err != nil {
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Admin lookup failed")
			return writeError(ctx, http.StatusInternalServerError, internalErrorMessage)
		}
		if !ok {
			return writeError(ctx, http.StatusForbidden, "admin access required")
		}

		ctx.Set(adminEmailContextKey, email)
		return next(ctx)
	}
}

func (c *AdminController) Analytics(ctx echo.Context) error {
	analytics, err := c.adminService.Analytics(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Load analytics")
	}
	return ctx.JSON(http.StatusOK, mapper.StatsToAnalytics(analytics.Stats, analytics.TotalUsers))
}

func (c *AdminController) ListDonations(ctx echo.Context) error {
	req, err := types.NewListDonationsRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	items, err := c.adminService.ListDonations(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List donations")
	}
	return ctx.JSON(http.StatusOK, &types.ListDonationsResponse{Success: true, Donations: mapper.DonationsToResponse(items)})
}

func (c *AdminController) UpdateDonationStatus(ctx echo.Context) error {
	req, err := types.NewUpdateDonationStatusRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	donation, err := c.donationService.UpdateDonationStatus(ctx.Request().Context(), req)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Update donation status")
	}

	factory.LoggerWithContext(c.logger, ctx).WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"status":      donation.PaymentStatus,
		"admin":       c.actor(ctx),
	}).Info("Donation status updated by admin")
	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

func (c *AdminController) ResendReceipt(ctx echo.Context) error {
	req, err := types.NewGetDonationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	donation, err := c.donationService.ResendReceipt(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Resend receipt")
	}
	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

func (c *AdminController) ListAdmins(ctx echo.Context) error {
	items, err := c.adminService.ListAdmins(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List admins")
	}
	return ctx.JSON(http.StatusOK, &types.ListAdminsResponse{Success: true, Admins: mapper.AdminsToResponse(items)})
}

func (c *AdminController) CreateAdmin(ctx echo.Context) error {
	req, err := types.NewCreateAdminRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	admin, err := c.adminService.CreateAdmin(ctx.Request().Context(), c.actor(ctx), req)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Create admin")
	}
	return ctx.JSON(http.StatusCreated, &types.AdminEnvelopeResponse{Success: true, Admin: mapper.AdminToResponse(admin)})
}

func (c *AdminController) ListEmailSettings(ctx echo.Context) error {
	items, err := c.emailService.ListSettings(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List email settings")
	}
	return ctx.JSON(http.StatusOK, &types.EmailSettingsResponse{Success: true, Settings: mapper.EmailSettingsToResponse(items)})
}

func (c *AdminController) UpdateEmailSettings(ctx echo.Context) error {
	req, err := types.NewUpdateEmailSettingsRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	items, err := c.emailService.UpdateSettings(ctx.Request().Context(), req.Settings, c.actor(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Update email settings")
	}
	return ctx.JSON(http.StatusOK, &types.EmailSettingsResponse{Success: true, Settings: mapper.EmailSettingsToResponse(items)})
}

func (c *AdminController) SendTestEmail(ctx echo.Context) error {
	req, err := types.NewTestEmailRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeValidationError(ctx, err)
	}

	if err := c.emailService.SendTestEmail(ctx.Request().Context(), req.To); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Test email failed")
		return writeError(ctx, http.StatusBadGateway, "sending test email failed")
	}
	return ctx.JSON(http.StatusOK, &types.MessageResponse{Success: true, Message: "Test email sent"})
}

func (c *AdminController) actor(ctx echo.Context) string {
	email, _ := ctx.Get(adminEmailContextKey).(string)
	return email
}

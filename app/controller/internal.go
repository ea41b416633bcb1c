package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

// JobsController exposes the maintenance jobs to internal callers such as an external scheduler.
type JobsController struct {
	donationService *service.DonationService
	logger          logrus.FieldLogger
}

func NewJobsController(donationService *service.DonationService) *JobsController {
	return &JobsController{
		donationService: donationService,
		logger:          factory.NewModuleLogger("jobs-controller"),
	}
}

func (c *JobsController) RunCleanup(ctx echo.Context) error {
	changed, err := c.donationService.RunCleanupSweep(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Cleanup sweep")
	}
	return ctx.JSON(http.StatusOK, &types.JobResultResponse{Success: true, Job: "cleanup", Processed: changed})
}

// RunReconcile reports partial progress as a 500 when any order could not be checked.
func (c *JobsController) RunReconcile(ctx echo.Context) error {
	changed, err := c.donationService.RunReconcileBatch(ctx.Request().Context())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("changed", changed).Error("Reconcile batch failed")
		return writeError(ctx, http.StatusInternalServerError, internalErrorMessage)
	}
	return ctx.JSON(http.StatusOK, &types.JobResultResponse{Success: true, Job: "reconcile", Processed: changed})
}

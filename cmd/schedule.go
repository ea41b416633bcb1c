package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/service"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run cleanup and reconcile on their configured intervals in one process",
	Run:   runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

type scheduledJob struct {
	name     string
	interval time.Duration
	fn       jobFunc
}

func runSchedule(_ *cobra.Command, _ []string) {
	app, cleanup := mustCreateApplication()
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := []scheduledJob{
		{
			name:     "cleanup",
			interval: app.cfg.Jobs.CleanupInterval,
			fn: func(s *service.DonationService, ctx context.Context) (int64, error) {
				return s.RunCleanupSweep(ctx)
			},
		},
		{
			name:     "reconcile",
			interval: app.cfg.Jobs.ReconcileInterval,
			fn: func(s *service.DonationService, ctx context.Context) (int64, error) {
				return s.RunReconcileBatch(ctx)
			},
		},
	}

	scheduler, err := newJobScheduler(ctx, app.donationService, jobs)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create job scheduler")
	}

	scheduler.Start()
	logrus.WithField("jobs", len(jobs)).Info("Job scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Stopping job scheduler...")

	cancel()
	if err := scheduler.Shutdown(); err != nil {
		logrus.WithError(err).Warn("Job scheduler shutdown error")
	}
	logrus.Info("Job scheduler stopped")
}

// newJobScheduler registers each job in singleton mode so a slow run is
// rescheduled instead of overlapping the next tick.
func newJobScheduler(ctx context.Context, donationService *service.DonationService, jobs []scheduledJob) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			logrus.WithField("job", job.name).Warn("Skipping job with non-positive interval")
			continue
		}

		_, err := scheduler.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() {
				runJob(job.name, func() (int64, error) { return job.fn(donationService, ctx) })
			}),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = scheduler.Shutdown()
			return nil, err
		}
	}
	return scheduler, nil
}

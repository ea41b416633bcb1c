package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var (
	workerMode bool
)

type jobFunc func(s *service.DonationService, ctx context.Context) (int64, error)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Fail pending donations that outlived the pending timeout",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"cleanup",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.CleanupInterval },
			func(s *service.DonationService, ctx context.Context) (int64, error) {
				return s.RunCleanupSweep(ctx)
			},
		)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile stale pending donations against Cashfree",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"reconcile",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileInterval },
			func(s *service.DonationService, ctx context.Context) (int64, error) {
				return s.RunReconcileBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(reconcileCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn jobFunc,
) {
	app, cleanup := mustCreateApplication()
	defer cleanup()

	if workerMode {
		runWorker(name, intervalResolver(app.cfg), app.donationService, fn)
		return
	}

	ctx := context.Background()
	runJob(name, func() (int64, error) { return fn(app.donationService, ctx) })
}

func runWorker(
	name string,
	interval time.Duration,
	donationService *service.DonationService,
	fn jobFunc,
) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runJob(name, func() (int64, error) { return fn(donationService, ctx) })

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-quit:
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(name, func() (int64, error) { return fn(donationService, ctx) })
		}
	}
}

func runJob(name string, fn func() (int64, error)) {
	start := time.Now()
	affected, err := fn()
	latency := time.Since(start)
	entry := logrus.WithFields(logrus.Fields{
		"job":      name,
		"latency":  latency.String(),
		"affected": affected,
	})
	if err != nil {
		entry.WithError(err).Error("job_failed")
		return
	}
	entry.Info("job_completed")
}

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/cache"
	"github.com/vibast-solutions/ms-go-donations/app/mailer"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
)

const receiptSendTimeout = 30 * time.Second

type application struct {
	cfg             *config.Config
	donationService *service.DonationService
	adminService    *service.AdminService
	emailService    *service.EmailService
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

// sqlDriverName maps the configured database driver to its database/sql registration.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case config.DriverMySQL:
		return "mysql", nil
	case config.DriverPostgres:
		return "pgx", nil
	case config.DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func mustOpenDB(cfg *config.Config) (*sql.DB, func()) {
	driverName, err := sqlDriverName(cfg.Database.Driver)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to resolve database driver")
	}

	db, err := sql.Open(driverName, cfg.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}
	return db, cleanup
}

func mustCreateApplication() (*application, func()) {
	cfg := mustLoadConfig()
	db, cleanup := mustOpenDB(cfg)
	conn := repository.WithDialect(db, repository.Dialect(cfg.Database.Driver))

	userRepo := repository.NewUserRepository(conn)
	donationRepo := repository.NewDonationRepository(conn)
	eventRepo := repository.NewDonationEventRepository(conn)
	webhookRepo := repository.NewWebhookLogRepository(conn)
	adminRepo := repository.NewAdminRepository(conn)
	settingsRepo := repository.NewEmailSettingRepository(conn)

	emailService := service.NewEmailService(settingsRepo, userRepo, newMailer(cfg), service.EmailDefaults{
		SenderName:  cfg.SMTP.FromName,
		SenderEmail: cfg.SMTP.FromEmail,
		TrustName:   cfg.SMTP.FromName,
	})

	cashfreeProvider := provider.NewCashfreeProvider(provider.CashfreeConfig{
		AppID:                     cfg.Cashfree.AppID,
		SecretKey:                 cfg.Cashfree.SecretKey,
		WebhookSecret:             cfg.Cashfree.WebhookSecret,
		BaseURL:                   cfg.Cashfree.GatewayBaseURL(),
		APIVersion:                cfg.Cashfree.APIVersion,
		SignatureToleranceSeconds: cfg.Cashfree.SignatureToleranceSeconds,
		HTTPTimeout:               cfg.Cashfree.HTTPTimeout,
	})

	receiptQueue := service.NewReceiptQueue(emailService, cfg.Donations.ReceiptQueueSize, receiptSendTimeout)
	donationService := service.NewDonationService(
		userRepo,
		donationRepo,
		eventRepo,
		webhookRepo,
		provider.NewRegistry(cashfreeProvider),
		emailService,
		cfg.Donations,
		cfg.App.BaseURL,
	).WithReceiptQueue(receiptQueue)

	adminService := service.NewAdminService(
		adminRepo,
		donationRepo,
		userRepo,
		cache.NewTTLCache[bool](cfg.Admin.CacheSize, cfg.Admin.CacheTTL),
	)

	return &application{
		cfg:             cfg,
		donationService: donationService,
		adminService:    adminService,
		emailService:    emailService,
	}, func() {
		receiptQueue.Close()
		cleanup()
	}
}

func newMailer(cfg *config.Config) mailer.Mailer {
	if cfg.SMTP.Host == "" {
		logrus.Warn("SMTP host not configured, emails will only be logged")
		return mailer.NewNoopMailer()
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	})
}

package controller

import (
	"context"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/cache"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/mailer"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
)

type controllerDonationRepo struct {
	createFn           func(ctx context.Context, donation *entity.Donation) error
	findByIDFn         func(ctx context.Context, id string) (*entity.Donation, error)
	findByOrderIDFn    func(ctx context.Context, orderID string) (*entity.Donation, error)
	updatePaymentFn    func(ctx context.Context, donation *entity.Donation, expected entity.DonationStatus) error
	listFn             func(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error)
	listStalePendingFn func(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error)
	failStalePendingFn func(ctx context.Context, cutoff, now time.Time) (int64, error)
}

func (r *controllerDonationRepo) Create(ctx context.Context, donation *entity.Donation) error {
	if r.createFn != nil {
		return r.createFn(ctx, donation)
	}
	if donation.ID == "" {
		donation.ID = "7a1c8c9e-8d4f-4f3a-9c55-2b7f1f0a0c01"
	}
	return nil
}

func (r *controllerDonationRepo) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *controllerDonationRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Donation, error) {
	if r.findByOrderIDFn != nil {
		return r.findByOrderIDFn(ctx, orderID)
	}
	return nil, nil
}

func (r *controllerDonationRepo) UpdatePayment(ctx context.Context, donation *entity.Donation, expected entity.DonationStatus) error {
	if r.updatePaymentFn != nil {
		return r.updatePaymentFn(ctx, donation, expected)
	}
	return nil
}

func (r *controllerDonationRepo) UpdateSessionID(context.Context, string, string, time.Time) error {
	return nil
}

func (r *controllerDonationRepo) List(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error) {
	if r.listFn != nil {
		return r.listFn(ctx, filter)
	}
	return []*entity.Donation{}, nil
}

func (r *controllerDonationRepo) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	if r.listStalePendingFn != nil {
		return r.listStalePendingFn(ctx, cutoff, limit)
	}
	return []*entity.Donation{}, nil
}

func (r *controllerDonationRepo) FailStalePending(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if r.failStalePendingFn != nil {
		return r.failStalePendingFn(ctx, cutoff, now)
	}
	return 0, nil
}

func (r *controllerDonationRepo) Stats(context.Context) (*repository.DonationStats, error) {
	return &repository.DonationStats{}, nil
}

type controllerUserRepo struct{}

func (r *controllerUserRepo) Create(_ context.Context, user *entity.User) error {
	user.ID = "0d9c3a52-5b0e-4d55-8f43-3f5f3c7f6b10"
	return nil
}

func (r *controllerUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, nil
}

func (r *controllerUserRepo) FindByID(context.Context, string) (*entity.User, error) {
	return nil, nil
}

func (r *controllerUserRepo) Count(context.Context) (int64, error) {
	return 0, nil
}

type controllerEventRepo struct{}

func (r *controllerEventRepo) Create(context.Context, *entity.DonationEvent) error {
	return nil
}

type controllerWebhookRepo struct{}

func (r *controllerWebhookRepo) Create(context.Context, *entity.WebhookLog) error {
	return nil
}

type controllerProvider struct {
	createOutput *provider.CreateOrderOutput
	createErr    error
	webhookErr   error
	webhookEvt   *provider.WebhookEvent
	orderStatus  *provider.OrderStatus
	statusErr    error
}

func (p *controllerProvider) Code() string {
	return provider.CodeCashfree
}

func (p *controllerProvider) CreateOrder(_ context.Context, input *provider.CreateOrderInput) (*provider.CreateOrderOutput, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.createOutput != nil {
		return p.createOutput, nil
	}
	return &provider.CreateOrderOutput{
		OrderID:          input.OrderID,
		GatewayOrderID:   "2149460581",
		PaymentSessionID: "session_test_123",
		OrderStatus:      "ACTIVE",
	}, nil
}

func (p *controllerProvider) VerifyAndParseWebhook(context.Context, []byte, string, string) (*provider.WebhookEvent, error) {
	if p.webhookErr != nil {
		return nil, p.webhookErr
	}
	if p.webhookEvt != nil {
		return p.webhookEvt, nil
	}
	return &provider.WebhookEvent{EventType: provider.EventPaymentSuccess, OrderID: "DON_1_aaaa", PaymentStatus: "SUCCESS"}, nil
}

func (p *controllerProvider) GetOrderStatus(_ context.Context, orderID string) (*provider.OrderStatus, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	if p.orderStatus != nil {
		return p.orderStatus, nil
	}
	return &provider.OrderStatus{OrderID: orderID, OrderStatus: "ACTIVE"}, nil
}

type controllerAdminRepo struct {
	admins map[string]*entity.Admin
}

func (r *controllerAdminRepo) Create(_ context.Context, admin *entity.Admin) error {
	if _, ok := r.admins[admin.Email]; ok {
		return repository.ErrAdminAlreadyExists
	}
	r.admins[admin.Email] = admin
	return nil
}

func (r *controllerAdminRepo) FindActiveByEmail(_ context.Context, email string) (*entity.Admin, error) {
	item, ok := r.admins[email]
	if !ok || !item.IsActive {
		return nil, nil
	}
	return item, nil
}

func (r *controllerAdminRepo) List(context.Context) ([]*entity.Admin, error) {
	items := make([]*entity.Admin, 0, len(r.admins))
	for _, item := range r.admins {
		items = append(items, item)
	}
	return items, nil
}

type controllerEmailSettingRepo struct{}

func (r *controllerEmailSettingRepo) List(context.Context) ([]*entity.EmailSetting, error) {
	return []*entity.EmailSetting{}, nil
}

func (r *controllerEmailSettingRepo) Get(context.Context, string) (*entity.EmailSetting, error) {
	return nil, nil
}

func (r *controllerEmailSettingRepo) Upsert(context.Context, string, string, *string, time.Time) error {
	return nil
}

type controllerMailer struct {
	sent []*mailer.Message
}

func (m *controllerMailer) Send(_ context.Context, msg *mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newDonationServiceForTest(repo *controllerDonationRepo, p provider.Provider) *service.DonationService {
	return service.NewDonationService(
		&controllerUserRepo{},
		repo,
		&controllerEventRepo{},
		&controllerWebhookRepo{},
		provider.NewRegistry(p),
		nil,
		config.DonationsConfig{DefaultCurrency: "INR", PendingTimeout: time.Hour, ReconcileStaleAfter: 15 * time.Minute, JobBatchSize: 100},
		"https://temple.example",
	)
}

func newAdminControllerForTest(admins ...*entity.Admin) (*AdminController, *controllerMailer) {
	repo := &controllerAdminRepo{admins: map[string]*entity.Admin{}}
	for _, item := range admins {
		repo.admins[item.Email] = item
	}
	m := &controllerMailer{}
	adminService := service.NewAdminService(repo, &controllerDonationRepo{}, &controllerUserRepo{}, cache.NewTTLCache[bool](16, time.Minute))
	emailService := service.NewEmailService(&controllerEmailSettingRepo{}, &controllerUserRepo{}, m, service.EmailDefaults{
		SenderName:  "Sri Temple Trust",
		SenderEmail: "donations@temple.org",
	})
	donationService := newDonationServiceForTest(&controllerDonationRepo{}, &controllerProvider{})
	return NewAdminController(adminService, donationService, emailService), m
}

func pendingDonation() *entity.Donation {
	now := time.Now().UTC()
	return &entity.Donation{
		ID:             "7a1c8c9e-8d4f-4f3a-9c55-2b7f1f0a0c01",
		OrderID:        "DON_1_aaaa",
		Currency:       "INR",
		DonationType:   "general",
		PaymentStatus:  entity.DonationStatusPending,
		PaymentGateway: provider.CodeCashfree,
		ReceiptNumber:  "RCPT-20260101-AAAAAAAA",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

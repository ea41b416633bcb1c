package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/mailer"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"github.com/vibast-solutions/ms-go-donations/config"
)

type serviceUserRepo struct {
	users map[string]*entity.User
}

func newServiceUserRepo() *serviceUserRepo {
	return &serviceUserRepo{users: map[string]*entity.User{}}
}

func (r *serviceUserRepo) Create(_ context.Context, user *entity.User) error {
	for _, item := range r.users {
		if item.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	copyItem := *user
	r.users[user.ID] = &copyItem
	return nil
}

func (r *serviceUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, item := range r.users {
		if item.Email == normalizeEmail(email) {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *serviceUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	item, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *serviceUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

type serviceDonationRepo struct {
	mu        sync.Mutex
	donations map[string]*entity.Donation

	updatePaymentFn func(donation *entity.Donation, expected entity.DonationStatus) error
}

func newServiceDonationRepo() *serviceDonationRepo {
	return &serviceDonationRepo{donations: map[string]*entity.Donation{}}
}

func (r *serviceDonationRepo) seed(d *entity.Donation) *entity.Donation {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	copyItem := *d
	r.donations[d.ID] = &copyItem
	return d
}

func (r *serviceDonationRepo) get(id string) *entity.Donation {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyItem := *r.donations[id]
	return &copyItem
}

func (r *serviceDonationRepo) Create(_ context.Context, donation *entity.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.donations {
		if item.OrderID == donation.OrderID {
			return repository.ErrDonationAlreadyExists
		}
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	copyItem := *donation
	r.donations[donation.ID] = &copyItem
	return nil
}

func (r *serviceDonationRepo) FindByID(_ context.Context, id string) (*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.donations[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *serviceDonationRepo) FindByOrderID(_ context.Context, orderID string) (*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.donations {
		if item.OrderID == orderID {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *serviceDonationRepo) UpdatePayment(_ context.Context, donation *entity.Donation, expected entity.DonationStatus) error {
	if r.updatePaymentFn != nil {
		if err := r.updatePaymentFn(donation, expected); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.donations[donation.ID]
	if !ok {
		return repository.ErrDonationNotFound
	}
	if item.PaymentStatus != expected {
		return repository.ErrStatusConflict
	}
	copyItem := *donation
	r.donations[donation.ID] = &copyItem
	return nil
}

func (r *serviceDonationRepo) UpdateSessionID(_ context.Context, id, sessionID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.donations[id]
	if !ok {
		return repository.ErrDonationNotFound
	}
	item.PaymentSessionID = &sessionID
	item.UpdatedAt = now
	return nil
}

func (r *serviceDonationRepo) List(_ context.Context, filter repository.DonationFilter) ([]*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.Donation, 0)
	for _, item := range r.donations {
		if filter.Status != "" && item.PaymentStatus != filter.Status {
			continue
		}
		copyItem := *item
		items = append(items, &copyItem)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if filter.Limit > 0 && int(filter.Limit) < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (r *serviceDonationRepo) ListStalePending(_ context.Context, cutoff time.Time, limit int32) ([]*entity.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.Donation, 0)
	for _, item := range r.donations {
		if item.PaymentStatus == entity.DonationStatusPending && item.UpdatedAt.Before(cutoff) {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.Before(items[j].UpdatedAt) })
	if int(limit) < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (r *serviceDonationRepo) FailStalePending(_ context.Context, cutoff, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, item := range r.donations {
		if item.PaymentStatus == entity.DonationStatusPending && item.UpdatedAt.Before(cutoff) {
			item.PaymentStatus = entity.DonationStatusFailed
			item.UpdatedAt = now
			changed++
		}
	}
	return changed, nil
}

func (r *serviceDonationRepo) Stats(_ context.Context) (*repository.DonationStats, error) {
	return &repository.DonationStats{}, nil
}

type serviceEventRepo struct {
	events []*entity.DonationEvent
}

func (r *serviceEventRepo) Create(_ context.Context, event *entity.DonationEvent) error {
	copyItem := *event
	r.events = append(r.events, &copyItem)
	return nil
}

type serviceWebhookLogRepo struct {
	logs     []*entity.WebhookLog
	createFn func(log *entity.WebhookLog) error
}

func (r *serviceWebhookLogRepo) Create(_ context.Context, log *entity.WebhookLog) error {
	if r.createFn != nil {
		if err := r.createFn(log); err != nil {
			return err
		}
	}
	copyItem := *log
	r.logs = append(r.logs, &copyItem)
	return nil
}

func (r *serviceWebhookLogRepo) countByStatus(status int32) int {
	n := 0
	for _, item := range r.logs {
		if item.Status == status {
			n++
		}
	}
	return n
}

type fakeGateway struct {
	createOrderFn    func(input *provider.CreateOrderInput) (*provider.CreateOrderOutput, error)
	verifyWebhookFn  func(payload []byte, signature, timestamp string) (*provider.WebhookEvent, error)
	getOrderStatusFn func(orderID string) (*provider.OrderStatus, error)
}

func (g *fakeGateway) Code() string {
	return provider.CodeCashfree
}

func (g *fakeGateway) CreateOrder(_ context.Context, input *provider.CreateOrderInput) (*provider.CreateOrderOutput, error) {
	if g.createOrderFn != nil {
		return g.createOrderFn(input)
	}
	return &provider.CreateOrderOutput{
		OrderID:          input.OrderID,
		GatewayOrderID:   "cf_" + input.OrderID,
		PaymentSessionID: "session_" + input.OrderID,
		OrderStatus:      "ACTIVE",
	}, nil
}

func (g *fakeGateway) VerifyAndParseWebhook(_ context.Context, payload []byte, signature, timestamp string) (*provider.WebhookEvent, error) {
	if g.verifyWebhookFn != nil {
		return g.verifyWebhookFn(payload, signature, timestamp)
	}
	return nil, provider.ErrInvalidSignature
}

func (g *fakeGateway) GetOrderStatus(_ context.Context, orderID string) (*provider.OrderStatus, error) {
	if g.getOrderStatusFn != nil {
		return g.getOrderStatusFn(orderID)
	}
	return &provider.OrderStatus{OrderID: orderID, OrderStatus: "ACTIVE"}, nil
}

type fakeReceipts struct {
	sent []string
	err  error
}

func (f *fakeReceipts) SendReceipt(_ context.Context, donation *entity.Donation, _ bool) error {
	f.sent = append(f.sent, donation.OrderID)
	return f.err
}

type fakeMailer struct {
	messages []*mailer.Message
	err      error
}

func (m *fakeMailer) Send(_ context.Context, msg *mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

type donationFixture struct {
	users     *serviceUserRepo
	donations *serviceDonationRepo
	events    *serviceEventRepo
	webhooks  *serviceWebhookLogRepo
	gateway   *fakeGateway
	receipts  *fakeReceipts
	svc       *DonationService
}

func newDonationFixture() *donationFixture {
	f := &donationFixture{
		users:     newServiceUserRepo(),
		donations: newServiceDonationRepo(),
		events:    &serviceEventRepo{},
		webhooks:  &serviceWebhookLogRepo{},
		gateway:   &fakeGateway{},
		receipts:  &fakeReceipts{},
	}
	f.svc = NewDonationService(
		f.users,
		f.donations,
		f.events,
		f.webhooks,
		provider.NewRegistry(f.gateway),
		f.receipts,
		config.DonationsConfig{
			DefaultCurrency:     "INR",
			PendingTimeout:      time.Hour,
			ReconcileStaleAfter: 15 * time.Minute,
			JobBatchSize:        10,
		},
		"https://temple.example/",
	)
	return f
}

func pendingDonation(orderID string, updatedAt time.Time) *entity.Donation {
	return &entity.Donation{
		OrderID:        orderID,
		Currency:       "INR",
		DonationType:   "construction",
		PaymentStatus:  entity.DonationStatusPending,
		PaymentGateway: provider.CodeCashfree,
		ReceiptNumber:  "RCPT-" + orderID,
		CreatedAt:      updatedAt,
		UpdatedAt:      updatedAt,
	}
}

func webhookRequest(payload string) *types.GatewayWebhookRequest {
	return &types.GatewayWebhookRequest{Signature: "sig", Timestamp: "1700000000", Payload: []byte(payload)}
}

func strPtr(s string) *string {
	return &s
}

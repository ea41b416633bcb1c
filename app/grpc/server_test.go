package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type grpcDonationRepo struct {
	findByIDFn         func(ctx context.Context, id string) (*entity.Donation, error)
	findByOrderIDFn    func(ctx context.Context, orderID string) (*entity.Donation, error)
	failStalePendingFn func(ctx context.Context, cutoff, now time.Time) (int64, error)
}

func (r *grpcDonationRepo) Create(context.Context, *entity.Donation) error {
	return nil
}

func (r *grpcDonationRepo) FindByID(ctx context.Context, id string) (*entity.Donation, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *grpcDonationRepo) FindByOrderID(ctx context.Context, orderID string) (*entity.Donation, error) {
	if r.findByOrderIDFn != nil {
		return r.findByOrderIDFn(ctx, orderID)
	}
	return nil, nil
}

func (r *grpcDonationRepo) UpdatePayment(context.Context, *entity.Donation, entity.DonationStatus) error {
	return nil
}

func (r *grpcDonationRepo) UpdateSessionID(context.Context, string, string, time.Time) error {
	return nil
}

func (r *grpcDonationRepo) ListStalePending(context.Context, time.Time, int32) ([]*entity.Donation, error) {
	return []*entity.Donation{}, nil
}

func (r *grpcDonationRepo) FailStalePending(ctx context.Context, cutoff, now time.Time) (int64, error) {
	if r.failStalePendingFn != nil {
		return r.failStalePendingFn(ctx, cutoff, now)
	}
	return 0, nil
}

type grpcUserRepo struct{}

func (r *grpcUserRepo) Create(context.Context, *entity.User) error {
	return nil
}

func (r *grpcUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, nil
}

type grpcEventRepo struct{}

func (r *grpcEventRepo) Create(context.Context, *entity.DonationEvent) error {
	return nil
}

type grpcWebhookRepo struct{}

func (r *grpcWebhookRepo) Create(context.Context, *entity.WebhookLog) error {
	return nil
}

type grpcProvider struct {
	orderStatus *provider.OrderStatus
}

func (p *grpcProvider) Code() string {
	return provider.CodeCashfree
}

func (p *grpcProvider) CreateOrder(context.Context, *provider.CreateOrderInput) (*provider.CreateOrderOutput, error) {
	return &provider.CreateOrderOutput{PaymentSessionID: "session_1"}, nil
}

func (p *grpcProvider) VerifyAndParseWebhook(context.Context, []byte, string, string) (*provider.WebhookEvent, error) {
	return nil, provider.ErrInvalidSignature
}

func (p *grpcProvider) GetOrderStatus(_ context.Context, orderID string) (*provider.OrderStatus, error) {
	if p.orderStatus != nil {
		return p.orderStatus, nil
	}
	return &provider.OrderStatus{OrderID: orderID, OrderStatus: "ACTIVE"}, nil
}

func newGRPCServerForTest(repo *grpcDonationRepo, p provider.Provider) *Server {
	donationService := service.NewDonationService(
		&grpcUserRepo{},
		repo,
		&grpcEventRepo{},
		&grpcWebhookRepo{},
		provider.NewRegistry(p),
		nil,
		config.DonationsConfig{PendingTimeout: time.Hour, ReconcileStaleAfter: 15 * time.Minute, JobBatchSize: 100},
		"https://temple.example",
	)
	return NewServer(donationService)
}

func grpcDonation() *entity.Donation {
	now := time.Now().UTC()
	return &entity.Donation{
		ID:            "7a1c8c9e-8d4f-4f3a-9c55-2b7f1f0a0c01",
		OrderID:       "DON_1_aaaa",
		Currency:      "INR",
		DonationType:  "general",
		PaymentStatus: entity.DonationStatusPending,
		ReceiptNumber: "RCPT-20260101-AAAAAAAA",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func mustStruct(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("struct build failed: %v", err)
	}
	return s
}

func TestGetDonationInvalidArgument(t *testing.T) {
	srv := newGRPCServerForTest(&grpcDonationRepo{}, &grpcProvider{})

	_, err := srv.GetDonation(context.Background(), mustStruct(t, map[string]interface{}{"id": "9"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestGetDonationNotFound(t *testing.T) {
	srv := newGRPCServerForTest(&grpcDonationRepo{}, &grpcProvider{})

	_, err := srv.GetDonation(context.Background(), mustStruct(t, map[string]interface{}{"id": "7a1c8c9e-8d4f-4f3a-9c55-2b7f1f0a0c01"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetDonationSuccess(t *testing.T) {
	srv := newGRPCServerForTest(&grpcDonationRepo{findByIDFn: func(context.Context, string) (*entity.Donation, error) {
		return grpcDonation(), nil
	}}, &grpcProvider{})

	resp, err := srv.GetDonation(context.Background(), mustStruct(t, map[string]interface{}{"id": "7a1c8c9e-8d4f-4f3a-9c55-2b7f1f0a0c01"}))
	if err != nil {
		t.Fatalf("get donation failed: %v", err)
	}
	donation := resp.GetFields()["donation"].GetStructValue()
	if donation.GetFields()["order_id"].GetStringValue() != "DON_1_aaaa" {
		t.Fatalf("unexpected donation payload: %v", resp)
	}
}

func TestVerifyPaymentCompletes(t *testing.T) {
	srv := newGRPCServerForTest(&grpcDonationRepo{findByOrderIDFn: func(context.Context, string) (*entity.Donation, error) {
		return grpcDonation(), nil
	}}, &grpcProvider{orderStatus: &provider.OrderStatus{OrderID: "DON_1_aaaa", OrderStatus: "PAID"}})

	resp, err := srv.VerifyPayment(context.Background(), mustStruct(t, map[string]interface{}{"order_id": "DON_1_aaaa"}))
	if err != nil {
		t.Fatalf("verify payment failed: %v", err)
	}
	paymentStatus := resp.GetFields()["donation"].GetStructValue().GetFields()["payment_status"].GetStringValue()
	if paymentStatus != "completed" {
		t.Fatalf("expected completed, got %q", paymentStatus)
	}
}

func TestRunCleanupOverBufconn(t *testing.T) {
	srv := newGRPCServerForTest(&grpcDonationRepo{failStalePendingFn: func(context.Context, time.Time, time.Time) (int64, error) {
		return 4, nil
	}}, &grpcProvider{})

	lis := bufconn.Listen(1024 * 1024)
	grpcSrv := grpc.NewServer(grpc.ChainUnaryInterceptor(RecoveryInterceptor(), RequestIDInterceptor(), LoggingInterceptor()))
	RegisterDonationsServiceServer(grpcSrv, srv)
	go func() { _ = grpcSrv.Serve(lis) }()
	defer grpcSrv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, FullMethod("RunCleanup"), &structpb.Struct{}, out); err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if out.GetFields()["processed"].GetNumberValue() != 4 || out.GetFields()["job"].GetStringValue() != "cleanup" {
		t.Fatalf("unexpected cleanup response: %v", out)
	}

	health := &structpb.Struct{}
	if err := conn.Invoke(ctx, FullMethod("Health"), &structpb.Struct{}, health); err != nil {
		t.Fatalf("health invoke failed: %v", err)
	}
	if health.GetFields()["status"].GetStringValue() != "ok" {
		t.Fatalf("unexpected health response: %v", health)
	}
}

package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ DonationsServiceServer = (*Server)(nil)

type Server struct {
	donationService *service.DonationService
}

func NewServer(donationService *service.DonationService) *Server {
	return &Server{donationService: donationService}
}

func (s *Server) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(&types.HealthResponse{Success: true, Status: "ok"})
}

func (s *Server) GetDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	getReq := &types.GetDonationRequest{ID: stringField(req, "id")}
	if err := getReq.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	donation, err := s.donationService.GetDonation(ctx, getReq.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err, "Get donation")
	}
	return toStruct(&types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

func (s *Server) VerifyPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	verifyReq := &types.VerifyPaymentRequest{OrderID: stringField(req, "order_id")}
	if err := verifyReq.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	donation, err := s.donationService.VerifyPayment(ctx, verifyReq.OrderID)
	if err != nil {
		return nil, s.toStatus(ctx, err, "Verify payment")
	}
	return toStruct(&types.DonationEnvelopeResponse{Success: true, Donation: mapper.DonationToResponse(donation)})
}

func (s *Server) RunCleanup(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	changed, err := s.donationService.RunCleanupSweep(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err, "Cleanup sweep")
	}
	return toStruct(&types.JobResultResponse{Success: true, Job: "cleanup", Processed: changed})
}

func (s *Server) RunReconcile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	changed, err := s.donationService.RunReconcileBatch(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err, "Reconcile batch")
	}
	return toStruct(&types.JobResultResponse{Success: true, Job: "reconcile", Processed: changed})
}

func (s *Server) toStatus(ctx context.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrDonationNotFound), errors.Is(err, service.ErrOrderNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrGatewayValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrGatewayAuth), errors.Is(err, service.ErrGatewayFailure):
		loggerWithContext(ctx).WithError(err).Warn(action + " failed at the gateway")
		return status.Error(codes.Unavailable, "payment gateway error")
	default:
		loggerWithContext(ctx).WithError(err).Error(action + " failed")
		return status.Error(codes.Internal, "internal server error")
	}
}

func stringField(req *structpb.Struct, name string) string {
	if req == nil {
		return ""
	}
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

// toStruct renders a JSON response type as a Struct so both transports share one shape.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

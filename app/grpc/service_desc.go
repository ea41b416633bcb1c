package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "donations.DonationsService"

// DonationsServiceServer is the internal API. Payloads are google.protobuf.Struct
// so callers need no generated stubs.
type DonationsServiceServer interface {
	Health(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDonation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RunCleanup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	RunReconcile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var DonationsServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DonationsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: unaryHandler("Health", DonationsServiceServer.Health)},
		{MethodName: "GetDonation", Handler: unaryHandler("GetDonation", DonationsServiceServer.GetDonation)},
		{MethodName: "VerifyPayment", Handler: unaryHandler("VerifyPayment", DonationsServiceServer.VerifyPayment)},
		{MethodName: "RunCleanup", Handler: unaryHandler("RunCleanup", DonationsServiceServer.RunCleanup)},
		{MethodName: "RunReconcile", Handler: unaryHandler("RunReconcile", DonationsServiceServer.RunReconcile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "donations.proto",
}

func RegisterDonationsServiceServer(registrar grpc.ServiceRegistrar, srv DonationsServiceServer) {
	registrar.RegisterService(&DonationsServiceDesc, srv)
}

// FullMethod returns the invocation path of a service method.
func FullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unaryHandler(
	method string,
	call func(DonationsServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(DonationsServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(server, ctx, req.(*structpb.Struct))
		})
	}
}

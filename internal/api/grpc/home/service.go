package home

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "smarthome.v1.HomeService"
	// ToggleMethod is the full method name of Toggle.
	ToggleMethod = "/" + ServiceName + "/Toggle"
	// GetStateMethod is the full method name of GetState.
	GetStateMethod = "/" + ServiceName + "/GetState"
	// ActorMetadataKey carries the caller identity (user@host).
	ActorMetadataKey = "actor"
)

// HomeServiceServer is the server API of HomeService.
type HomeServiceServer interface {
	Toggle(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes HomeService for grpc.Server.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HomeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Toggle", Handler: toggleHandler},
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smarthome/v1/home.proto",
}

// Register adds srv to registrar.
func Register(registrar grpc.ServiceRegistrar, srv HomeServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

//nolint:forcetypeassert // The registrar guarantees the server type.
func toggleHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(HomeServiceServer).Toggle(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ToggleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HomeServiceServer).Toggle(ctx, req.(*wrapperspb.StringValue))
	}

	return interceptor(ctx, in, info, handler)
}

//nolint:forcetypeassert // The registrar guarantees the server type.
func getStateHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(HomeServiceServer).GetState(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HomeServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}

	return interceptor(ctx, in, info, handler)
}

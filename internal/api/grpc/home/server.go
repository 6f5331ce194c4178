package home

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/controller"
)

// Service abstracts the controller operations the transport depends on.
type Service interface {
	Submit(ctx context.Context, origin string, action domain.Action) (domain.Snapshot, error)
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// Server implements HomeServiceServer.
type Server struct {
	// service runs the requests on the poll loop.
	service Service
}

// NewServer wires service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{service: service}
}

// Toggle applies the named action and returns the resulting state.
func (s *Server) Toggle(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil || req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "action is required")
	}

	origin := "grpc:" + ActorFromContext(ctx)

	snap, err := s.service.Submit(ctx, origin, domain.Action(req.GetValue()))
	if err != nil {
		return nil, toStatus(err)
	}

	logger.InfoKV(ctx, "Toggle served", "action", req.GetValue(), "origin", origin)

	return toStruct(snap)
}

// GetState returns the current state.
func (s *Server) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.service.Snapshot(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(snap)
}

// ActorFromContext returns the caller identity sent in metadata, or "anonymous".
func ActorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "anonymous"
	}

	if values := md.Get(ActorMetadataKey); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	return "anonymous"
}

func toStruct(snap domain.Snapshot) (*structpb.Struct, error) {
	result, err := structpb.NewStruct(snap.Fields())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode state")
	}

	return result, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, controller.ErrUnknownAction):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, controller.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

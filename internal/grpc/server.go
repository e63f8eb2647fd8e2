package grpcserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"userAuthService/internal/auth"
	"userAuthService/internal/config"
	"userAuthService/internal/service"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// AuthFlow is the part of the auth service exposed over gRPC.
type AuthFlow interface {
	SignUp(ctx context.Context, req service.SignUpRequest) (*service.MessageResponse, error)
	SignIn(ctx context.Context, req service.SignInRequest) (*service.SignInResponse, error)
	DeleteByUsername(ctx context.Context, username string) error
}

// Server implements AuthServiceServer on top of an AuthFlow.
type Server struct {
	Flow AuthFlow
	Log  zerolog.Logger
}

var _ AuthServiceServer = (*Server)(nil)

// SignUp registers a user. Request fields: username, email, password, roles.
func (s *Server) SignUp(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.Flow.SignUp(ctx, service.SignUpRequest{
		Username: stringField(in, "username"),
		Email:    stringField(in, "email"),
		Password: stringField(in, "password"),
		Roles:    stringsField(in, "roles"),
	})
	if err != nil {
		return nil, s.toStatus(MethodSignUp, err)
	}
	return structpb.NewStruct(map[string]any{"message": resp.Message})
}

// SignIn verifies credentials and returns a bearer token.
func (s *Server) SignIn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	resp, err := s.Flow.SignIn(ctx, service.SignInRequest{
		Username: stringField(in, "username"),
		Password: stringField(in, "password"),
	})
	if err != nil {
		return nil, s.toStatus(MethodSignIn, err)
	}
	return structpb.NewStruct(map[string]any{
		"token":    resp.Token,
		"type":     resp.Type,
		"id":       resp.ID,
		"username": resp.Username,
		"email":    resp.Email,
		"roles":    anySlice(resp.Roles),
	})
}

// DeleteUser removes all users with the given username. Missing users are
// not an error.
func (s *Server) DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.Flow.DeleteByUsername(ctx, stringField(in, "username")); err != nil {
		return nil, s.toStatus(MethodDeleteUser, err)
	}
	return &structpb.Struct{}, nil
}

// WhoAmI returns the identity carried by the caller's bearer token.
func (s *Server) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"username": id.Username,
		"roles":    anySlice(id.Roles),
	})
}

// toStatus maps flow errors to gRPC codes. Unexpected errors are logged and
// reported without detail.
func (s *Server) toStatus(method string, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case service.IsConflict(err):
		return status.Error(codes.AlreadyExists, err.Error())
	case service.IsAuthentication(err):
		return status.Error(codes.Unauthenticated, err.Error())
	}
	s.Log.Error().Err(err).Str("method", method).Msg("request failed")
	return status.Error(codes.Internal, "internal server error")
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func stringsField(in *structpb.Struct, key string) []string {
	vals := in.GetFields()[key].GetListValue().GetValues()
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.GetStringValue())
	}
	return out
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		ev := logger.Info()
		if code == codes.Internal || code == codes.Unknown {
			ev = logger.Error()
		}
		ev.Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("latency", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

// NewServer builds a gRPC server with the auth and health services
// registered. Only WhoAmI requires a bearer token. RPCs are traced through
// otelgrpc; without options the global tracer provider is used.
func NewServer(flow AuthFlow, issuer *auth.TokenIssuer, logger zerolog.Logger, traceOpts ...otelgrpc.Option) (*grpc.Server, *health.Server) {
	log := logger.With().Str("component", "grpc").Logger()

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler(traceOpts...)),
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(log),
			auth.NewUnaryAuthInterceptor(issuer, healthCheckMethod, MethodSignUp, MethodSignIn, MethodDeleteUser),
		),
	)

	RegisterAuthServiceServer(srv, &Server{Flow: flow, Log: log})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

// StartGRPC starts the gRPC server on the configured address and returns the
// bound address and a shutdown function.
func StartGRPC(cfg *config.Config, flow AuthFlow, issuer *auth.TokenIssuer, logger zerolog.Logger) (net.Addr, func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := strings.TrimSpace(cfg.GRPC.Address)
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	srv, hs := NewServer(flow, issuer, logger)

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	return lis.Addr(), func(ctx context.Context) error {
		hs.Shutdown()
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

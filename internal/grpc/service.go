package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Fully-qualified method names of auth.v1.AuthService.
const (
	ServiceName      = "auth.v1.AuthService"
	MethodSignUp     = "/" + ServiceName + "/SignUp"
	MethodSignIn     = "/" + ServiceName + "/SignIn"
	MethodDeleteUser = "/" + ServiceName + "/DeleteUser"
	MethodWhoAmI     = "/" + ServiceName + "/WhoAmI"
)

// AuthServiceServer is the server API for auth.v1.AuthService. Messages are
// google.protobuf.Struct so the service needs no generated code.
type AuthServiceServer interface {
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&authServiceDesc, srv)
}

type structMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(MethodSignUp, AuthServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(MethodSignIn, AuthServiceServer.SignIn)},
		{MethodName: "DeleteUser", Handler: unaryHandler(MethodDeleteUser, AuthServiceServer.DeleteUser)},
		{MethodName: "WhoAmI", Handler: unaryHandler(MethodWhoAmI, AuthServiceServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth/v1/auth.proto",
}

// AuthServiceClient calls auth.v1.AuthService over a client connection.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient returns a client bound to cc.
func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) SignUp(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSignUp, in, opts...)
}

func (c *AuthServiceClient) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSignIn, in, opts...)
}

func (c *AuthServiceClient) DeleteUser(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDeleteUser, in, opts...)
}

func (c *AuthServiceClient) WhoAmI(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodWhoAmI, in, opts...)
}

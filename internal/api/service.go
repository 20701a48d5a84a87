package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "chordsim.v1.Ring"

// Method names.
const (
	MethodMount         = "Mount"
	MethodListNodes     = "ListNodes"
	MethodListMembers   = "ListMembers"
	MethodActivate      = "Activate"
	MethodDeactivate    = "Deactivate"
	MethodJoin          = "Join"
	MethodLeave         = "Leave"
	MethodInsert        = "Insert"
	MethodSearch        = "Search"
	MethodListResources = "ListResources"
	MethodInfo          = "Info"
)

// FullMethod returns the gRPC path of a method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// RingServer is the server API for the Ring service.
type RingServer interface {
	Mount(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListNodes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListMembers(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Activate(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Deactivate(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Join(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Leave(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Insert(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Search(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListResources(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Info(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// unaryHandler adapts a RingServer method to a grpc method handler.
func unaryHandler[T any, PT interface {
	*T
	proto.Message
}](method string, call func(RingServer, context.Context, PT) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PT(new(T))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RingServer), ctx, req.(PT))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for the Ring service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodMount, Handler: unaryHandler(MethodMount, RingServer.Mount)},
		{MethodName: MethodListNodes, Handler: unaryHandler(MethodListNodes, RingServer.ListNodes)},
		{MethodName: MethodListMembers, Handler: unaryHandler(MethodListMembers, RingServer.ListMembers)},
		{MethodName: MethodActivate, Handler: unaryHandler(MethodActivate, RingServer.Activate)},
		{MethodName: MethodDeactivate, Handler: unaryHandler(MethodDeactivate, RingServer.Deactivate)},
		{MethodName: MethodJoin, Handler: unaryHandler(MethodJoin, RingServer.Join)},
		{MethodName: MethodLeave, Handler: unaryHandler(MethodLeave, RingServer.Leave)},
		{MethodName: MethodInsert, Handler: unaryHandler(MethodInsert, RingServer.Insert)},
		{MethodName: MethodSearch, Handler: unaryHandler(MethodSearch, RingServer.Search)},
		{MethodName: MethodListResources, Handler: unaryHandler(MethodListResources, RingServer.ListResources)},
		{MethodName: MethodInfo, Handler: unaryHandler(MethodInfo, RingServer.Info)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chordsim/v1/ring.proto",
}

// RegisterRingServer registers srv on s.
func RegisterRingServer(s grpc.ServiceRegistrar, srv RingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// RingClient is the client API for the Ring service.
type RingClient struct {
	cc grpc.ClientConnInterface
}

// NewRingClient creates a client over cc.
func NewRingClient(cc grpc.ClientConnInterface) *RingClient {
	return &RingClient{cc: cc}
}

// Invoke calls method with in and returns the response Struct.
func (c *RingClient) Invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

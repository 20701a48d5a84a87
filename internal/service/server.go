package service

import (
	"context"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"chordsim/internal/api"
	"chordsim/internal/cluster"
	"chordsim/internal/config"
	"chordsim/internal/idspace"
)

// RequestIDKey is the metadata key carrying a client-generated request id.
const RequestIDKey = "x-request-id"

// Server implements api.RingServer over a cluster.
type Server struct {
	name    string
	cluster *cluster.Cluster
}

// NewServer creates a new gRPC server instance.
func NewServer(name string, c *cluster.Cluster) *Server {
	return &Server{
		name:    name,
		cluster: c,
	}
}

func requestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if ids := md.Get(RequestIDKey); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// Mount handles Mount requests.
func (s *Server) Mount(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	log.Printf("[%s] Mount request: count=%d, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	nodes, err := s.cluster.Mount(int(req.GetValue()))
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodesToStruct(nodes), nil
}

// ListNodes handles ListNodes requests.
func (s *Server) ListNodes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return api.NodesToStruct(s.cluster.Nodes()), nil
}

// ListMembers handles ListMembers requests.
func (s *Server) ListMembers(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return api.MembersToStruct(s.cluster.Members()), nil
}

// Activate handles Activate requests.
func (s *Server) Activate(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	log.Printf("[%s] Activate request: slot=%d, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	node, err := s.cluster.Activate(int(req.GetValue()))
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodeToStruct(node), nil
}

// Deactivate handles Deactivate requests.
func (s *Server) Deactivate(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	log.Printf("[%s] Deactivate request: slot=%d, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	node, err := s.cluster.Deactivate(int(req.GetValue()))
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodeToStruct(node), nil
}

// Join handles Join requests for an explicit ip:port address.
func (s *Server) Join(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log.Printf("[%s] Join request: addr=%s, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	addr, err := config.ParseAddress(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	node, err := s.cluster.Join(addr)
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodeToStruct(node), nil
}

// Leave handles Leave requests naming a ring position.
func (s *Server) Leave(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	log.Printf("[%s] Leave request: position=%d, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	node, err := s.cluster.Leave(int(req.GetValue()))
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodeToStruct(node), nil
}

// Insert handles Insert requests.
func (s *Server) Insert(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log.Printf("[%s] Insert request: resource=%s, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	node, err := s.cluster.Insert(req.GetValue())
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.NodeToStruct(node), nil
}

// Search handles Search requests. A miss is a successful response with
// found=false.
func (s *Server) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log.Printf("[%s] Search request: resource=%s, request_id=%s", s.name, req.GetValue(), requestID(ctx))

	res, err := s.cluster.Search(req.GetValue())
	if err != nil {
		return nil, api.ToStatus(err)
	}
	return api.SearchToStruct(res), nil
}

// ListResources handles ListResources requests.
func (s *Server) ListResources(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return api.ResourcesToStruct(s.cluster.Resources()), nil
}

// Info reports the identifier-space parameters and member count.
func (s *Server) Info(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	r := s.cluster.Ring()
	return api.InfoToStruct(api.Info{
		Hash:        idspace.HashName,
		SpaceSize:   r.Space().Size(),
		MemberCount: r.Len(),
	}), nil
}

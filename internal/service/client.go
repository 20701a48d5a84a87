package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"chordsim/internal/api"
	"chordsim/internal/cluster"
	"chordsim/internal/ring"
)

// Client drives a remote ring service.
type Client struct {
	conn *grpc.ClientConn
	ring *api.RingClient
}

// Dial creates a client for the service at addr. Extra options are applied
// after the default insecure transport credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{
		conn: conn,
		ring: api.NewRingClient(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call stamps the request with a fresh request id and maps status errors
// back to domain errors.
func (c *Client) call(ctx context.Context, method string, in proto.Message) (*structpb.Struct, error) {
	ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, uuid.New().String())
	out, err := c.ring.Invoke(ctx, method, in)
	if err != nil {
		return nil, api.FromStatus(err)
	}
	return out, nil
}

func (c *Client) node(ctx context.Context, method string, in proto.Message) (ring.Node, error) {
	out, err := c.call(ctx, method, in)
	if err != nil {
		return ring.Node{}, err
	}
	return api.NodeFromStruct(out)
}

// Mount builds n more nodes on the server.
func (c *Client) Mount(ctx context.Context, n int) ([]ring.Node, error) {
	out, err := c.call(ctx, api.MethodMount, wrapperspb.Int64(int64(n)))
	if err != nil {
		return nil, err
	}
	return api.NodesFromStruct(out)
}

// Nodes lists ring members in order.
func (c *Client) Nodes(ctx context.Context) ([]ring.Node, error) {
	out, err := c.call(ctx, api.MethodListNodes, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return api.NodesFromStruct(out)
}

// Members lists roster slots.
func (c *Client) Members(ctx context.Context) ([]cluster.Member, error) {
	out, err := c.call(ctx, api.MethodListMembers, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return api.MembersFromStruct(out)
}

// Activate joins a roster slot.
func (c *Client) Activate(ctx context.Context, slot int) (ring.Node, error) {
	return c.node(ctx, api.MethodActivate, wrapperspb.Int64(int64(slot)))
}

// Deactivate removes a roster slot from the ring.
func (c *Client) Deactivate(ctx context.Context, slot int) (ring.Node, error) {
	return c.node(ctx, api.MethodDeactivate, wrapperspb.Int64(int64(slot)))
}

// Join joins an explicit address.
func (c *Client) Join(ctx context.Context, addr ring.Address) (ring.Node, error) {
	return c.node(ctx, api.MethodJoin, wrapperspb.String(addr.String()))
}

// Leave removes the member at a ring position.
func (c *Client) Leave(ctx context.Context, pos int) (ring.Node, error) {
	return c.node(ctx, api.MethodLeave, wrapperspb.Int64(int64(pos)))
}

// Insert stores a resource.
func (c *Client) Insert(ctx context.Context, resource string) (ring.Node, error) {
	return c.node(ctx, api.MethodInsert, wrapperspb.String(resource))
}

// Search looks a resource up.
func (c *Client) Search(ctx context.Context, resource string) (cluster.SearchResult, error) {
	out, err := c.call(ctx, api.MethodSearch, wrapperspb.String(resource))
	if err != nil {
		return cluster.SearchResult{}, err
	}
	return api.SearchFromStruct(out)
}

// Resources lists every stored resource.
func (c *Client) Resources(ctx context.Context) ([]ring.Resource, error) {
	out, err := c.call(ctx, api.MethodListResources, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return api.ResourcesFromStruct(out)
}

// Info returns the server's identifier-space parameters.
func (c *Client) Info(ctx context.Context) (api.Info, error) {
	out, err := c.call(ctx, api.MethodInfo, &emptypb.Empty{})
	if err != nil {
		return api.Info{}, err
	}
	return api.InfoFromStruct(out)
}

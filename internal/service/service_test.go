package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"chordsim/internal/cluster"
	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

// startTestService serves a fresh cluster over an in-memory listener.
func startTestService(t *testing.T) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	c := cluster.New(ring.New(idspace.Default()), "127.0.0.1", 8000)
	svc := New("test", "bufnet", c)

	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(lis)
	}()

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		svc.Stop()
		<-done
	})
	return client
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestService_Scenario_InsertDeactivateSearch(t *testing.T) {
	client := startTestService(t)
	ctx := testContext(t)

	nodes, err := client.Mount(ctx, 3)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	owner, err := client.Insert(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, idspace.ID(30475194), owner.ID, "alpha wraps around to the minimum member")
	assert.Equal(t, []string{"alpha"}, owner.Resources)

	res, err := client.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "alpha", res.Resource)

	// 127.0.0.1:8000 holds slot 0
	left, err := client.Deactivate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, left.ID)

	res, err = client.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.NotEqual(t, owner.ID, res.Node.ID)
}

func TestService_ListOperations(t *testing.T) {
	client := startTestService(t)
	ctx := testContext(t)

	_, err := client.Mount(ctx, 3)
	require.NoError(t, err)
	_, err = client.Insert(ctx, "alpha")
	require.NoError(t, err)
	_, err = client.Deactivate(ctx, 2)
	require.NoError(t, err)

	nodes, err := client.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Less(t, nodes[0].ID, nodes[1].ID)
	assert.Equal(t, nodes[1].ID, nodes[0].Successor)

	members, err := client.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.False(t, members[2].Active)

	resources, err := client.Resources(ctx)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "alpha", resources[0].Name)

	info, err := client.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, idspace.HashName, info.Hash)
	assert.Equal(t, idspace.DefaultSize, info.SpaceSize)
	assert.Equal(t, 2, info.MemberCount)
}

func TestService_ErrorsCrossTheWire(t *testing.T) {
	client := startTestService(t)
	ctx := testContext(t)

	_, err := client.Insert(ctx, "x")
	assert.ErrorIs(t, err, ring.ErrEmptyRing)
	_, err = client.Search(ctx, "x")
	assert.ErrorIs(t, err, ring.ErrEmptyRing)

	_, err = client.Mount(ctx, 0)
	assert.ErrorIs(t, err, cluster.ErrInvalidCount)

	_, err = client.Mount(ctx, 2)
	require.NoError(t, err)

	_, err = client.Activate(ctx, 0)
	assert.ErrorIs(t, err, ring.ErrDuplicateAddress)
	_, err = client.Deactivate(ctx, 9)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)
	_, err = client.Leave(ctx, 5)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)
	_, err = client.Join(ctx, ring.Address{IP: "127.0.0.1", Port: 8000})
	assert.ErrorIs(t, err, ring.ErrDuplicateAddress)
}

func TestService_JoinLeaveExplicit(t *testing.T) {
	client := startTestService(t)
	ctx := testContext(t)

	node, err := client.Join(ctx, ring.Address{IP: "10.1.1.1", Port: 9000})
	require.NoError(t, err)
	assert.Equal(t, idspace.Default().Derive("10.1.1.1:9000"), node.ID)

	left, err := client.Leave(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, node.ID, left.ID)

	nodes, err := client.Nodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestService_StopBeforeServe(t *testing.T) {
	svc := New("test", "bufnet", cluster.New(ring.New(idspace.Default()), "127.0.0.1", 8000))
	svc.Stop()

	lis := bufconn.Listen(1 << 10)
	assert.NoError(t, svc.Serve(lis))
}

package shell

import (
	"context"

	"chordsim/internal/cluster"
	"chordsim/internal/ring"
)

// Backend is the set of operations the shell issues. It is satisfied by
// *service.Client and, through Local, by an in-process cluster.
type Backend interface {
	Mount(ctx context.Context, n int) ([]ring.Node, error)
	Nodes(ctx context.Context) ([]ring.Node, error)
	Members(ctx context.Context) ([]cluster.Member, error)
	Activate(ctx context.Context, slot int) (ring.Node, error)
	Deactivate(ctx context.Context, slot int) (ring.Node, error)
	Insert(ctx context.Context, resource string) (ring.Node, error)
	Search(ctx context.Context, resource string) (cluster.SearchResult, error)
	Resources(ctx context.Context) ([]ring.Resource, error)
}

// Local adapts an in-process cluster to Backend. Cluster operations never
// block, so the contexts are unused.
func Local(c *cluster.Cluster) Backend {
	return local{c: c}
}

type local struct {
	c *cluster.Cluster
}

func (l local) Mount(_ context.Context, n int) ([]ring.Node, error) {
	return l.c.Mount(n)
}

func (l local) Nodes(context.Context) ([]ring.Node, error) {
	return l.c.Nodes(), nil
}

func (l local) Members(context.Context) ([]cluster.Member, error) {
	return l.c.Members(), nil
}

func (l local) Activate(_ context.Context, slot int) (ring.Node, error) {
	return l.c.Activate(slot)
}

func (l local) Deactivate(_ context.Context, slot int) (ring.Node, error) {
	return l.c.Deactivate(slot)
}

func (l local) Insert(_ context.Context, resource string) (ring.Node, error) {
	return l.c.Insert(resource)
}

func (l local) Search(_ context.Context, resource string) (cluster.SearchResult, error) {
	return l.c.Search(resource)
}

func (l local) Resources(context.Context) ([]ring.Resource, error) {
	return l.c.Resources(), nil
}

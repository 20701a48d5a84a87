package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

func newCluster() *Cluster {
	return New(ring.New(idspace.Default()), "127.0.0.1", 8000)
}

func TestCluster_Mount(t *testing.T) {
	c := newCluster()

	nodes, err := c.Mount(3)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
	assert.Equal(t, 8000, nodes[0].Addr.Port)
	assert.Equal(t, 8002, nodes[2].Addr.Port)

	// A second mount continues the port sequence
	more, err := c.Mount(2)
	require.NoError(t, err)
	assert.Equal(t, 8003, more[0].Addr.Port)
	assert.Len(t, c.Nodes(), 5)
	assert.Len(t, c.Members(), 5)
}

func TestCluster_MountInvalidCount(t *testing.T) {
	c := newCluster()

	_, err := c.Mount(0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = c.Mount(-2)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestCluster_MountPortRange(t *testing.T) {
	c := New(ring.New(idspace.Default()), "127.0.0.1", 65534)

	_, err := c.Mount(4)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Empty(t, c.Members(), "a rejected mount must not enroll or join anything")
	assert.Empty(t, c.Nodes())

	_, err = c.Mount(1 << 62)
	assert.ErrorIs(t, err, ErrInvalidCount)

	nodes, err := c.Mount(2)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, 65535, nodes[1].Addr.Port)

	// Every port is used now
	_, err = c.Mount(1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	assert.Len(t, c.Members(), 2)
}

func TestCluster_RejectedJoinLeavesRosterUnchanged(t *testing.T) {
	// Every address hashes to 0 in a space of size 1
	space, _ := idspace.New(1)
	c := New(ring.New(space), "127.0.0.1", 8000)

	_, err := c.Mount(1)
	require.NoError(t, err)

	_, err = c.Join(ring.Address{IP: "10.0.0.1", Port: 9000})
	assert.ErrorIs(t, err, ring.ErrDuplicateIdentifier)
	assert.Len(t, c.Members(), 1)

	nodes, err := c.Mount(2)
	assert.ErrorIs(t, err, ring.ErrDuplicateIdentifier)
	assert.Empty(t, nodes)
	assert.Len(t, c.Members(), 1)

	// The slot survives a deactivate and can be rejoined without a second entry
	_, err = c.Deactivate(0)
	require.NoError(t, err)
	_, err = c.Join(ring.Address{IP: "127.0.0.1", Port: 8000})
	require.NoError(t, err)
	assert.Len(t, c.Members(), 1)
}

func TestCluster_DeactivateActivate(t *testing.T) {
	c := newCluster()
	_, err := c.Mount(3)
	require.NoError(t, err)

	left, err := c.Deactivate(1)
	require.NoError(t, err)
	assert.Equal(t, ring.Address{IP: "127.0.0.1", Port: 8001}, left.Addr)
	assert.Len(t, c.Nodes(), 2)

	members := c.Members()
	require.Len(t, members, 3)
	assert.False(t, members[1].Active)
	assert.Equal(t, idspace.ID(31102026), members[1].ID, "inactive slot still reports its derived id")

	// Deactivating twice names no member
	_, err = c.Deactivate(1)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)

	joined, err := c.Activate(1)
	require.NoError(t, err)
	assert.Equal(t, left.ID, joined.ID)
	assert.True(t, c.Members()[1].Active)
}

func TestCluster_ActivateErrors(t *testing.T) {
	c := newCluster()
	_, err := c.Mount(2)
	require.NoError(t, err)

	_, err = c.Activate(0)
	assert.ErrorIs(t, err, ring.ErrDuplicateAddress)

	_, err = c.Activate(7)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)
	_, err = c.Deactivate(-1)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)
}

func TestCluster_JoinEnrollsOnce(t *testing.T) {
	c := newCluster()
	addr := ring.Address{IP: "10.0.0.5", Port: 7000}

	_, err := c.Join(addr)
	require.NoError(t, err)
	_, err = c.Join(addr)
	assert.ErrorIs(t, err, ring.ErrDuplicateAddress)
	assert.Len(t, c.Members(), 1)
}

func TestCluster_Leave(t *testing.T) {
	c := newCluster()
	_, err := c.Mount(3)
	require.NoError(t, err)

	node, err := c.Leave(0)
	require.NoError(t, err)
	assert.Equal(t, idspace.ID(30475194), node.ID)

	_, err = c.Leave(5)
	assert.ErrorIs(t, err, ring.ErrUnknownNode)
}

func TestCluster_ResourceOperations(t *testing.T) {
	c := newCluster()

	_, err := c.Insert("x")
	assert.ErrorIs(t, err, ring.ErrEmptyRing)

	_, err = c.Mount(3)
	require.NoError(t, err)

	owner, err := c.Insert("alpha")
	require.NoError(t, err)

	res, err := c.Search("alpha")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "alpha", res.Resource)
	assert.Equal(t, owner.ID, res.Node.ID)

	resources := c.Resources()
	require.Len(t, resources, 1)
	assert.Equal(t, ring.Resource{Name: "alpha", Owner: owner.ID}, resources[0])
}

func TestCluster_Scenario_OwnerDeactivated(t *testing.T) {
	c := newCluster()
	_, err := c.Mount(3)
	require.NoError(t, err)

	owner, err := c.Insert("alpha")
	require.NoError(t, err)

	for _, m := range c.Members() {
		if m.ID == owner.ID {
			_, err := c.Deactivate(m.Slot)
			require.NoError(t, err)
		}
	}

	res, err := c.Search("alpha")
	require.NoError(t, err)
	assert.False(t, res.Found, "resources are not migrated when their owner leaves")
	assert.Empty(t, c.Resources())
}

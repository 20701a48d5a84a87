package cluster

import (
	"errors"
	"fmt"
	"sync"

	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

// ErrInvalidCount is returned when Mount is asked for no nodes, or for more
// nodes than there are ports left after the last generated address.
var ErrInvalidCount = errors.New("invalid node count")

// maxPort is the highest port a generated address may use.
const maxPort = 65535

// SearchResult is the outcome of a resource search. Node is the member that
// was consulted, whether or not it held the resource.
type SearchResult struct {
	Resource string
	Node     ring.Node
	Found    bool
}

// Member is a roster slot and, when active, its ring membership.
type Member struct {
	Slot   int
	Addr   ring.Address
	ID     idspace.ID
	Active bool
}

// Cluster owns a ring and the roster of addresses known to it.
type Cluster struct {
	mu       sync.Mutex
	ring     *ring.Ring
	roster   []ring.Address
	slots    map[ring.Address]int
	baseIP   string
	nextPort int
}

// New creates a cluster over r. Generated addresses use baseIP and
// consecutive ports starting at basePort.
func New(r *ring.Ring, baseIP string, basePort int) *Cluster {
	return &Cluster{
		ring:     r,
		roster:   make([]ring.Address, 0),
		slots:    make(map[ring.Address]int),
		baseIP:   baseIP,
		nextPort: basePort,
	}
}

// Ring returns the underlying ring.
func (c *Cluster) Ring() *ring.Ring {
	return c.ring
}

// Mount generates n new addresses and joins each of them. It stops at the
// first failed join and returns the nodes joined so far. The failed address
// gets no roster slot, but its port is not generated again.
func (c *Cluster) Mount(n int) ([]ring.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		return nil, fmt.Errorf("mount %d: must be positive: %w", n, ErrInvalidCount)
	}
	if free := maxPort - c.nextPort + 1; n > free {
		return nil, fmt.Errorf("mount %d: only %d ports left from %d: %w", n, max(free, 0), c.nextPort, ErrInvalidCount)
	}

	var nodes []ring.Node
	for i := 0; i < n; i++ {
		addr := ring.Address{IP: c.baseIP, Port: c.nextPort}
		c.nextPort++

		node, err := c.ring.Join(addr)
		if err != nil {
			return nodes, err
		}
		c.enroll(addr)
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Join joins addr and, once it is a member, enrolls it in the roster if it
// is new. A rejected join leaves the roster unchanged.
func (c *Cluster) Join(addr ring.Address) (ring.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, err := c.ring.Join(addr)
	if err != nil {
		return ring.Node{}, err
	}
	c.enroll(addr)
	return node, nil
}

func (c *Cluster) enroll(addr ring.Address) int {
	if slot, ok := c.slots[addr]; ok {
		return slot
	}
	c.roster = append(c.roster, addr)
	c.slots[addr] = len(c.roster) - 1
	return len(c.roster) - 1
}

// Members lists every roster slot in slot order.
func (c *Cluster) Members() []Member {
	c.mu.Lock()
	defer c.mu.Unlock()

	members := make([]Member, 0, len(c.roster))
	for slot, addr := range c.roster {
		m := Member{Slot: slot, Addr: addr}
		if node, ok := c.ring.LookupAddr(addr); ok {
			m.ID = node.ID
			m.Active = true
		} else {
			m.ID = c.ring.Space().Derive(addr.String())
		}
		members = append(members, m)
	}
	return members
}

// Nodes lists active members in ring order.
func (c *Cluster) Nodes() []ring.Node {
	return c.ring.Nodes()
}

// Activate joins the address held in slot.
func (c *Cluster) Activate(slot int) (ring.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr, err := c.slot(slot)
	if err != nil {
		return ring.Node{}, err
	}
	return c.ring.Join(addr)
}

// Deactivate removes the member joined from slot. Its resources are dropped.
func (c *Cluster) Deactivate(slot int) (ring.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr, err := c.slot(slot)
	if err != nil {
		return ring.Node{}, err
	}
	node, ok := c.ring.LookupAddr(addr)
	if !ok {
		return ring.Node{}, fmt.Errorf("slot %d (%s) is not active: %w", slot, addr, ring.ErrUnknownNode)
	}
	return c.ring.Leave(node.ID)
}

// Leave removes the member at pos in ring order.
func (c *Cluster) Leave(pos int) (ring.Node, error) {
	return c.ring.LeaveAt(pos)
}

func (c *Cluster) slot(slot int) (ring.Address, error) {
	if slot < 0 || slot >= len(c.roster) {
		return ring.Address{}, fmt.Errorf("slot %d: %w", slot, ring.ErrUnknownNode)
	}
	return c.roster[slot], nil
}

// Insert stores resource on its responsible node.
func (c *Cluster) Insert(resource string) (ring.Node, error) {
	return c.ring.InsertResource(resource)
}

// Search looks resource up on its responsible node.
func (c *Cluster) Search(resource string) (SearchResult, error) {
	match, node, found, err := c.ring.SearchResource(resource)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Resource: match, Node: node, Found: found}, nil
}

// Resources lists every resource held by an active node.
func (c *Cluster) Resources() []ring.Resource {
	return c.ring.Resources()
}

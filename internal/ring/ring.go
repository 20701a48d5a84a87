package ring

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/trees/avltree"
	"github.com/emirpasic/gods/utils"

	"chordsim/internal/idspace"
	"chordsim/internal/storage"
)

var (
	// ErrEmptyRing is returned by routing operations on a ring with no members.
	ErrEmptyRing = errors.New("ring has no members")
	// ErrUnknownNode is returned when an identifier or position names no member.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateAddress is returned when an address is already a member.
	ErrDuplicateAddress = errors.New("address already joined")
	// ErrDuplicateIdentifier is returned when a new address hashes to the
	// identifier of an existing member.
	ErrDuplicateIdentifier = errors.New("identifier already taken")
)

// Address is a member's network address.
type Address struct {
	IP   string
	Port int
}

// String returns the address in ip:port form.
func (a Address) String() string {
	return idspace.AddressKey(a.IP, a.Port)
}

// Node is a point-in-time view of a ring member.
type Node struct {
	ID          idspace.ID
	Addr        Address
	Successor   idspace.ID
	Predecessor idspace.ID
	Resources   []string
}

// Resource is a stored resource name and the member holding it.
type Resource struct {
	Name  string
	Owner idspace.ID
}

// member is the mutable record behind a Node. successor and predecessor are
// derived from ring order and rewritten on every membership change.
type member struct {
	id          idspace.ID
	addr        Address
	store       storage.Store
	successor   *member
	predecessor *member
}

func (m *member) snapshot() Node {
	return Node{
		ID:          m.id,
		Addr:        m.addr,
		Successor:   m.successor.id,
		Predecessor: m.predecessor.id,
		Resources:   m.store.List(),
	}
}

// Ring is an ordered, circular set of members.
type Ring struct {
	mu    sync.RWMutex
	space idspace.Space
	index *avltree.Tree // uint64(id) -> *member
	addrs map[Address]*member
}

// New creates an empty ring over the given identifier space.
func New(space idspace.Space) *Ring {
	return &Ring{
		space: space,
		index: avltree.NewWith(utils.UInt64Comparator),
		addrs: make(map[Address]*member),
	}
}

// Space returns the identifier space the ring hashes into.
func (r *Ring) Space() idspace.Space {
	return r.space
}

// Join adds a member for addr and returns it with an empty resource list.
// Resources already held by other members stay where they are.
func (r *Ring) Join(addr Address) (Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.addrs[addr]; exists {
		return Node{}, fmt.Errorf("join %s: %w", addr, ErrDuplicateAddress)
	}

	id := r.space.Derive(addr.String())
	if existing, found := r.index.Get(uint64(id)); found {
		return Node{}, fmt.Errorf("join %s: %w: %s held by %s",
			addr, ErrDuplicateIdentifier, id, existing.(*member).addr)
	}

	m := &member{
		id:    id,
		addr:  addr,
		store: storage.NewInMemoryStore(),
	}
	r.link(m)
	r.index.Put(uint64(id), m)
	r.addrs[addr] = m

	return m.snapshot(), nil
}

// link wires m between its neighbours. It must run before m is put into
// the index.
func (r *Ring) link(m *member) {
	if r.index.Empty() {
		m.successor = m
		m.predecessor = m
		return
	}

	succ, found := r.index.Ceiling(uint64(m.id))
	if !found {
		succ = r.index.Left()
	}
	pred, found := r.index.Floor(uint64(m.id))
	if !found {
		pred = r.index.Right()
	}

	m.successor = succ.Value.(*member)
	m.predecessor = pred.Value.(*member)
	m.successor.predecessor = m
	m.predecessor.successor = m
}

// Leave removes the member with the given identifier. Its resources are
// dropped with it.
func (r *Ring) Leave(id idspace.ID) (Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, found := r.index.Get(uint64(id))
	if !found {
		return Node{}, fmt.Errorf("leave %s: %w", id, ErrUnknownNode)
	}
	return r.remove(v.(*member)), nil
}

// LeaveAt removes the member at position pos in ring order.
func (r *Ring) LeaveAt(pos int) (Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memberAt(pos)
	if !ok {
		return Node{}, fmt.Errorf("leave position %d: %w", pos, ErrUnknownNode)
	}
	return r.remove(m), nil
}

func (r *Ring) remove(m *member) Node {
	n := m.snapshot()

	r.index.Remove(uint64(m.id))
	delete(r.addrs, m.addr)

	if m.successor != m {
		m.predecessor.successor = m.successor
		m.successor.predecessor = m.predecessor
	}
	m.successor = nil
	m.predecessor = nil

	return n
}

// Route returns the member responsible for key: the first member whose
// identifier is >= the key's, or the lowest member when the key is past
// every identifier.
func (r *Ring) Route(key string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, err := r.route(key)
	if err != nil {
		return Node{}, err
	}
	return m.snapshot(), nil
}

func (r *Ring) route(key string) (*member, error) {
	if r.index.Empty() {
		return nil, fmt.Errorf("route %q: %w", key, ErrEmptyRing)
	}

	target := r.space.Derive(key)
	node, found := r.index.Ceiling(uint64(target))
	if !found {
		// Wrap around
		node = r.index.Left()
	}
	return node.Value.(*member), nil
}

// InsertResource stores resource on its responsible member and returns that
// member.
func (r *Ring) InsertResource(resource string) (Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.route(resource)
	if err != nil {
		return Node{}, err
	}
	m.store.Append(resource)
	return m.snapshot(), nil
}

// SearchResource looks for resource on its responsible member only. A miss
// is reported through found, not as an error.
func (r *Ring) SearchResource(resource string) (match string, owner Node, found bool, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, err := r.route(resource)
	if err != nil {
		return "", Node{}, false, err
	}
	match, found = m.store.Find(resource)
	return match, m.snapshot(), found, nil
}

// Len returns the number of members.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Size()
}

// Nodes returns all members in ascending identifier order. A member's
// position is its index in the returned slice.
func (r *Ring) Nodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, 0, r.index.Size())
	for _, v := range r.index.Values() {
		nodes = append(nodes, v.(*member).snapshot())
	}
	return nodes
}

// Lookup returns the member with the given identifier.
func (r *Ring) Lookup(id idspace.ID) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, found := r.index.Get(uint64(id))
	if !found {
		return Node{}, false
	}
	return v.(*member).snapshot(), true
}

// LookupAddr returns the member joined with addr.
func (r *Ring) LookupAddr(addr Address) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, found := r.addrs[addr]
	if !found {
		return Node{}, false
	}
	return m.snapshot(), true
}

// At returns the member at position pos in ring order.
func (r *Ring) At(pos int) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.memberAt(pos)
	if !ok {
		return Node{}, false
	}
	return m.snapshot(), true
}

func (r *Ring) memberAt(pos int) (*member, bool) {
	if pos < 0 || pos >= r.index.Size() {
		return nil, false
	}
	it := r.index.Iterator()
	for i := 0; it.Next(); i++ {
		if i == pos {
			return it.Value().(*member), true
		}
	}
	return nil, false
}

// Successor returns the member following id in ring order.
func (r *Ring) Successor(id idspace.ID) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, found := r.index.Get(uint64(id))
	if !found {
		return Node{}, fmt.Errorf("successor of %s: %w", id, ErrUnknownNode)
	}
	return v.(*member).successor.snapshot(), nil
}

// Predecessor returns the member preceding id in ring order.
func (r *Ring) Predecessor(id idspace.ID) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, found := r.index.Get(uint64(id))
	if !found {
		return Node{}, fmt.Errorf("predecessor of %s: %w", id, ErrUnknownNode)
	}
	return v.(*member).predecessor.snapshot(), nil
}

// Resources lists every stored resource, walking members in ring order and
// each member's list in insertion order.
func (r *Ring) Resources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Resource
	for _, v := range r.index.Values() {
		m := v.(*member)
		for _, name := range m.store.List() {
			out = append(out, Resource{Name: name, Owner: m.id})
		}
	}
	return out
}

package api

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"chordsim/internal/cluster"
	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

// Struct field names. Identifiers travel as decimal strings so that spaces
// larger than 2^53 keep exact values.
const (
	FieldID          = "id"
	FieldIP          = "ip"
	FieldPort        = "port"
	FieldSuccessor   = "successor"
	FieldPredecessor = "predecessor"
	FieldResources   = "resources"
	FieldNodes       = "nodes"
	FieldNode        = "node"
	FieldMembers     = "members"
	FieldSlot        = "slot"
	FieldActive      = "active"
	FieldName        = "name"
	FieldOwner       = "owner"
	FieldFound       = "found"
	FieldResource    = "resource"
	FieldHash        = "hash"
	FieldSpaceSize   = "space_size"
	FieldMemberCount = "member_count"
)

// Info describes the identifier space and membership of a server.
type Info struct {
	Hash        string
	SpaceSize   uint64
	MemberCount int
}

func idValue(id idspace.ID) *structpb.Value {
	return structpb.NewStringValue(id.String())
}

func parseID(v *structpb.Value) (idspace.ID, error) {
	n, err := strconv.ParseUint(v.GetStringValue(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier %q: %w", v.GetStringValue(), err)
	}
	return idspace.ID(n), nil
}

func stringList(values []string) *structpb.Value {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(values))}
	for _, s := range values {
		list.Values = append(list.Values, structpb.NewStringValue(s))
	}
	return structpb.NewListValue(list)
}

// NodeToStruct converts a ring node to a Struct.
func NodeToStruct(n ring.Node) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:          idValue(n.ID),
		FieldIP:          structpb.NewStringValue(n.Addr.IP),
		FieldPort:        structpb.NewNumberValue(float64(n.Addr.Port)),
		FieldSuccessor:   idValue(n.Successor),
		FieldPredecessor: idValue(n.Predecessor),
		FieldResources:   stringList(n.Resources),
	}}
}

// NodeFromStruct converts a Struct produced by NodeToStruct back to a node.
func NodeFromStruct(s *structpb.Struct) (ring.Node, error) {
	f := s.GetFields()
	id, err := parseID(f[FieldID])
	if err != nil {
		return ring.Node{}, err
	}
	succ, err := parseID(f[FieldSuccessor])
	if err != nil {
		return ring.Node{}, err
	}
	pred, err := parseID(f[FieldPredecessor])
	if err != nil {
		return ring.Node{}, err
	}

	n := ring.Node{
		ID:          id,
		Addr:        ring.Address{IP: f[FieldIP].GetStringValue(), Port: int(f[FieldPort].GetNumberValue())},
		Successor:   succ,
		Predecessor: pred,
		Resources:   []string{},
	}
	for _, v := range f[FieldResources].GetListValue().GetValues() {
		n.Resources = append(n.Resources, v.GetStringValue())
	}
	return n, nil
}

// NodesToStruct wraps a node list.
func NodesToStruct(nodes []ring.Node) *structpb.Struct {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(nodes))}
	for _, n := range nodes {
		list.Values = append(list.Values, structpb.NewStructValue(NodeToStruct(n)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldNodes: structpb.NewListValue(list),
	}}
}

// NodesFromStruct unwraps a node list.
func NodesFromStruct(s *structpb.Struct) ([]ring.Node, error) {
	values := s.GetFields()[FieldNodes].GetListValue().GetValues()
	nodes := make([]ring.Node, 0, len(values))
	for _, v := range values {
		n, err := NodeFromStruct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// MembersToStruct wraps the roster listing.
func MembersToStruct(members []cluster.Member) *structpb.Struct {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(members))}
	for _, m := range members {
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			FieldSlot:   structpb.NewNumberValue(float64(m.Slot)),
			FieldIP:     structpb.NewStringValue(m.Addr.IP),
			FieldPort:   structpb.NewNumberValue(float64(m.Addr.Port)),
			FieldID:     idValue(m.ID),
			FieldActive: structpb.NewBoolValue(m.Active),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldMembers: structpb.NewListValue(list),
	}}
}

// MembersFromStruct unwraps the roster listing.
func MembersFromStruct(s *structpb.Struct) ([]cluster.Member, error) {
	values := s.GetFields()[FieldMembers].GetListValue().GetValues()
	members := make([]cluster.Member, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		id, err := parseID(f[FieldID])
		if err != nil {
			return nil, err
		}
		members = append(members, cluster.Member{
			Slot:   int(f[FieldSlot].GetNumberValue()),
			Addr:   ring.Address{IP: f[FieldIP].GetStringValue(), Port: int(f[FieldPort].GetNumberValue())},
			ID:     id,
			Active: f[FieldActive].GetBoolValue(),
		})
	}
	return members, nil
}

// ResourcesToStruct wraps the resource listing.
func ResourcesToStruct(resources []ring.Resource) *structpb.Struct {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(resources))}
	for _, r := range resources {
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			FieldName:  structpb.NewStringValue(r.Name),
			FieldOwner: idValue(r.Owner),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldResources: structpb.NewListValue(list),
	}}
}

// ResourcesFromStruct unwraps the resource listing.
func ResourcesFromStruct(s *structpb.Struct) ([]ring.Resource, error) {
	values := s.GetFields()[FieldResources].GetListValue().GetValues()
	resources := make([]ring.Resource, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		owner, err := parseID(f[FieldOwner])
		if err != nil {
			return nil, err
		}
		resources = append(resources, ring.Resource{Name: f[FieldName].GetStringValue(), Owner: owner})
	}
	return resources, nil
}

// SearchToStruct encodes a search outcome.
func SearchToStruct(res cluster.SearchResult) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldFound:    structpb.NewBoolValue(res.Found),
		FieldResource: structpb.NewStringValue(res.Resource),
		FieldNode:     structpb.NewStructValue(NodeToStruct(res.Node)),
	}}
}

// SearchFromStruct decodes a search outcome.
func SearchFromStruct(s *structpb.Struct) (cluster.SearchResult, error) {
	f := s.GetFields()
	node, err := NodeFromStruct(f[FieldNode].GetStructValue())
	if err != nil {
		return cluster.SearchResult{}, err
	}
	return cluster.SearchResult{
		Resource: f[FieldResource].GetStringValue(),
		Node:     node,
		Found:    f[FieldFound].GetBoolValue(),
	}, nil
}

// InfoToStruct encodes server information.
func InfoToStruct(info Info) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldHash:        structpb.NewStringValue(info.Hash),
		FieldSpaceSize:   structpb.NewStringValue(strconv.FormatUint(info.SpaceSize, 10)),
		FieldMemberCount: structpb.NewNumberValue(float64(info.MemberCount)),
	}}
}

// InfoFromStruct decodes server information.
func InfoFromStruct(s *structpb.Struct) (Info, error) {
	f := s.GetFields()
	size, err := strconv.ParseUint(f[FieldSpaceSize].GetStringValue(), 10, 64)
	if err != nil {
		return Info{}, fmt.Errorf("invalid space size: %w", err)
	}
	return Info{
		Hash:        f[FieldHash].GetStringValue(),
		SpaceSize:   size,
		MemberCount: int(f[FieldMemberCount].GetNumberValue()),
	}, nil
}

// Package order holds the peeling order π and its checkpoint index.
//
// Sequence is a doubly linked list stored in a slab: nodes are addressed by
// index and reclaimed slots go on a free list, so excising an attribute
// value never leaves a dangling pointer behind. Every mode keeps a direct
// node index and a core number snapshot per attribute value.
package order

import "github.com/hupe1980/densealert/internal/core"

// Node is one position of π.
type Node struct {
	Mode       core.Mode
	AttVal     core.AttVal
	RemoveMass core.Weight
	Core       core.Weight

	prev, next core.NodeID
	live       bool
}

// Sequence is the peeling order π.
type Sequence struct {
	nodes []Node
	free  []core.NodeID
	head  core.NodeID
	tail  core.NodeID
	n     int

	nodeOf [][]core.NodeID
	coreOf [][]core.Weight
}

// NewSequence creates an empty order for order modes of the given capacity.
func NewSequence(order, capacity int) *Sequence {
	s := &Sequence{
		head:   core.NoNode,
		tail:   core.NoNode,
		nodeOf: make([][]core.NodeID, order),
		coreOf: make([][]core.Weight, order),
	}
	for m := range order {
		s.nodeOf[m] = newNodeIndex(capacity)
		s.coreOf[m] = make([]core.Weight, capacity)
	}
	return s
}

func newNodeIndex(capacity int) []core.NodeID {
	idx := make([]core.NodeID, capacity)
	for i := range idx {
		idx[i] = core.NoNode
	}
	return idx
}

// Grow extends mode to hold capacity attribute values.
func (s *Sequence) Grow(mode core.Mode, capacity int) {
	n := len(s.nodeOf[mode])
	if capacity <= n {
		return
	}
	idx := newNodeIndex(capacity)
	copy(idx, s.nodeOf[mode])
	s.nodeOf[mode] = idx

	cores := make([]core.Weight, capacity)
	copy(cores, s.coreOf[mode])
	s.coreOf[mode] = cores
}

// Len returns the number of positions.
func (s *Sequence) Len() int { return s.n }

// Head returns the first position, or core.NoNode.
func (s *Sequence) Head() core.NodeID { return s.head }

// Tail returns the last position, or core.NoNode.
func (s *Sequence) Tail() core.NodeID { return s.tail }

// At returns a copy of the node at id.
func (s *Sequence) At(id core.NodeID) Node { return s.nodes[id] }

// Next returns the position after id, or core.NoNode.
func (s *Sequence) Next(id core.NodeID) core.NodeID { return s.nodes[id].next }

// Prev returns the position before id, or core.NoNode.
func (s *Sequence) Prev(id core.NodeID) core.NodeID { return s.nodes[id].prev }

// Live reports whether id addresses a node currently linked into π.
func (s *Sequence) Live(id core.NodeID) bool {
	return id >= 0 && int(id) < len(s.nodes) && s.nodes[id].live
}

// NodeOf returns the position of a, or core.NoNode if a is not in π.
func (s *Sequence) NodeOf(mode core.Mode, a core.AttVal) core.NodeID {
	return s.nodeOf[mode][a]
}

// CoreOf returns the core number snapshot of a.
func (s *Sequence) CoreOf(mode core.Mode, a core.AttVal) core.Weight {
	return s.coreOf[mode][a]
}

// SetCore overrides the core number snapshot of an attribute value that is
// not in π, so a reordering can treat it as if it were.
func (s *Sequence) SetCore(mode core.Mode, a core.AttVal, c core.Weight) {
	s.coreOf[mode][a] = c
}

// PushBack appends a position to the tail.
func (s *Sequence) PushBack(mode core.Mode, a core.AttVal, removeMass, c core.Weight) core.NodeID {
	return s.InsertAfter(s.tail, mode, a, removeMass, c)
}

// InsertAfter links a new position right after at. core.NoNode inserts at
// the head.
func (s *Sequence) InsertAfter(at core.NodeID, mode core.Mode, a core.AttVal, removeMass, c core.Weight) core.NodeID {
	id := s.alloc()
	nd := &s.nodes[id]
	*nd = Node{Mode: mode, AttVal: a, RemoveMass: removeMass, Core: c, prev: at, live: true}

	if at == core.NoNode {
		nd.next = s.head
		s.head = id
	} else {
		nd.next = s.nodes[at].next
		s.nodes[at].next = id
	}
	if nd.next == core.NoNode {
		s.tail = id
	} else {
		s.nodes[nd.next].prev = id
	}

	s.nodeOf[mode][a] = id
	s.coreOf[mode][a] = c
	s.n++
	return id
}

// SetCoreAt raises the core number of a linked position and its snapshot.
func (s *Sequence) SetCoreAt(id core.NodeID, c core.Weight) {
	nd := &s.nodes[id]
	nd.Core = c
	s.coreOf[nd.Mode][nd.AttVal] = c
}

// Remove unlinks id and returns its slot to the free list.
func (s *Sequence) Remove(id core.NodeID) {
	nd := &s.nodes[id]
	if nd.prev == core.NoNode {
		s.head = nd.next
	} else {
		s.nodes[nd.prev].next = nd.next
	}
	if nd.next == core.NoNode {
		s.tail = nd.prev
	} else {
		s.nodes[nd.next].prev = nd.prev
	}

	s.nodeOf[nd.Mode][nd.AttVal] = core.NoNode
	s.coreOf[nd.Mode][nd.AttVal] = 0
	*nd = Node{prev: core.NoNode, next: core.NoNode}
	s.free = append(s.free, id)
	s.n--
}

// Excise removes id from π and hands a checkpoint it owns to the next
// position sharing its core number, or drops the checkpoint if none does.
func (s *Sequence) Excise(id core.NodeID, cps *Checkpoints) {
	nd := s.nodes[id]
	if cp, ok := cps.Get(nd.Core); ok && cp.Node == id {
		if nd.next != core.NoNode && s.nodes[nd.next].Core == nd.Core {
			cp.Node = nd.next
			cps.Put(nd.Core, cp)
		} else {
			cps.Delete(nd.Core)
		}
	}
	s.Remove(id)
}

// Clear drops every position.
func (s *Sequence) Clear() {
	for id := s.head; id != core.NoNode; id = s.nodes[id].next {
		nd := s.nodes[id]
		s.nodeOf[nd.Mode][nd.AttVal] = core.NoNode
		s.coreOf[nd.Mode][nd.AttVal] = 0
	}
	s.nodes = s.nodes[:0]
	s.free = s.free[:0]
	s.head, s.tail = core.NoNode, core.NoNode
	s.n = 0
}

func (s *Sequence) alloc() core.NodeID {
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		return id
	}
	s.nodes = append(s.nodes, Node{})
	return core.NodeID(len(s.nodes) - 1)
}

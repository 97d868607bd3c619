package client

import (
	"fmt"
	"strings"

	"showtalk/internal/thread"
)

const tempPrefix = "tmp-"

// Key identifies a node in the local tree: "c<id>" for stored comments,
// "tmp-<uuid>" for replies the server has not confirmed yet.
func Key(id uint) string {
	return fmt.Sprintf("c%d", id)
}

// IsTemp reports whether key belongs to an unconfirmed reply.
func IsTemp(key string) bool {
	return strings.HasPrefix(key, tempPrefix)
}

type entry struct {
	node   thread.Node // Children unused, see State.children
	parent string      // "" for roots
}

// State is an immutable snapshot of the local tree: an arena of nodes by
// key plus a parent -> children index. Every change builds a new State
// sharing nothing mutable with the old one.
type State struct {
	nodes    map[string]entry
	children map[string][]string // "" lists the roots
	stats    thread.Stats
	hasMore  bool
	offset   int // next root offset for LoadMore
	loading  bool

	// subOffset is the next reply offset of a partly loaded subthread
	subOffset map[string]int
}

func emptyState() State {
	return State{nodes: map[string]entry{}, children: map[string][]string{}, subOffset: map[string]int{}}
}

func (s State) clone() State {
	out := s
	out.nodes = make(map[string]entry, len(s.nodes))
	for k, v := range s.nodes {
		out.nodes[k] = v
	}
	out.children = make(map[string][]string, len(s.children))
	for k, v := range s.children {
		out.children[k] = append([]string(nil), v...)
	}
	out.subOffset = make(map[string]int, len(s.subOffset))
	for k, v := range s.subOffset {
		out.subOffset[k] = v
	}
	return out
}

// Len counts the nodes held locally.
func (s State) Len() int { return len(s.nodes) }

func (s State) HasMore() bool { return s.hasMore }

func (s State) Loading() bool { return s.loading }

func (s State) Stats() thread.Stats { return s.stats }

// Node returns a copy of one node without children.
func (s State) Node(key string) (thread.Node, bool) {
	e, ok := s.nodes[key]
	if !ok {
		return thread.Node{}, false
	}
	n := e.node
	n.Children = nil
	return n, true
}

// Roots lists the root keys in display order.
func (s State) Roots() []string {
	return append([]string(nil), s.children[""]...)
}

// Children lists the child keys of key in display order.
func (s State) Children(key string) []string {
	return append([]string(nil), s.children[key]...)
}

// Parent returns the parent key, "" for roots.
func (s State) Parent(key string) string {
	return s.nodes[key].parent
}

// Tree materializes the nested view. Nodes are fresh copies.
func (s State) Tree() []*thread.Node {
	return s.subtree("")
}

func (s State) subtree(parent string) []*thread.Node {
	keys := s.children[parent]
	out := make([]*thread.Node, 0, len(keys))
	for _, k := range keys {
		e, ok := s.nodes[k]
		if !ok {
			continue
		}
		n := e.node
		n.Children = s.subtree(k)
		out = append(out, &n)
	}
	return out
}

// insert adds n and its children under parent; depth is rebased on the
// parent's local depth. Existing keys are updated in place, keeping order.
func (s *State) insert(parent string, n *thread.Node, depth int) {
	key := Key(n.ID)
	flat := *n
	flat.Depth = depth
	kids := flat.Children
	flat.Children = nil

	if _, exists := s.nodes[key]; !exists {
		s.children[parent] = append(s.children[parent], key)
	}
	s.nodes[key] = entry{node: flat, parent: parent}
	for _, c := range kids {
		s.insert(key, c, depth+1)
	}
}

// remove drops key and everything below it.
func (s *State) remove(key string) {
	e, ok := s.nodes[key]
	if !ok {
		return
	}
	for _, c := range s.children[key] {
		s.remove(c)
	}
	delete(s.children, key)
	delete(s.nodes, key)
	s.children[e.parent] = without(s.children[e.parent], key)
}

// rekey swaps oldKey for the confirmed node, keeping its slot among siblings.
func (s *State) rekey(oldKey string, n thread.Node) {
	e, ok := s.nodes[oldKey]
	if !ok {
		return
	}
	newKey := Key(n.ID)
	n.Depth = e.node.Depth
	n.Children = nil
	delete(s.nodes, oldKey)
	s.nodes[newKey] = entry{node: n, parent: e.parent}

	siblings := s.children[e.parent]
	for i, k := range siblings {
		if k == oldKey {
			siblings[i] = newKey
		}
	}
	s.children[e.parent] = dedupe(siblings)
	if kids, ok := s.children[oldKey]; ok {
		delete(s.children, oldKey)
		s.children[newKey] = kids
		for _, k := range kids {
			c := s.nodes[k]
			c.parent = newKey
			s.nodes[k] = c
		}
	}
}

// carryPending re-attaches the unconfirmed replies of prev whose parent is
// still present, ahead of their confirmed siblings.
func (s *State) carryPending(prev State) {
	for parent, keys := range prev.children {
		depth := 0
		if parent != "" {
			p, ok := s.nodes[parent]
			if !ok {
				continue
			}
			depth = p.node.Depth + 1
		}
		var pending []string
		for _, k := range keys {
			e, ok := prev.nodes[k]
			if !ok || !IsTemp(k) {
				continue
			}
			e.node.Depth = depth
			s.nodes[k] = e
			pending = append(pending, k)
		}
		if len(pending) == 0 {
			continue
		}
		s.children[parent] = append(pending, s.children[parent]...)
		s.setNode(parent, func(n *thread.Node) { n.ReplyCount += len(pending) })
		s.stats.Total += len(pending)
		if parent == "" {
			s.stats.TopLevel += len(pending)
		}
	}
}

func (s *State) setNode(key string, fn func(*thread.Node)) {
	e, ok := s.nodes[key]
	if !ok {
		return
	}
	fn(&e.node)
	s.nodes[key] = e
}

func without(keys []string, key string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

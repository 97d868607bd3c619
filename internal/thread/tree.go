package thread

// arena 以 ID 为键的扁平存储，外加 parent -> children 索引
type arena struct {
	nodes    []Node
	index    map[uint]int
	children map[uint][]uint
}

func newArena(flat []Node) *arena {
	a := &arena{
		nodes:    make([]Node, 0, len(flat)),
		index:    make(map[uint]int, len(flat)),
		children: make(map[uint][]uint),
	}
	for _, n := range flat {
		if _, dup := a.index[n.ID]; dup {
			continue
		}
		a.index[n.ID] = len(a.nodes)
		a.nodes = append(a.nodes, n)
	}
	for _, n := range a.nodes {
		if n.ParentID == nil {
			continue
		}
		if _, ok := a.index[*n.ParentID]; ok && *n.ParentID != n.ID {
			a.children[*n.ParentID] = append(a.children[*n.ParentID], n.ID)
		}
	}
	return a
}

func (a *arena) isRoot(n *Node) bool {
	if n.ParentID == nil || *n.ParentID == n.ID {
		return true
	}
	_, ok := a.index[*n.ParentID]
	return !ok
}

// descendants counts every node reachable below id.
func (a *arena) descendants(id uint, seen map[uint]bool) int {
	total := 0
	for _, cid := range a.children[id] {
		if seen[cid] {
			continue
		}
		seen[cid] = true
		total += 1 + a.descendants(cid, seen)
	}
	return total
}

func (a *arena) materialize(id uint, depth, maxDepth int, seen map[uint]bool) *Node {
	seen[id] = true
	n := a.nodes[a.index[id]]
	n.Depth = depth
	n.Children = []*Node{}
	n.ContinueThread = false
	n.HiddenReplies = 0

	kids := a.children[id]
	n.ReplyCount = len(kids)
	if depth >= maxDepth {
		if hidden := a.descendants(id, seen); hidden > 0 {
			n.ContinueThread = true
			n.HiddenReplies = hidden
		}
	} else {
		for _, cid := range kids {
			if seen[cid] {
				continue
			}
			n.Children = append(n.Children, a.materialize(cid, depth+1, maxDepth, seen))
		}
	}
	n.decorate()
	return &n
}

// Build nests flat comments into a forest.
//
// A comment whose parent is in flat is attached under it. A comment whose
// parent is missing (it lies outside this fetch) becomes a root with depth 0.
// Levels deeper than maxDepth below a root are not materialized; the last
// materialized ancestor gets ContinueThread and the number of hidden replies
// instead. Roots keep the input order; use SortTree to order them.
func Build(flat []Node, maxDepth int) []*Node {
	if maxDepth < 0 {
		maxDepth = 0
	}
	a := newArena(flat)
	seen := make(map[uint]bool, len(a.nodes))
	roots := make([]*Node, 0)

	for i := range a.nodes {
		n := &a.nodes[i]
		if !a.isRoot(n) {
			continue
		}
		roots = append(roots, a.materialize(n.ID, 0, maxDepth, seen))
	}

	// 父子成环的脏数据：没有根能到达，提升为根以保证每条评论都出现
	for i := range a.nodes {
		n := &a.nodes[i]
		if seen[n.ID] {
			continue
		}
		roots = append(roots, a.materialize(n.ID, 0, maxDepth, seen))
	}
	return roots
}

// Flatten decorates every comment without nesting; depth stays structural.
// Used for tree=false listings and for single freshly written comments.
func Flatten(flat []Node) []*Node {
	out := make([]*Node, 0, len(flat))
	for _, n := range flat {
		n.Children = []*Node{}
		n.Depth = n.StoredDepth
		n.decorate()
		c := n
		out = append(out, &c)
	}
	return out
}

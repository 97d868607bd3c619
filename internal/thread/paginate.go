package thread

const (
	DefaultLimit    = 20
	MaxLimit        = 100
	DefaultMaxDepth = 5
	MaxDepthCap     = 10
)

// Page is one window of a sorted root list.
type Page[T any] struct {
	Items   []T
	Offset  int
	Limit   int
	Total   int
	HasMore bool
}

// NormalizeWindow clamps offset/limit to the accepted range.
func NormalizeWindow(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}

// NormalizeMaxDepth clamps maxDepth to [0, MaxDepthCap]; negative means default.
func NormalizeMaxDepth(maxDepth int) int {
	if maxDepth < 0 {
		return DefaultMaxDepth
	}
	if maxDepth > MaxDepthCap {
		return MaxDepthCap
	}
	return maxDepth
}

// Paginate returns the contiguous window [offset, offset+limit) of items.
// The window is only stable across calls while the sort key is unchanged.
func Paginate[T any](items []T, offset, limit int) Page[T] {
	offset, limit = NormalizeWindow(offset, limit)
	p := Page[T]{Offset: offset, Limit: limit, Total: len(items), Items: []T{}}
	if offset >= len(items) {
		return p
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	p.Items = append(p.Items, items[offset:end]...)
	p.HasMore = end < len(items)
	return p
}

// PaginateRoots is Paginate specialised for tree roots.
func PaginateRoots(sorted []*Node, offset, limit int) Page[*Node] {
	return Paginate(sorted, offset, limit)
}

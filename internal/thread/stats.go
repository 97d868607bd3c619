package thread

// Stats is display-only information about a discussion's comments.
type Stats struct {
	Total    int `json:"total"`
	TopLevel int `json:"topLevel"`
	MaxDepth int `json:"maxDepth"`
}

// ComputeStats counts over the flat, unpaginated comment set. Depth is the
// stored structural depth, not the depth within a fetch.
func ComputeStats(all []Node) Stats {
	var s Stats
	for i := range all {
		n := &all[i]
		s.Total++
		if n.ParentID == nil {
			s.TopLevel++
		}
		if n.StoredDepth > s.MaxDepth {
			s.MaxDepth = n.StoredDepth
		}
	}
	return s
}

package thread

import (
	"math"
	"sort"
	"strings"
)

// Sort is a comment ordering mode.
type Sort string

const (
	SortNew  Sort = "new"
	SortTop  Sort = "top"
	SortBest Sort = "best"
)

// ParseSort maps a query value to a mode; anything unknown is SortNew.
func ParseSort(s string) Sort {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortTop:
		return SortTop
	case SortBest:
		return SortBest
	}
	return SortNew
}

// BestScore blends score with engagement: score + ln(1 + total votes).
// It is strictly increasing in both the score and the total vote count.
// One downvote gives -1+ln2 ≈ -0.31, below an untouched comment's 0;
// score 0 with 10 votes gives ln11 ≈ 2.40.
func BestScore(upvotes, downvotes int) float64 {
	return float64(upvotes-downvotes) + math.Log1p(float64(upvotes+downvotes))
}

func newer(a, b *Node) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func less(mode Sort) func(a, b *Node) bool {
	switch mode {
	case SortTop:
		return func(a, b *Node) bool {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return newer(a, b)
		}
	case SortBest:
		return func(a, b *Node) bool {
			ba, bb := BestScore(a.Upvotes, a.Downvotes), BestScore(b.Upvotes, b.Downvotes)
			if ba != bb {
				return ba > bb
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return newer(a, b)
		}
	}
	return newer
}

// SortRoots returns a sorted copy of roots. Children are left alone.
//
//	new:  created desc
//	top:  score desc, then created desc
//	best: BestScore desc, then score desc, then created desc
//
// Remaining ties are broken by id desc so the order is total.
func SortRoots(roots []*Node, mode Sort) []*Node {
	out := make([]*Node, len(roots))
	copy(out, roots)
	cmp := less(mode)
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) })
	return out
}

// SortTree sorts the roots and, recursively, every child list with mode.
func SortTree(roots []*Node, mode Sort) []*Node {
	out := SortRoots(roots, mode)
	for _, n := range out {
		n.Children = SortTree(n.Children, mode)
	}
	return out
}

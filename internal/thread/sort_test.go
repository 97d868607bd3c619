package thread

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id uint, minutes, up, down int) *Node {
	n := row(id, nil, 0, minutes)
	n.Upvotes, n.Downvotes = up, down
	n.decorate()
	return &n
}

func TestSortTopBreaksTiesByRecency(t *testing.T) {
	a := scored(1, 0, 3, 0)
	b := scored(2, 10, 3, 0) // same score, newer than A
	c := scored(3, 5, 5, 0)

	sorted := SortRoots([]*Node{a, b, c}, SortTop)

	assert.Equal(t, []uint{3, 2, 1}, ids(sorted))
}

func TestSortNewIsCreationDescending(t *testing.T) {
	sorted := SortRoots([]*Node{scored(1, 0, 9, 0), scored(2, 20, 0, 0), scored(3, 10, 0, 4)}, SortNew)

	assert.Equal(t, []uint{2, 3, 1}, ids(sorted))
}

func TestSortBestRewardsEngagement(t *testing.T) {
	quiet := scored(1, 30, 0, 0)
	busy := scored(2, 0, 5, 5)

	sorted := SortRoots([]*Node{quiet, busy}, SortBest)

	assert.Equal(t, []uint{2, 1}, ids(sorted))
}

func TestSortBestSingleDownvoteNeverOutranksUntouched(t *testing.T) {
	untouched := scored(1, 0, 0, 0)
	downvoted := scored(2, 60, 0, 1) // newer, would win a recency tie

	sorted := SortRoots([]*Node{downvoted, untouched}, SortBest)

	assert.Equal(t, []uint{1, 2}, ids(sorted))
}

func TestBestScoreIsMonotonic(t *testing.T) {
	for up := 0; up < 20; up++ {
		for down := 0; down < 20; down++ {
			s := BestScore(up, down)
			// same total votes, higher score
			if down > 0 {
				assert.Greater(t, BestScore(up+1, down-1), s)
			}
			// same score, more votes
			assert.Greater(t, BestScore(up+1, down+1), s)
		}
	}
}

func TestSortRootsLeavesInputUntouched(t *testing.T) {
	in := []*Node{scored(1, 0, 0, 0), scored(2, 10, 0, 0)}

	_ = SortRoots(in, SortNew)

	assert.Equal(t, []uint{1, 2}, ids(in))
}

func TestSortTreeOrdersChildren(t *testing.T) {
	flat := []Node{
		row(1, nil, 0, 0),
		row(2, ptr(1), 1, 1),
		row(3, ptr(1), 1, 2),
	}
	flat[1].Upvotes = 5

	roots := SortTree(Build(flat, 5), SortTop)

	require.Len(t, roots, 1)
	assert.Equal(t, []uint{2, 3}, ids(roots[0].Children))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortTop, ParseSort("TOP"))
	assert.Equal(t, SortBest, ParseSort(" best "))
	assert.Equal(t, SortNew, ParseSort(""))
	assert.Equal(t, SortNew, ParseSort("hot"))
}

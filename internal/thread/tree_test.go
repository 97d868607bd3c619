package thread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(id uint) *uint { return &id }

func row(id uint, parent *uint, depth int, minutes int) Node {
	return Node{
		ID:          id,
		ParentID:    parent,
		Depth:       depth,
		StoredDepth: depth,
		Content:     "c",
		CreatedAt:   base.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(nodes []*Node) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildNestsChildrenUnderParents(t *testing.T) {
	flat := []Node{
		row(1, nil, 0, 0),
		row(2, ptr(1), 1, 1),
		row(3, ptr(2), 2, 2),
		row(4, nil, 0, 3),
		row(5, ptr(1), 1, 4),
	}

	roots := Build(flat, 10)

	require.Equal(t, []uint{1, 4}, ids(roots))
	assert.Equal(t, []uint{2, 5}, ids(roots[0].Children))
	assert.Equal(t, []uint{3}, ids(roots[0].Children[0].Children))
	assert.Equal(t, 2, roots[0].Children[0].Children[0].Depth)
	assert.Equal(t, 2, roots[0].ReplyCount)
	assert.Empty(t, roots[1].Children)
	assert.NotNil(t, roots[1].Children)
}

func TestBuildContainsEveryCommentOnce(t *testing.T) {
	flat := []Node{
		row(10, ptr(9), 3, 0), // parent outside this fetch
		row(11, ptr(10), 4, 1),
		row(12, nil, 0, 2),
		row(13, ptr(12), 1, 3),
		row(14, ptr(13), 2, 4),
		row(15, ptr(99), 1, 5), // parent outside this fetch
	}

	roots := Build(flat, 50)

	seen := map[uint]int{}
	Walk(roots, func(n *Node) { seen[n.ID]++ })
	require.Len(t, seen, len(flat))
	for id, n := range seen {
		assert.Equal(t, 1, n, "comment %d", id)
	}
}

func TestBuildResetsDepthForSyntheticRoots(t *testing.T) {
	flat := []Node{
		row(10, ptr(9), 3, 0),
		row(11, ptr(10), 4, 1),
	}

	roots := Build(flat, 5)

	require.Len(t, roots, 1)
	assert.Equal(t, 0, roots[0].Depth)
	assert.Equal(t, 3, roots[0].StoredDepth)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, 1, roots[0].Children[0].Depth)
}

func TestBuildCapsDepthWithContinueMarker(t *testing.T) {
	flat := []Node{
		row(1, nil, 0, 0),
		row(2, ptr(1), 1, 1),
		row(3, ptr(2), 2, 2),
		row(4, ptr(3), 3, 3),
		row(5, ptr(3), 3, 4),
	}

	roots := Build(flat, 1)

	require.Len(t, roots, 1)
	child := roots[0].Children[0]
	assert.Equal(t, uint(2), child.ID)
	assert.Empty(t, child.Children)
	assert.True(t, child.ContinueThread)
	assert.Equal(t, 3, child.HiddenReplies)
	assert.False(t, roots[0].ContinueThread)
}

func TestBuildZeroMaxDepthKeepsOnlyRoots(t *testing.T) {
	flat := []Node{row(1, nil, 0, 0), row(2, ptr(1), 1, 1)}

	roots := Build(flat, 0)

	require.Len(t, roots, 1)
	assert.Empty(t, roots[0].Children)
	assert.True(t, roots[0].ContinueThread)
	assert.Equal(t, 1, roots[0].ReplyCount)
}

func TestBuildSurvivesCyclesAndDuplicates(t *testing.T) {
	flat := []Node{
		row(1, ptr(2), 1, 0),
		row(2, ptr(1), 1, 1),
		row(2, nil, 0, 2),
		row(3, ptr(3), 0, 3),
	}

	roots := Build(flat, 10)

	assert.Equal(t, 3, Count(roots))
}

func TestBuildDecoratesDeletedComments(t *testing.T) {
	deleted := row(1, nil, 0, 0)
	deleted.IsDeleted = true
	deleted.Mine = true
	deleted.Content = "secret"
	reply := row(2, ptr(1), 1, 1)
	reply.Upvotes, reply.Downvotes = 4, 1

	roots := Build([]Node{deleted, reply}, 5)

	require.Len(t, roots, 1)
	assert.Equal(t, "comment deleted", roots[0].Content)
	assert.Equal(t, Actions{}, roots[0].Actions)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "c", roots[0].Children[0].Content)
	assert.Equal(t, 3, roots[0].Children[0].Score)
	assert.Equal(t, Actions{Reply: true, Vote: true, React: true}, roots[0].Children[0].Actions)
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	flat := []Node{row(1, nil, 0, 0)}

	roots := Build(flat, 5)
	roots[0].Content = "changed"

	assert.Equal(t, "c", flat[0].Content)
}

func TestComputeStats(t *testing.T) {
	flat := []Node{
		row(1, nil, 0, 0),
		row(2, ptr(1), 1, 1),
		row(3, ptr(2), 2, 2),
		row(4, nil, 0, 3),
	}

	assert.Equal(t, Stats{Total: 4, TopLevel: 2, MaxDepth: 2}, ComputeStats(flat))
	assert.Equal(t, Stats{}, ComputeStats(nil))
}

func TestFlattenKeepsStructuralDepth(t *testing.T) {
	flat := []Node{row(1, nil, 0, 0), row(2, ptr(1), 1, 1)}
	flat[1].Upvotes = 2

	out := Flatten(flat)

	require.Len(t, out, 2)
	assert.Equal(t, 1, out[1].Depth)
	assert.Equal(t, 2, out[1].Score)
	assert.Empty(t, out[0].Children)
}

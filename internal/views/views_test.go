package views

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showtalk/internal/models"
	"showtalk/internal/thread"
)

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "just now", TimeAgo(time.Now()))
	assert.Equal(t, "1 minute ago", TimeAgo(time.Now().Add(-90*time.Second)))
	assert.Equal(t, "3 hours ago", TimeAgo(time.Now().Add(-3*time.Hour-time.Minute)))
	assert.Equal(t, "2 days ago", TimeAgo(time.Now().Add(-49*time.Hour)))
}

func TestLoadRendersDiscussionPage(t *testing.T) {
	r, err := Load("../../web/templates")
	require.NoError(t, err)

	parentID := uint(1)
	season := 2
	reply := &thread.Node{
		ID: 2, ParentID: &parentID, Depth: 1, Content: "a reply",
		Author: models.User{Username: "bob"}, Children: []*thread.Node{},
		Actions: thread.Actions{Reply: true, Vote: true, React: true},
	}
	root := &thread.Node{
		ID: 1, Content: models.DeletedPlaceholder, IsDeleted: true,
		Author: models.User{Username: "alice"}, Children: []*thread.Node{reply},
		ContinueThread: true, HiddenReplies: 3,
	}
	data := map[string]interface{}{
		"Title":      "Finale",
		"Discussion": &models.Discussion{ID: 7, Title: "Finale", SeasonNumber: &season},
		"Comments":   []*thread.Node{root},
		"Stats":      thread.Stats{Total: 5, TopLevel: 1, MaxDepth: 4},
		"Sort":       "new",
		"Sorts":      []thread.Sort{thread.SortNew, thread.SortTop, thread.SortBest},
		"Pagination": map[string]interface{}{"HasMore": false},
	}

	w := httptest.NewRecorder()
	require.NoError(t, r.Instance("discussion/detail.html", data).Render(w))
	out := w.Body.String()
	assert.Contains(t, out, "Finale")
	assert.Contains(t, out, "comment deleted")
	assert.Contains(t, out, "a reply")
	assert.Contains(t, out, `id="comment-2"`)
	assert.Contains(t, out, "continue this thread")
	assert.Contains(t, out, "season discussion")
}

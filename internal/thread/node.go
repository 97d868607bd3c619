// Package thread turns flat comment rows into nested, depth-limited,
// sorted and paginated reply trees. Everything here is pure: no database,
// no HTTP, and every call allocates fresh nodes.
package thread

import (
	"time"

	"showtalk/internal/models"
)

// ReactionCount is the number of reactions of one type on a comment.
type ReactionCount struct {
	ReactionTypeID uint   `json:"reactionTypeId"`
	Emoji          string `json:"emoji"`
	Name           string `json:"name"`
	Count          int    `json:"count"`
}

// Actions lists what the viewer may still do with a comment.
type Actions struct {
	Reply  bool `json:"reply"`
	Vote   bool `json:"vote"`
	React  bool `json:"react"`
	Delete bool `json:"delete"`
}

// Node is one comment of a CommentTree: the persisted row plus the
// read-time decorations (counts, the viewer's own vote/reaction, children).
type Node struct {
	ID           uint        `json:"id"`
	DiscussionID uint        `json:"discussionId"`
	ParentID     *uint       `json:"parentId"`
	Path         string      `json:"path"`
	Depth        int         `json:"depth"`       // 在本次请求返回的树中的深度
	StoredDepth  int         `json:"storedDepth"` // 数据库中的结构深度
	Author       models.User `json:"author"`
	Content      string      `json:"content"`
	Spoiler      bool        `json:"spoiler"`
	IsDeleted    bool        `json:"isDeleted"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	Upvotes          int             `json:"upvotes"`
	Downvotes        int             `json:"downvotes"`
	Score            int             `json:"score"`
	MyVote           string          `json:"myVote,omitempty"`
	Reactions        []ReactionCount `json:"reactions"`
	MyReactionTypeID *uint           `json:"myReactionTypeId,omitempty"`
	Mine             bool            `json:"mine"`
	Actions          Actions         `json:"actions"`

	ReplyCount     int     `json:"replyCount"`
	ContinueThread bool    `json:"continueThread"`
	HiddenReplies  int     `json:"hiddenReplies"`
	Children       []*Node `json:"children"`
}

// FromComment copies the persisted fields of c into a Node. Vote and
// reaction data is filled in by the caller.
func FromComment(c *models.Comment) Node {
	return Node{
		ID:           c.ID,
		DiscussionID: c.DiscussionID,
		ParentID:     c.ParentID,
		Path:         c.Path,
		Depth:        c.Depth,
		StoredDepth:  c.Depth,
		Author:       c.User,
		Content:      c.Content,
		Spoiler:      c.Spoiler,
		IsDeleted:    c.IsDeleted,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Reactions:    []ReactionCount{},
		Children:     []*Node{},
	}
}

// decorate fills in the derived fields. Deleted comments lose their
// content, their reactions display and every action.
func (n *Node) decorate() {
	n.Score = n.Upvotes - n.Downvotes
	if n.Reactions == nil {
		n.Reactions = []ReactionCount{}
	}
	if n.Children == nil {
		n.Children = []*Node{}
	}
	if n.IsDeleted {
		n.Content = models.DeletedPlaceholder
		n.Spoiler = false
		n.Actions = Actions{}
		return
	}
	n.Actions = Actions{Reply: true, Vote: true, React: true, Delete: n.Mine}
}

// Walk visits n and all materialized descendants depth-first.
func Walk(roots []*Node, fn func(*Node)) {
	for _, r := range roots {
		fn(r)
		Walk(r.Children, fn)
	}
}

// Count returns the number of materialized nodes in the forest.
func Count(roots []*Node) int {
	total := 0
	Walk(roots, func(*Node) { total++ })
	return total
}

// Package client keeps a local copy of a discussion's comment tree and
// drives it through the HTTP API with optimistic updates.
package client

import (
	"context"

	"showtalk/internal/thread"
)

// Query selects a window of comments.
type Query struct {
	Sort     thread.Sort
	Limit    int
	Offset   int
	MaxDepth int
}

type Pagination struct {
	HasMore bool `json:"hasMore"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
}

// Page is a comments response, for a discussion or a subthread.
type Page struct {
	Comments   []*thread.Node `json:"comments"`
	Stats      thread.Stats   `json:"stats"`
	Pagination Pagination     `json:"pagination"`
}

// NewComment is the body of a new comment or reply.
type NewComment struct {
	DiscussionID uint   `json:"discussionId"`
	Content      string `json:"content"`
	ParentID     *uint  `json:"parentId,omitempty"`
	Spoiler      bool   `json:"spoiler,omitempty"`
}

// VoteCounts is the server's view of a comment's votes after a change.
type VoteCounts struct {
	CommentID uint   `json:"commentId"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
	MyVote    string `json:"myVote,omitempty"`
}

// ReactionState is the server's view of a comment's reactions after a change.
type ReactionState struct {
	CommentID        uint                   `json:"commentId"`
	Reactions        []thread.ReactionCount `json:"reactions"`
	MyReactionTypeID *uint                  `json:"myReactionTypeId,omitempty"`
}

// API is the server surface the thread client needs.
type API interface {
	ListComments(ctx context.Context, discussionID uint, q Query) (*Page, error)
	Subthread(ctx context.Context, discussionID, parentID uint, q Query) (*Page, error)
	AddComment(ctx context.Context, in NewComment) (*thread.Node, error)
	Vote(ctx context.Context, commentID uint, value string) (*VoteCounts, error)
	Unvote(ctx context.Context, commentID uint) (*VoteCounts, error)
	React(ctx context.Context, commentID, reactionTypeID uint) (*ReactionState, error)
	Unreact(ctx context.Context, commentID uint) (*ReactionState, error)
	DeleteComment(ctx context.Context, commentID uint) error
}

// normalizeNodes defaults missing collections to empty ones, recursively.
func normalizeNodes(nodes []*thread.Node) []*thread.Node {
	out := make([]*thread.Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Reactions == nil {
			n.Reactions = []thread.ReactionCount{}
		}
		n.Children = normalizeNodes(n.Children)
		out = append(out, n)
	}
	return out
}

func (p *Page) normalize() {
	p.Comments = normalizeNodes(p.Comments)
}

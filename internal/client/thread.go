package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"showtalk/internal/models"
	"showtalk/internal/optimistic"
	"showtalk/internal/thread"
)

var (
	ErrUnknownComment = errors.New("comment is not in the local tree")
	ErrPending        = errors.New("comment is not saved yet")
	ErrNotAllowed     = errors.New("action not available on this comment")
	ErrEmptyReply     = errors.New("reply is empty")
)

// Options configure a Thread.
type Options struct {
	Sort     thread.Sort
	Limit    int
	MaxDepth int
	// Viewer is shown as the author of optimistic replies.
	Viewer models.User
}

// Thread is one discussion's comment tree as seen by a single session.
// Reads never block on requests; writes apply locally first.
type Thread struct {
	api          API
	discussionID uint
	opts         Options
	store        *optimistic.Store[State]

	newKey func() string
	now    func() time.Time
}

func NewThread(api API, discussionID uint, opts Options) *Thread {
	if opts.Sort == "" {
		opts.Sort = thread.SortNew
	}
	if opts.Limit <= 0 {
		opts.Limit = thread.DefaultLimit
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = thread.DefaultMaxDepth
	}
	return &Thread{
		api:          api,
		discussionID: discussionID,
		opts:         opts,
		store:        optimistic.NewStore(emptyState()),
		newKey:       func() string { return tempPrefix + uuid.NewString() },
		now:          time.Now,
	}
}

// Snapshot returns the current local tree.
func (t *Thread) Snapshot() State {
	return t.store.State()
}

func (t *Thread) query(offset int) Query {
	return Query{Sort: t.opts.Sort, Limit: t.opts.Limit, Offset: offset, MaxDepth: t.opts.MaxDepth}
}

func setLoading(s State) State {
	s.loading = true
	return s
}

func clearLoading(current, _ State) State {
	current.loading = false
	return current
}

// Load replaces the local tree with the first page. Replies still in
// flight are kept under their parent when the parent is on that page.
func (t *Thread) Load(ctx context.Context) error {
	_, err := optimistic.Run(ctx, t.store, optimistic.Command[State, *Page]{
		Name:  "load",
		Apply: setLoading,
		Send: func(ctx context.Context) (*Page, error) {
			return t.api.ListComments(ctx, t.discussionID, t.query(0))
		},
		Commit: func(cur State, p *Page) State {
			s := emptyState()
			for _, n := range p.Comments {
				s.insert("", n, 0)
			}
			s.stats = p.Stats
			s.hasMore = p.Pagination.HasMore
			s.offset = p.Pagination.Offset + len(p.Comments)
			s.carryPending(cur)
			return s
		},
		Revert: clearLoading,
	})
	return err
}

// LoadMore appends the next page of roots. Without more pages it does nothing.
func (t *Thread) LoadMore(ctx context.Context) error {
	current := t.store.State()
	if !current.hasMore {
		return nil
	}
	offset := current.offset
	_, err := optimistic.Run(ctx, t.store, optimistic.Command[State, *Page]{
		Name:  "load-more",
		Apply: setLoading,
		Send: func(ctx context.Context) (*Page, error) {
			return t.api.ListComments(ctx, t.discussionID, t.query(offset))
		},
		Commit: func(cur State, p *Page) State {
			s := cur.clone()
			for _, n := range p.Comments {
				s.insert("", n, 0)
			}
			s.stats = p.Stats
			s.hasMore = p.Pagination.HasMore
			s.offset = offset + len(p.Comments)
			s.loading = false
			return s
		},
		Revert: clearLoading,
	})
	return err
}

// LoadSubthread fetches the replies hidden below key ("continue this
// thread") and nests them under it. Replies come a page at a time; while
// more remain the node keeps its continue marker and the next call fetches
// the following page.
func (t *Thread) LoadSubthread(ctx context.Context, key string) error {
	current := t.store.State()
	n, ok := current.Node(key)
	if !ok {
		return ErrUnknownComment
	}
	if IsTemp(key) {
		return ErrPending
	}
	offset := current.subOffset[key]
	_, err := optimistic.Run(ctx, t.store, optimistic.Command[State, *Page]{
		Name:  "load-subthread",
		Apply: setLoading,
		Send: func(ctx context.Context) (*Page, error) {
			return t.api.Subthread(ctx, t.discussionID, n.ID, t.query(offset))
		},
		Commit: func(cur State, p *Page) State {
			s := cur.clone()
			s.loading = false
			parent, ok := s.nodes[key]
			if !ok || len(p.Comments) == 0 {
				return s
			}
			replies := p.Comments[0].Children
			for _, c := range replies {
				s.insert(key, c, parent.node.Depth+1)
			}
			loaded := offset + len(replies)
			more := p.Pagination.HasMore
			s.setNode(key, func(n *thread.Node) {
				n.ContinueThread = more
				n.HiddenReplies = 0
				if more {
					n.HiddenReplies = max(p.Pagination.Total-loaded, 0)
				}
			})
			if more {
				s.subOffset[key] = loaded
			} else {
				delete(s.subOffset, key)
			}
			return s
		},
		Revert: clearLoading,
	})
	return err
}

// Reply adds a comment under parentKey ("" for a top-level comment). The
// reply shows up at once under a temporary key; the returned channel
// resolves when the server confirmed it (same slot, real key) or it was
// removed again.
func (t *Thread) Reply(ctx context.Context, parentKey, content string, spoiler bool) (string, <-chan error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", optimistic.Done(ErrEmptyReply)
	}

	in := NewComment{DiscussionID: t.discussionID, Content: content, Spoiler: spoiler}
	depth := 0
	if parentKey != "" {
		if IsTemp(parentKey) {
			return "", optimistic.Done(ErrPending)
		}
		parent, ok := t.store.State().Node(parentKey)
		if !ok {
			return "", optimistic.Done(ErrUnknownComment)
		}
		if !parent.Actions.Reply {
			return "", optimistic.Done(ErrNotAllowed)
		}
		id := parent.ID
		in.ParentID = &id
		depth = parent.Depth + 1
	}

	tempKey := t.newKey()
	draft := thread.Node{
		DiscussionID: t.discussionID,
		ParentID:     in.ParentID,
		Depth:        depth,
		Author:       t.opts.Viewer,
		Content:      content,
		Spoiler:      spoiler,
		CreatedAt:    t.now(),
		UpdatedAt:    t.now(),
		Reactions:    []thread.ReactionCount{},
		Mine:         true,
		Actions:      thread.Actions{Reply: true, Vote: true, React: true, Delete: true},
	}

	done := optimistic.Go(ctx, t.store, optimistic.Command[State, *thread.Node]{
		Name: "reply",
		Apply: func(cur State) State {
			s := cur.clone()
			s.nodes[tempKey] = entry{node: draft, parent: parentKey}
			s.children[parentKey] = append([]string{tempKey}, s.children[parentKey]...)
			s.setNode(parentKey, func(n *thread.Node) { n.ReplyCount++ })
			s.stats.Total++
			if parentKey == "" {
				s.stats.TopLevel++
			}
			return s
		},
		Send: func(ctx context.Context) (*thread.Node, error) {
			return t.api.AddComment(ctx, in)
		},
		Commit: func(cur State, saved *thread.Node) State {
			s := cur.clone()
			s.rekey(tempKey, *saved)
			return s
		},
		Revert: func(cur, _ State) State {
			if _, ok := cur.nodes[tempKey]; !ok {
				return cur
			}
			s := cur.clone()
			s.remove(tempKey)
			s.setNode(parentKey, func(n *thread.Node) { n.ReplyCount-- })
			s.stats.Total--
			if parentKey == "" {
				s.stats.TopLevel--
			}
			return s
		},
	})
	return tempKey, done
}

// target looks up a stored, confirmed node.
func (t *Thread) target(key string) (thread.Node, error) {
	if IsTemp(key) {
		return thread.Node{}, ErrPending
	}
	n, ok := t.store.State().Node(key)
	if !ok {
		return thread.Node{}, ErrUnknownComment
	}
	return n, nil
}

func applyVote(n *thread.Node, value string) {
	switch n.MyVote {
	case models.Upvote.String():
		n.Upvotes--
	case models.Downvote.String():
		n.Downvotes--
	}
	switch value {
	case models.Upvote.String():
		n.Upvotes++
	case models.Downvote.String():
		n.Downvotes++
	}
	n.MyVote = value
	n.Score = n.Upvotes - n.Downvotes
}

// restore copies fields of key from snapshot back into cur.
func restore(cur, snapshot State, key string, fn func(dst *thread.Node, src thread.Node)) State {
	old, ok := snapshot.nodes[key]
	if !ok {
		return cur
	}
	s := cur.clone()
	s.setNode(key, func(n *thread.Node) { fn(n, old.node) })
	return s
}

func restoreVote(dst *thread.Node, src thread.Node) {
	dst.Upvotes, dst.Downvotes, dst.Score, dst.MyVote = src.Upvotes, src.Downvotes, src.Score, src.MyVote
}

// Vote sets the viewer's vote: "UPVOTE", "DOWNVOTE", or "" to clear it.
// Repeating the current vote is a no-op.
func (t *Thread) Vote(ctx context.Context, key, value string) <-chan error {
	n, err := t.target(key)
	if err != nil {
		return optimistic.Done(err)
	}
	if value != "" {
		v, err := models.ParseVoteValue(value)
		if err != nil {
			return optimistic.Done(err)
		}
		value = v.String()
	}
	if !n.Actions.Vote {
		return optimistic.Done(ErrNotAllowed)
	}
	if n.MyVote == value {
		return optimistic.Done(nil)
	}

	return optimistic.Go(ctx, t.store, optimistic.Command[State, *VoteCounts]{
		Name: "vote",
		Apply: func(cur State) State {
			s := cur.clone()
			s.setNode(key, func(n *thread.Node) { applyVote(n, value) })
			return s
		},
		Send: func(ctx context.Context) (*VoteCounts, error) {
			if value == "" {
				return t.api.Unvote(ctx, n.ID)
			}
			return t.api.Vote(ctx, n.ID, value)
		},
		Commit: func(cur State, res *VoteCounts) State {
			s := cur.clone()
			s.setNode(key, func(n *thread.Node) {
				n.Upvotes, n.Downvotes, n.Score, n.MyVote = res.Upvotes, res.Downvotes, res.Score, res.MyVote
			})
			return s
		},
		Revert: func(cur, snapshot State) State {
			return restore(cur, snapshot, key, restoreVote)
		},
	})
}

// ClearVote removes the viewer's vote.
func (t *Thread) ClearVote(ctx context.Context, key string) <-chan error {
	return t.Vote(ctx, key, "")
}

func applyReaction(n *thread.Node, rt *models.ReactionType) {
	reactions := make([]thread.ReactionCount, 0, len(n.Reactions)+1)
	for _, r := range n.Reactions {
		if n.MyReactionTypeID != nil && r.ReactionTypeID == *n.MyReactionTypeID {
			r.Count--
		}
		if r.Count > 0 {
			reactions = append(reactions, r)
		}
	}
	n.MyReactionTypeID = nil
	if rt != nil {
		found := false
		for i := range reactions {
			if reactions[i].ReactionTypeID == rt.ID {
				reactions[i].Count++
				found = true
			}
		}
		if !found {
			reactions = append(reactions, thread.ReactionCount{ReactionTypeID: rt.ID, Emoji: rt.Emoji, Name: rt.Name, Count: 1})
		}
		id := rt.ID
		n.MyReactionTypeID = &id
	}
	n.Reactions = reactions
}

func restoreReactions(dst *thread.Node, src thread.Node) {
	dst.Reactions, dst.MyReactionTypeID = src.Reactions, src.MyReactionTypeID
}

func (t *Thread) react(ctx context.Context, key string, rt *models.ReactionType) <-chan error {
	n, err := t.target(key)
	if err != nil {
		return optimistic.Done(err)
	}
	if !n.Actions.React {
		return optimistic.Done(ErrNotAllowed)
	}
	if rt == nil && n.MyReactionTypeID == nil {
		return optimistic.Done(nil)
	}
	if rt != nil && n.MyReactionTypeID != nil && *n.MyReactionTypeID == rt.ID {
		return optimistic.Done(nil)
	}

	name := "react"
	if rt == nil {
		name = "unreact"
	}
	return optimistic.Go(ctx, t.store, optimistic.Command[State, *ReactionState]{
		Name: name,
		Apply: func(cur State) State {
			s := cur.clone()
			s.setNode(key, func(n *thread.Node) { applyReaction(n, rt) })
			return s
		},
		Send: func(ctx context.Context) (*ReactionState, error) {
			if rt == nil {
				return t.api.Unreact(ctx, n.ID)
			}
			return t.api.React(ctx, n.ID, rt.ID)
		},
		Commit: func(cur State, res *ReactionState) State {
			s := cur.clone()
			s.setNode(key, func(n *thread.Node) {
				n.Reactions, n.MyReactionTypeID = res.Reactions, res.MyReactionTypeID
			})
			return s
		},
		Revert: func(cur, snapshot State) State {
			return restore(cur, snapshot, key, restoreReactions)
		},
	})
}

// React sets the viewer's reaction, replacing a previous one.
func (t *Thread) React(ctx context.Context, key string, rt models.ReactionType) <-chan error {
	return t.react(ctx, key, &rt)
}

// Unreact removes the viewer's reaction.
func (t *Thread) Unreact(ctx context.Context, key string) <-chan error {
	return t.react(ctx, key, nil)
}

// Delete marks the comment deleted. Its replies stay where they are.
func (t *Thread) Delete(ctx context.Context, key string) <-chan error {
	n, err := t.target(key)
	if err != nil {
		return optimistic.Done(err)
	}
	if n.IsDeleted {
		return optimistic.Done(nil)
	}
	if !n.Actions.Delete {
		return optimistic.Done(ErrNotAllowed)
	}

	return optimistic.Go(ctx, t.store, optimistic.Command[State, struct{}]{
		Name: "delete",
		Apply: func(cur State) State {
			s := cur.clone()
			s.setNode(key, func(n *thread.Node) {
				n.IsDeleted = true
				n.Content = models.DeletedPlaceholder
				n.Spoiler = false
				n.Actions = thread.Actions{}
			})
			return s
		},
		Send: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, t.api.DeleteComment(ctx, n.ID)
		},
		Revert: func(cur, snapshot State) State {
			return restore(cur, snapshot, key, func(dst *thread.Node, src thread.Node) {
				dst.IsDeleted, dst.Content, dst.Spoiler, dst.Actions = src.IsDeleted, src.Content, src.Spoiler, src.Actions
			})
		},
	})
}

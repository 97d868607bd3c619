package client

import (
	"context"
	"sync"
)

// Visibility of a comment's replies. Toggled by the user, never persisted.
type Visibility int

const (
	Expanded Visibility = iota
	Collapsed
)

// ComposerState is the reply box under a comment.
type ComposerState int

const (
	ComposerClosed ComposerState = iota
	ComposerOpen
)

// View holds per-session UI state on top of a Thread: which branches are
// collapsed and which reply boxes are open. Drafts are dropped on cancel.
type View struct {
	thread *Thread

	mu        sync.Mutex
	collapsed map[string]bool
	composer  map[string]bool
}

func NewView(t *Thread) *View {
	return &View{thread: t, collapsed: map[string]bool{}, composer: map[string]bool{}}
}

func (v *View) Visibility(key string) Visibility {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.collapsed[key] {
		return Collapsed
	}
	return Expanded
}

// Toggle flips a branch between expanded and collapsed.
func (v *View) Toggle(key string) Visibility {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.collapsed[key] {
		delete(v.collapsed, key)
		return Expanded
	}
	v.collapsed[key] = true
	return Collapsed
}

func (v *View) Composer(key string) ComposerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.composer[key] {
		return ComposerOpen
	}
	return ComposerClosed
}

// OpenComposer opens the reply box under key ("" is the top-level box).
// Comments without a reply action keep it closed.
func (v *View) OpenComposer(key string) ComposerState {
	if key != "" {
		n, ok := v.thread.Snapshot().Node(key)
		if !ok || IsTemp(key) || !n.Actions.Reply {
			return ComposerClosed
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.composer[key] = true
	return ComposerOpen
}

// CancelComposer closes the reply box without keeping a draft.
func (v *View) CancelComposer(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.composer, key)
}

// Submit closes the reply box and posts the reply optimistically. Closing
// does not cancel the request; its outcome arrives on the channel.
func (v *View) Submit(ctx context.Context, key, content string, spoiler bool) (string, <-chan error) {
	tempKey, done := v.thread.Reply(ctx, key, content, spoiler)
	if tempKey != "" {
		v.CancelComposer(key)
		// 新回复所在分支保持展开
		v.mu.Lock()
		delete(v.collapsed, key)
		v.mu.Unlock()
	}
	return tempKey, done
}

package services

import (
	"context"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showtalk/internal/models"
)

func TestCommentCreatedNotifiesParentAuthor(t *testing.T) {
	conn := testDB(t)
	ctx := context.Background()
	alice := seedUser(t, conn, "alice")
	bob := seedUser(t, conn, "bob")
	d := seedDiscussion(t, conn, alice)
	comments := NewCommentService(conn, nil, nil)
	notifier := NewNotificationService(conn, nil, "https://showtalk.test")

	top, err := comments.AddComment(ctx, bob, CommentInput{DiscussionID: d.ID, Content: "hello"})
	require.NoError(t, err)
	topRow := models.Comment{ID: top.ID, DiscussionID: d.ID, UserID: bob.ID}
	require.NoError(t, notifier.CommentCreated(ctx, bob, d, &topRow))

	reply, err := comments.AddComment(ctx, alice, CommentInput{DiscussionID: d.ID, Content: "hi bob", ParentID: &top.ID})
	require.NoError(t, err)
	replyRow := models.Comment{ID: reply.ID, DiscussionID: d.ID, UserID: alice.ID, ParentID: &top.ID}
	require.NoError(t, notifier.CommentCreated(ctx, alice, d, &replyRow))

	// self reply stays silent
	self, err := comments.AddComment(ctx, alice, CommentInput{DiscussionID: d.ID, Content: "me again", ParentID: &reply.ID})
	require.NoError(t, err)
	selfRow := models.Comment{ID: self.ID, DiscussionID: d.ID, UserID: alice.ID, ParentID: &reply.ID}
	require.NoError(t, notifier.CommentCreated(ctx, alice, d, &selfRow))

	aliceInbox, err := notifier.List(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, aliceInbox, 1)
	assert.Equal(t, models.NotificationTypeCommentDiscussion, aliceInbox[0].Type)

	bobInbox, err := notifier.List(ctx, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	assert.Equal(t, models.NotificationTypeReplyComment, bobInbox[0].Type)
	assert.Equal(t, "alice", bobInbox[0].Actor.Username)

	unread, err := notifier.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	assert.ErrorIs(t, notifier.MarkRead(ctx, alice.ID, bobInbox[0].ID), ErrNotFound)
	require.NoError(t, notifier.MarkRead(ctx, bob.ID, bobInbox[0].ID))
	unread, err = notifier.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	require.NoError(t, notifier.MarkAllRead(ctx, alice.ID))
	unread, err = notifier.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestMailServiceRendersReplyTemplate(t *testing.T) {
	dir := t.TempDir()
	tpl := `<p>{{.Actor}} replied in {{.DiscussionTitle}}: {{.ReplyContent}}</p><a href="{{.Link}}">open</a>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reply.html"), []byte(tpl), 0o644))

	var (
		mu   sync.Mutex
		sent []byte
		to   []string
	)
	done := make(chan struct{})
	s := &MailService{
		Host: "smtp.test", Port: "25", From: "noreply@showtalk.test",
		Enabled: true, TemplatesDir: dir,
		send: func(addr string, a smtp.Auth, from string, rcpt []string, msg []byte) error {
			mu.Lock()
			defer mu.Unlock()
			sent, to = msg, rcpt
			close(done)
			return nil
		},
	}

	s.SendReplyNotification("bob@example.com", "alice", "Finale", "<b>agreed</b>", "orig", "https://x/d/1#comment-2")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("mail was not sent")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bob@example.com"}, to)
	body := string(sent)
	assert.Contains(t, body, "Subject: alice replied to your comment")
	assert.Contains(t, body, "&lt;b&gt;agreed&lt;/b&gt;")
	assert.Contains(t, body, "https://x/d/1#comment-2")
}

func TestMailServiceDisabledSendsNothing(t *testing.T) {
	s := &MailService{Enabled: false, send: func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("disabled mail service must not send")
		return nil
	}}
	s.SendReplyNotification("bob@example.com", "alice", "t", "r", "o", "l")
}

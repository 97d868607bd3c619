package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAPIListDefaultsMissingCollections(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"comments":[{"id":1,"children":[{"id":2}]},null],"pagination":{"hasMore":true}}`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL+"/", "tok")
	page, err := api.ListComments(context.Background(), 5, Query{Sort: "top", Limit: 10, Offset: 20, MaxDepth: 3})
	require.NoError(t, err)

	assert.Equal(t, "/api/discussions/5/comments", got.URL.Path)
	assert.Equal(t, "top", got.URL.Query().Get("sort"))
	assert.Equal(t, "20", got.URL.Query().Get("offset"))
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))

	require.Len(t, page.Comments, 1)
	root := page.Comments[0]
	assert.NotNil(t, root.Reactions)
	require.Len(t, root.Children, 1)
	assert.NotNil(t, root.Children[0].Reactions)
	assert.NotNil(t, root.Children[0].Children)
	assert.True(t, page.Pagination.HasMore)
}

func TestHTTPAPIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
		_, _ = w.Write([]byte(`{"error":"comment deleted"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPAPI(srv.URL, "").Vote(context.Background(), 1, "UPVOTE")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusGone, se.Code)
	assert.Equal(t, "comment deleted", se.Message)
	assert.Contains(t, se.Error(), "410")
}

func TestHTTPAPIAddCommentSendsBody(t *testing.T) {
	var body NewComment
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":11,"content":"hi"}`))
	}))
	defer srv.Close()

	parent := uint(3)
	n, err := NewHTTPAPI(srv.URL, "").AddComment(context.Background(), NewComment{DiscussionID: 2, Content: "hi", ParentID: &parent})
	require.NoError(t, err)
	assert.Equal(t, uint(11), n.ID)
	assert.NotNil(t, n.Reactions)
	assert.Equal(t, uint(2), body.DiscussionID)
	require.NotNil(t, body.ParentID)
	assert.Equal(t, uint(3), *body.ParentID)
}

func TestHTTPAPIRejectsMalformedBodies(t *testing.T) {
	for _, tt := range []struct {
		name, body, want string
	}{
		{"truncated", `{"id":`, "decode response"},
		{"missing id", `{}`, "without id"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPAPI(srv.URL, "").AddComment(context.Background(), NewComment{Content: "x"})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestHTTPAPIUnreactDefaultsReactions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "1", r.URL.Query().Get("commentId"))
		_, _ = w.Write([]byte(`{"commentId":1}`))
	}))
	defer srv.Close()

	state, err := NewHTTPAPI(srv.URL, "").Unreact(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, state.Reactions)
	assert.Nil(t, state.MyReactionTypeID)
}

func TestHTTPAPIDeleteWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/comments/9", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, NewHTTPAPI(srv.URL, "").DeleteComment(context.Background(), 9))
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"showtalk/internal/thread"
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// HTTPAPI talks to a showtalk server.
type HTTPAPI struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	v.Set("maxDepth", strconv.Itoa(q.MaxDepth))
	return v
}

func (a *HTTPAPI) ListComments(ctx context.Context, discussionID uint, q Query) (*Page, error) {
	var p Page
	path := fmt.Sprintf("/api/discussions/%d/comments?%s", discussionID, q.values().Encode())
	if err := a.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

func (a *HTTPAPI) Subthread(ctx context.Context, discussionID, parentID uint, q Query) (*Page, error) {
	v := q.values()
	v.Set("parentId", strconv.FormatUint(uint64(parentID), 10))
	var p Page
	path := fmt.Sprintf("/api/discussions/%d/thread?%s", discussionID, v.Encode())
	if err := a.do(ctx, http.MethodGet, path, nil, &p); err != nil {
		return nil, err
	}
	p.normalize()
	return &p, nil
}

func (a *HTTPAPI) AddComment(ctx context.Context, in NewComment) (*thread.Node, error) {
	var n thread.Node
	if err := a.do(ctx, http.MethodPost, "/api/comments", in, &n); err != nil {
		return nil, err
	}
	if n.ID == 0 {
		return nil, fmt.Errorf("decode response: comment without id")
	}
	return normalizeNodes([]*thread.Node{&n})[0], nil
}

func (a *HTTPAPI) Vote(ctx context.Context, commentID uint, value string) (*VoteCounts, error) {
	var v VoteCounts
	body := map[string]interface{}{"commentId": commentID, "value": value}
	if err := a.do(ctx, http.MethodPost, "/api/comments/vote", body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (a *HTTPAPI) Unvote(ctx context.Context, commentID uint) (*VoteCounts, error) {
	var v VoteCounts
	path := fmt.Sprintf("/api/comments/vote?commentId=%d", commentID)
	if err := a.do(ctx, http.MethodDelete, path, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (a *HTTPAPI) React(ctx context.Context, commentID, reactionTypeID uint) (*ReactionState, error) {
	var r ReactionState
	body := map[string]interface{}{"commentId": commentID, "reactionTypeId": reactionTypeID}
	if err := a.do(ctx, http.MethodPost, "/api/comments/reactions", body, &r); err != nil {
		return nil, err
	}
	if r.Reactions == nil {
		r.Reactions = []thread.ReactionCount{}
	}
	return &r, nil
}

func (a *HTTPAPI) Unreact(ctx context.Context, commentID uint) (*ReactionState, error) {
	var r ReactionState
	path := fmt.Sprintf("/api/comments/reactions?commentId=%d", commentID)
	if err := a.do(ctx, http.MethodDelete, path, nil, &r); err != nil {
		return nil, err
	}
	if r.Reactions == nil {
		r.Reactions = []thread.ReactionCount{}
	}
	return &r, nil
}

func (a *HTTPAPI) DeleteComment(ctx context.Context, commentID uint) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", commentID), nil, nil)
}

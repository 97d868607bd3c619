package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"showtalk/internal/metrics"
	"showtalk/internal/models"
	"showtalk/internal/thread"
	"showtalk/internal/utils"
)

const (
	MaxCommentLength = 10000
	maxPathLength    = 500
	reactionTypesKey = "reaction_types"
	reactionTypesTTL = 10 * time.Minute
)

// ListOptions controls one comment fetch.
type ListOptions struct {
	Sort     thread.Sort
	Offset   int
	Limit    int
	Tree     bool
	MaxDepth int
}

// DefaultListOptions: newest first, 20 roots, nested up to 5 levels.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Sort:     thread.SortNew,
		Limit:    thread.DefaultLimit,
		Tree:     true,
		MaxDepth: thread.DefaultMaxDepth,
	}
}

func (o ListOptions) normalize() ListOptions {
	o.Offset, o.Limit = thread.NormalizeWindow(o.Offset, o.Limit)
	o.MaxDepth = thread.NormalizeMaxDepth(o.MaxDepth)
	o.Sort = thread.ParseSort(string(o.Sort))
	return o
}

type Pagination struct {
	HasMore bool `json:"hasMore"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
}

// Result is the response shape of both the discussion listing and a subthread.
type Result struct {
	Comments   []*thread.Node `json:"comments"`
	Stats      thread.Stats   `json:"stats"`
	Pagination Pagination     `json:"pagination"`
}

// CommentInput is a new comment or reply.
type CommentInput struct {
	DiscussionID uint   `json:"discussionId" binding:"required"`
	Content      string `json:"content" binding:"required"`
	ParentID     *uint  `json:"parentId"`
	Spoiler      bool   `json:"spoiler"`
}

// VoteResult carries the comment's counts after a vote change.
type VoteResult struct {
	CommentID uint   `json:"commentId"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
	MyVote    string `json:"myVote,omitempty"`
}

// ReactionResult carries the comment's reactions after a change.
type ReactionResult struct {
	CommentID        uint                   `json:"commentId"`
	Reactions        []thread.ReactionCount `json:"reactions"`
	MyReactionTypeID *uint                  `json:"myReactionTypeId,omitempty"`
}

// ReactionTypeGroup is one category of the reaction picker.
type ReactionTypeGroup struct {
	Category string                `json:"category"`
	Types    []models.ReactionType `json:"types"`
}

type CommentService struct {
	db       *gorm.DB
	activity *ActivityService
	notifier *NotificationService
	cache    *utils.TTLCache[any]
}

// NewCommentService wires the comment store. activity and notifier may be nil.
func NewCommentService(db *gorm.DB, activity *ActivityService, notifier *NotificationService) *CommentService {
	return &CommentService{
		db:       db,
		activity: activity,
		notifier: notifier,
		cache:    utils.GetCache(),
	}
}

// ListComments returns one page of a discussion's comments. With opts.Tree
// the page is a window of sorted roots, each nested up to opts.MaxDepth;
// otherwise it is a window of the flat, sorted comment list.
func (s *CommentService) ListComments(ctx context.Context, discussionID, viewerID uint, opts ListOptions) (*Result, error) {
	opts = opts.normalize()
	timer := prometheus.NewTimer(metrics.TreeBuildDuration.WithLabelValues("discussion"))
	defer timer.ObserveDuration()

	tx := s.db.WithContext(ctx)
	if err := s.ensureDiscussion(tx, discussionID); err != nil {
		return nil, err
	}

	var rows []models.Comment
	err := tx.Preload("User").
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	metrics.TreeSize.Observe(float64(len(rows)))

	flat, err := s.decorate(ctx, rows, viewerID)
	if err != nil {
		return nil, err
	}

	var nodes []*thread.Node
	if opts.Tree {
		nodes = thread.SortTree(thread.Build(flat, opts.MaxDepth), opts.Sort)
	} else {
		nodes = thread.SortRoots(thread.Flatten(flat), opts.Sort)
	}
	page := thread.PaginateRoots(nodes, opts.Offset, opts.Limit)

	return &Result{
		Comments: page.Items,
		Stats:    thread.ComputeStats(flat),
		Pagination: Pagination{
			HasMore: page.HasMore,
			Offset:  page.Offset,
			Limit:   page.Limit,
			Total:   page.Total,
		},
	}, nil
}

// Subthread rebuilds the tree below parentID for "continue this thread".
// The parent is the single returned root at depth 0; its direct replies
// are sorted and windowed by opts.Offset/opts.Limit. A parent without
// replies yields an empty child list.
func (s *CommentService) Subthread(ctx context.Context, discussionID, parentID, viewerID uint, opts ListOptions) (*Result, error) {
	opts = opts.normalize()
	timer := prometheus.NewTimer(metrics.TreeBuildDuration.WithLabelValues("subthread"))
	defer timer.ObserveDuration()

	tx := s.db.WithContext(ctx)
	var parent models.Comment
	err := tx.Where("id = ? AND discussion_id = ?", parentID, discussionID).First(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load parent comment: %w", err)
	}

	prefix := parent.ChildPath()
	var rows []models.Comment
	err = tx.Preload("User").
		Where("discussion_id = ?", discussionID).
		Where("id = ? OR path = ? OR path LIKE ?", parent.ID, prefix, prefix+"/%").
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load subthread: %w", err)
	}
	metrics.TreeSize.Observe(float64(len(rows)))

	flat, err := s.decorate(ctx, rows, viewerID)
	if err != nil {
		return nil, err
	}

	var root *thread.Node
	for _, n := range thread.Build(flat, opts.MaxDepth) {
		if n.ID == parent.ID {
			root = n
			break
		}
	}
	if root == nil {
		return nil, ErrNotFound
	}

	children := thread.SortTree(root.Children, opts.Sort)
	page := thread.PaginateRoots(children, opts.Offset, opts.Limit)
	root.Children = page.Items

	return &Result{
		Comments: []*thread.Node{root},
		Stats:    thread.ComputeStats(flat),
		Pagination: Pagination{
			HasMore: page.HasMore,
			Offset:  page.Offset,
			Limit:   page.Limit,
			Total:   page.Total,
		},
	}, nil
}

// AddComment stores a comment or reply by user and returns it in tree
// shape with zero counts.
func (s *CommentService) AddComment(ctx context.Context, user *models.User, in CommentInput) (node *thread.Node, err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("create", metrics.Outcome(err)).Inc() }()

	content := strings.TrimSpace(in.Content)
	if content == "" || utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, fmt.Errorf("%w: content must be 1-%d characters", ErrInvalidInput, MaxCommentLength)
	}

	var discussion models.Discussion
	comment := models.Comment{
		DiscussionID: in.DiscussionID,
		UserID:       user.ID,
		Content:      content,
		Spoiler:      in.Spoiler,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&discussion, in.DiscussionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load discussion: %w", err)
		}

		if in.ParentID != nil {
			var parent models.Comment
			err := tx.Where("id = ? AND discussion_id = ?", *in.ParentID, in.DiscussionID).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: parent comment %d is not in discussion %d", ErrNotFound, *in.ParentID, in.DiscussionID)
			}
			if err != nil {
				return fmt.Errorf("load parent comment: %w", err)
			}
			if parent.IsDeleted {
				return ErrDeleted
			}
			comment.ParentID = &parent.ID
			comment.Path = parent.ChildPath()
			comment.Depth = parent.Depth + 1
			if len(comment.Path) > maxPathLength {
				return fmt.Errorf("%w: thread is too deep", ErrInvalidInput)
			}
		}

		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	comment.User = *user

	if s.activity != nil {
		s.activity.ScheduleUpdate(discussion.ID)
	}
	if s.notifier != nil {
		s.notifier.CommentCreatedAsync(*user, discussion, comment)
	}

	n := thread.FromComment(&comment)
	n.Mine = true
	return thread.Flatten([]thread.Node{n})[0], nil
}

// Vote sets the user's vote on a comment. Repeating the same vote changes nothing.
func (s *CommentService) Vote(ctx context.Context, userID, commentID uint, value models.VoteValue) (res *VoteResult, err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("vote", metrics.Outcome(err)).Inc() }()

	if value != models.Upvote && value != models.Downvote {
		return nil, fmt.Errorf("%w: vote value", ErrInvalidInput)
	}
	comment, err := s.activeComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	vote := models.Vote{UserID: userID, CommentID: commentID, Value: value}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		return nil, fmt.Errorf("save vote: %w", err)
	}

	if s.activity != nil {
		s.activity.ScheduleUpdate(comment.DiscussionID)
	}
	return s.voteResult(ctx, userID, commentID)
}

// Unvote removes the user's vote, if any.
func (s *CommentService) Unvote(ctx context.Context, userID, commentID uint) (res *VoteResult, err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("unvote", metrics.Outcome(err)).Inc() }()

	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.Vote{}).Error
	if err != nil {
		return nil, fmt.Errorf("delete vote: %w", err)
	}

	if s.activity != nil {
		s.activity.ScheduleUpdate(comment.DiscussionID)
	}
	return s.voteResult(ctx, userID, commentID)
}

// React sets the user's reaction on a comment, replacing a previous one.
func (s *CommentService) React(ctx context.Context, userID, commentID, reactionTypeID uint) (res *ReactionResult, err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("react", metrics.Outcome(err)).Inc() }()

	types, err := s.reactionTypes(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := types[reactionTypeID]; !ok {
		return nil, fmt.Errorf("%w: unknown reaction type %d", ErrInvalidInput, reactionTypeID)
	}
	if _, err := s.activeComment(ctx, commentID); err != nil {
		return nil, err
	}

	reaction := models.Reaction{UserID: userID, CommentID: commentID, ReactionTypeID: reactionTypeID}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reaction_type_id", "updated_at"}),
	}).Create(&reaction).Error
	if err != nil {
		return nil, fmt.Errorf("save reaction: %w", err)
	}
	return s.reactionResult(ctx, userID, commentID)
}

// Unreact removes the user's reaction, if any.
func (s *CommentService) Unreact(ctx context.Context, userID, commentID uint) (res *ReactionResult, err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("unreact", metrics.Outcome(err)).Inc() }()

	if _, err := s.findComment(ctx, commentID); err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.Reaction{}).Error
	if err != nil {
		return nil, fmt.Errorf("delete reaction: %w", err)
	}
	return s.reactionResult(ctx, userID, commentID)
}

// DeleteComment soft-deletes a comment. Only its author or an admin may
// do so; deleting twice is a no-op. Replies stay where they are.
func (s *CommentService) DeleteComment(ctx context.Context, user *models.User, commentID uint) (err error) {
	defer func() { metrics.CommentWrites.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()

	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		return ErrForbidden
	}
	if comment.IsDeleted {
		return nil
	}

	err = s.db.WithContext(ctx).Model(comment).Update("is_deleted", true).Error
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if s.activity != nil {
		s.activity.ScheduleUpdate(comment.DiscussionID)
	}
	return nil
}

// ReactionTypeGroups lists the reaction types grouped by category, in
// picker order.
func (s *CommentService) ReactionTypeGroups(ctx context.Context) ([]ReactionTypeGroup, error) {
	list, err := s.reactionTypeList(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]ReactionTypeGroup, 0)
	index := make(map[string]int)
	for _, rt := range list {
		i, ok := index[rt.Category]
		if !ok {
			i = len(groups)
			index[rt.Category] = i
			groups = append(groups, ReactionTypeGroup{Category: rt.Category})
		}
		groups[i].Types = append(groups[i].Types, rt)
	}
	return groups, nil
}

func (s *CommentService) ensureDiscussion(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Discussion{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("load discussion: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	return &c, nil
}

// activeComment is findComment that also rejects deleted comments.
func (s *CommentService) activeComment(ctx context.Context, id uint) (*models.Comment, error) {
	c, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, ErrDeleted
	}
	return c, nil
}

func (s *CommentService) reactionTypeList(ctx context.Context) ([]models.ReactionType, error) {
	if v, ok := s.cache.Get(reactionTypesKey); ok {
		if list, ok := v.([]models.ReactionType); ok {
			return list, nil
		}
	}
	var list []models.ReactionType
	if err := s.db.WithContext(ctx).Order("position ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("load reaction types: %w", err)
	}
	s.cache.Set(reactionTypesKey, list, reactionTypesTTL)
	return list, nil
}

func (s *CommentService) reactionTypes(ctx context.Context) (map[uint]models.ReactionType, error) {
	list, err := s.reactionTypeList(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.ReactionType, len(list))
	for _, rt := range list {
		out[rt.ID] = rt
	}
	return out, nil
}

type voteAgg struct {
	CommentID uint
	Upvotes   int
	Downvotes int
}

type reactionAgg struct {
	CommentID      uint
	ReactionTypeID uint
	Count          int
}

const voteAggSelect = "comment_id, " +
	"COALESCE(SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END), 0) AS upvotes, " +
	"COALESCE(SUM(CASE WHEN value = -1 THEN 1 ELSE 0 END), 0) AS downvotes"

// decorate turns rows into thread nodes carrying vote and reaction
// aggregates plus the viewer's own vote and reaction. viewerID 0 is anonymous.
func (s *CommentService) decorate(ctx context.Context, rows []models.Comment, viewerID uint) ([]thread.Node, error) {
	flat := make([]thread.Node, 0, len(rows))
	if len(rows) == 0 {
		return flat, nil
	}
	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	tx := s.db.WithContext(ctx)

	var votes []voteAgg
	if err := tx.Model(&models.Vote{}).Select(voteAggSelect).
		Where("comment_id IN ?", ids).Group("comment_id").
		Scan(&votes).Error; err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}
	voteBy := make(map[uint]voteAgg, len(votes))
	for _, v := range votes {
		voteBy[v.CommentID] = v
	}

	var reactions []reactionAgg
	if err := tx.Model(&models.Reaction{}).
		Select("comment_id, reaction_type_id, COUNT(*) AS count").
		Where("comment_id IN ?", ids).Group("comment_id, reaction_type_id").
		Order("comment_id, reaction_type_id").
		Scan(&reactions).Error; err != nil {
		return nil, fmt.Errorf("aggregate reactions: %w", err)
	}
	types, err := s.reactionTypes(ctx)
	if err != nil {
		return nil, err
	}
	reactionsBy := make(map[uint][]thread.ReactionCount)
	for _, r := range reactions {
		rt := types[r.ReactionTypeID]
		reactionsBy[r.CommentID] = append(reactionsBy[r.CommentID], thread.ReactionCount{
			ReactionTypeID: r.ReactionTypeID,
			Emoji:          rt.Emoji,
			Name:           rt.Name,
			Count:          r.Count,
		})
	}

	myVotes := make(map[uint]models.VoteValue)
	myReactions := make(map[uint]uint)
	if viewerID != 0 {
		var vs []models.Vote
		if err := tx.Where("user_id = ? AND comment_id IN ?", viewerID, ids).Find(&vs).Error; err != nil {
			return nil, fmt.Errorf("load viewer votes: %w", err)
		}
		for _, v := range vs {
			myVotes[v.CommentID] = v.Value
		}
		var rs []models.Reaction
		if err := tx.Where("user_id = ? AND comment_id IN ?", viewerID, ids).Find(&rs).Error; err != nil {
			return nil, fmt.Errorf("load viewer reactions: %w", err)
		}
		for _, r := range rs {
			myReactions[r.CommentID] = r.ReactionTypeID
		}
	}

	for i := range rows {
		c := &rows[i]
		n := thread.FromComment(c)
		agg := voteBy[c.ID]
		n.Upvotes, n.Downvotes = agg.Upvotes, agg.Downvotes
		n.Score = agg.Upvotes - agg.Downvotes
		if rs, ok := reactionsBy[c.ID]; ok {
			n.Reactions = rs
		}
		if v, ok := myVotes[c.ID]; ok {
			n.MyVote = v.String()
		}
		if rt, ok := myReactions[c.ID]; ok {
			n.MyReactionTypeID = &rt
		}
		n.Mine = viewerID != 0 && c.UserID == viewerID
		flat = append(flat, n)
	}
	return flat, nil
}

func (s *CommentService) voteResult(ctx context.Context, userID, commentID uint) (*VoteResult, error) {
	tx := s.db.WithContext(ctx)
	var agg voteAgg
	if err := tx.Model(&models.Vote{}).Select(voteAggSelect).
		Where("comment_id = ?", commentID).Group("comment_id").
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}
	res := &VoteResult{
		CommentID: commentID,
		Upvotes:   agg.Upvotes,
		Downvotes: agg.Downvotes,
		Score:     agg.Upvotes - agg.Downvotes,
	}

	var mine models.Vote
	err := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Limit(1).Find(&mine).Error
	if err != nil {
		return nil, fmt.Errorf("load vote: %w", err)
	}
	if mine.ID != 0 {
		res.MyVote = mine.Value.String()
	}
	return res, nil
}

func (s *CommentService) reactionResult(ctx context.Context, userID, commentID uint) (*ReactionResult, error) {
	rows := []models.Comment{{ID: commentID}}
	flat, err := s.decorate(ctx, rows, userID)
	if err != nil {
		return nil, err
	}
	return &ReactionResult{
		CommentID:        commentID,
		Reactions:        flat[0].Reactions,
		MyReactionTypeID: flat[0].MyReactionTypeID,
	}, nil
}

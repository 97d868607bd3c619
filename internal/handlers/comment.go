package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"showtalk/internal/middleware"
	"showtalk/internal/models"
	"showtalk/internal/services"
	"showtalk/internal/thread"
	"showtalk/internal/utils"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// listOptions 解析 sort/limit/offset/tree/maxDepth，非法值回落到默认
func listOptions(c *gin.Context) services.ListOptions {
	opts := services.DefaultListOptions()
	opts.Sort = thread.ParseSort(c.Query("sort"))
	opts.Limit = utils.StringToInt(c.Query("limit"), thread.DefaultLimit)
	opts.Offset = utils.StringToInt(c.Query("offset"), 0)
	opts.Tree = utils.StringToBool(c.Query("tree"), true)
	opts.MaxDepth = utils.StringToInt(c.Query("maxDepth"), thread.DefaultMaxDepth)
	return opts
}

// List GET /api/discussions/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	discussionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.comments.ListComments(c.Request.Context(), discussionID, middleware.ViewerID(c), listOptions(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Thread GET /api/discussions/:id/thread?parentId=
func (h *CommentHandler) Thread(c *gin.Context) {
	discussionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	parentID, ok := queryID(c, "parentId")
	if !ok {
		return
	}
	res, err := h.comments.Subthread(c.Request.Context(), discussionID, parentID, middleware.ViewerID(c), listOptions(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var in services.CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "discussionId and content are required")
		return
	}
	node, err := h.comments.AddComment(c.Request.Context(), user, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

type voteRequest struct {
	CommentID uint   `json:"commentId" binding:"required"`
	Value     string `json:"value" binding:"required"`
}

// Vote POST /api/comments/vote
func (h *CommentHandler) Vote(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "commentId and value are required")
		return
	}
	value, err := models.ParseVoteValue(req.Value)
	if err != nil {
		badRequest(c, "value must be UPVOTE or DOWNVOTE")
		return
	}
	res, err := h.comments.Vote(c.Request.Context(), user.ID, req.CommentID, value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unvote DELETE /api/comments/vote?commentId=
func (h *CommentHandler) Unvote(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	commentID, ok := queryID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.comments.Unvote(c.Request.Context(), user.ID, commentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type reactionRequest struct {
	CommentID      uint `json:"commentId" binding:"required"`
	ReactionTypeID uint `json:"reactionTypeId" binding:"required"`
}

// React POST /api/comments/reactions
func (h *CommentHandler) React(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "commentId and reactionTypeId are required")
		return
	}
	res, err := h.comments.React(c.Request.Context(), user.ID, req.CommentID, req.ReactionTypeID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unreact DELETE /api/comments/reactions?commentId=
func (h *CommentHandler) Unreact(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	commentID, ok := queryID(c, "commentId")
	if !ok {
		return
	}
	res, err := h.comments.Unreact(c.Request.Context(), user.ID, commentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), user, commentID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReactionTypes GET /api/reaction-types
func (h *CommentHandler) ReactionTypes(c *gin.Context) {
	groups, err := h.comments.ReactionTypeGroups(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

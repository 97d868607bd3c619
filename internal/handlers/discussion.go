package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"showtalk/internal/middleware"
	"showtalk/internal/services"
	"showtalk/internal/thread"
	"showtalk/internal/utils"
)

type DiscussionHandler struct {
	discussions *services.DiscussionService
	comments    *services.CommentService
}

func NewDiscussionHandler(discussions *services.DiscussionService, comments *services.CommentService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions, comments: comments}
}

func optionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// List GET /api/discussions?showId=&season=&episode=&sort=
func (h *DiscussionHandler) List(c *gin.Context) {
	showID, ok := queryID(c, "showId")
	if !ok {
		return
	}
	filter := services.DiscussionFilter{
		ShowID:        showID,
		SeasonNumber:  optionalInt(c.Query("season")),
		EpisodeNumber: optionalInt(c.Query("episode")),
		Sort:          c.DefaultQuery("sort", "hot"),
		Offset:        utils.StringToInt(c.Query("offset"), 0),
		Limit:         utils.StringToInt(c.Query("limit"), 20),
	}
	list, total, err := h.discussions.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discussions": list, "total": total})
}

// Create POST /api/discussions
func (h *DiscussionHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var in services.DiscussionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "showId and title are required")
		return
	}
	d, err := h.discussions.Create(c.Request.Context(), user, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// Get GET /api/discussions/:id
func (h *DiscussionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.discussions.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type pageCacheEntry struct {
	Data gin.H
}

// Page GET /d/:id 服务端渲染的讨论页，匿名访问走缓存
func (h *DiscussionHandler) Page(c *gin.Context) {
	id, ok := utils.StringToUint(c.Param("id"))
	if !ok {
		RenderError(c, http.StatusNotFound, "Discussion not found")
		return
	}
	opts := listOptions(c)
	viewerID := middleware.ViewerID(c)

	cacheKey := pageCacheKey(id, opts)
	if viewerID == 0 {
		if cached, ok := utils.GetCache().Get(cacheKey); ok {
			if entry, ok := cached.(pageCacheEntry); ok {
				Render(c, http.StatusOK, "discussion/detail.html", copyH(entry.Data))
				return
			}
		}
	}

	d, err := h.discussions.Get(c.Request.Context(), id)
	if err != nil {
		code := statusOf(err)
		if code == http.StatusNotFound {
			RenderError(c, code, "Discussion not found")
		} else {
			_ = c.Error(err)
			RenderError(c, code, "Something went wrong")
		}
		return
	}
	opts.Tree = true
	res, err := h.comments.ListComments(c.Request.Context(), id, viewerID, opts)
	if err != nil {
		_ = c.Error(err)
		RenderError(c, statusOf(err), "Could not load comments")
		return
	}

	data := gin.H{
		"Title":      d.Title,
		"Discussion": d,
		"Body":       utils.RenderComment(d.Body, d.Spoiler),
		"Comments":   res.Comments,
		"Stats":      res.Stats,
		"Pagination": res.Pagination,
		"Sort":       string(opts.Sort),
		"Sorts":      []thread.Sort{thread.SortNew, thread.SortTop, thread.SortBest},
		"NextOffset": res.Pagination.Offset + res.Pagination.Limit,
	}
	if viewerID == 0 {
		utils.GetCache().Set(cacheKey, pageCacheEntry{Data: copyH(data)}, 30*time.Second)
	}
	Render(c, http.StatusOK, "discussion/detail.html", data)
}

// pageCacheKey covers every option that changes the rendered page.
func pageCacheKey(id uint, opts services.ListOptions) string {
	return fmt.Sprintf("discussion:%d:%s:%d:%d:%d", id, opts.Sort, opts.Offset, opts.Limit, opts.MaxDepth)
}

func copyH(h gin.H) gin.H {
	out := make(gin.H, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

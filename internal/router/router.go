package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"showtalk/internal/handlers"
	"showtalk/internal/middleware"
	"showtalk/internal/services"
)

// Deps are the services the routes are served by.
type Deps struct {
	DB            *gorm.DB
	Auth          *middleware.Authenticator
	Limiter       *middleware.RateLimiter
	Comments      *services.CommentService
	Discussions   *services.DiscussionService
	Notifications *services.NotificationService
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	commentHandler := handlers.NewCommentHandler(d.Comments)
	discussionHandler := handlers.NewDiscussionHandler(d.Discussions, d.Comments)
	notificationHandler := handlers.NewNotificationHandler(d.Notifications)

	r.GET("/health", handlers.Health(d.DB))          // 健康检查
	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus

	site := r.Group("/")
	site.Use(d.Auth.LoadUser())
	{
		site.GET("/d/:id", discussionHandler.Page) // 讨论详情页
	}

	api := r.Group("/api")
	api.Use(d.Auth.LoadUser())

	// 公共接口 (Public API)
	api.GET("/discussions", discussionHandler.List)           // 按剧集/季/单集列出讨论
	api.GET("/discussions/:id", discussionHandler.Get)        // 讨论详情
	api.GET("/discussions/:id/comments", commentHandler.List) // 评论树（排序 + 分页）
	api.GET("/discussions/:id/thread", commentHandler.Thread) // 继续展开子线程
	api.GET("/reaction-types", commentHandler.ReactionTypes)  // 表情反应类型

	// 受保护接口 (Protected API)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/notifications", notificationHandler.List)              // 我的通知
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll) // 全部已读
		authorized.POST("/notifications/:id/read", notificationHandler.Read)    // 单条已读
	}

	// 写操作限流 (Rate-limited writes)
	writes := authorized.Group("")
	writes.Use(d.Limiter.Middleware())
	{
		writes.POST("/discussions", discussionHandler.Create)        // 发起讨论
		writes.POST("/comments", commentHandler.Create)              // 发表评论/回复
		writes.POST("/comments/vote", commentHandler.Vote)           // 投票（幂等覆盖）
		writes.DELETE("/comments/vote", commentHandler.Unvote)       // 撤销投票
		writes.POST("/comments/reactions", commentHandler.React)     // 添加/替换反应
		writes.DELETE("/comments/reactions", commentHandler.Unreact) // 移除反应
		writes.DELETE("/comments/:id", commentHandler.Delete)        // 软删除评论
	}
}

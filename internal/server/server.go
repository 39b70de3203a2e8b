package server

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teDdyMucho/groundstandard/internal/chat"
	"github.com/teDdyMucho/groundstandard/internal/service"
	"github.com/teDdyMucho/groundstandard/internal/watch"
	gerrors "github.com/teDdyMucho/groundstandard/pkg/errors"
	"github.com/teDdyMucho/groundstandard/pkg/xerr"
)

type Server struct {
	engine    *gin.Engine
	dashboard *service.Dashboard
	chat      *chat.Service
	watcher   *watch.Watcher
}

func NewServer(dashboard *service.Dashboard, chatSvc *chat.Service, watcher *watch.Watcher, staticFS fs.FS) *Server {
	router := gin.Default()

	s := &Server{
		engine:    router,
		dashboard: dashboard,
		chat:      chatSvc,
		watcher:   watcher,
	}

	api := router.Group("/api")
	{
		api.GET("/articles", s.listArticles)
		api.POST("/articles", s.createArticles)
		api.DELETE("/articles", s.deleteArticles)
		api.POST("/articles/:id/write", s.writeArticle)
		api.POST("/articles/:id/rewrite", s.rewriteArticle)
		api.PUT("/articles/:id/tag", s.assignTag)

		api.GET("/stats", s.stats)
		api.GET("/notifications", s.notifications)
		api.GET("/refresh", s.refresh)

		api.GET("/tags", s.listTags)
		api.POST("/tags", s.createTag)

		api.POST("/chat", s.chatSend)
		api.POST("/chat/reset", s.chatReset)
		api.GET("/chat/history", s.chatHistory)

		api.GET("/watch/stats", s.watchStats)
	}

	router.NoRoute(func(c *gin.Context) {
		// 为了安全，防止 API 404 返回了 HTML 页面
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(404, gin.H{"error": "API not found"})
			return
		}

		http.FileServer(http.FS(staticFS)).ServeHTTP(c.Writer, c.Request)
	})

	return s
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// writeErr 按错误码映射 HTTP 状态，CodeMsg 之外的错误一律 500
func writeErr(c *gin.Context, err error) {
	var cm *gerrors.CodeMsg
	if errors.As(err, &cm) {
		c.JSON(xerr.HTTPStatus(cm.Code), gin.H{"error": cm.Msg, "code": cm.Code})
		return
	}
	c.JSON(500, gin.H{"error": err.Error()})
}

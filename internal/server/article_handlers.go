package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/teDdyMucho/groundstandard/internal/reconcile"
	"github.com/teDdyMucho/groundstandard/internal/service"
)

// listArticles 合并视图：真实记录 + 待处理标记 + 乐观占位，分页返回
func (s *Server) listArticles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	f := reconcile.Filter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}

	view, err := s.dashboard.View(c.Request.Context(), f, page)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"data": view, "tags": s.dashboard.RowTags(c.Request.Context())})
}

func (s *Server) createArticles(c *gin.Context) {
	var req service.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := s.dashboard.CreateArticles(c.Request.Context(), req); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Create dispatched"})
}

func (s *Server) writeArticle(c *gin.Context) {
	var req service.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	if err := s.dashboard.WriteArticle(c.Request.Context(), req); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Write dispatched"})
}

func (s *Server) rewriteArticle(c *gin.Context) {
	var req service.RewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")
	if err := s.dashboard.RewriteArticle(c.Request.Context(), req); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Rewrite dispatched"})
}

func (s *Server) deleteArticles(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := s.dashboard.DeleteArticles(c.Request.Context(), req.IDs); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Deleted", "count": len(req.IDs)})
}

func (s *Server) assignTag(c *gin.Context) {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	s.dashboard.AssignTag(c.Request.Context(), c.Param("id"), req.Tag)
	c.JSON(200, gin.H{"message": "Tag assigned"})
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.dashboard.Stats(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"data": stats})
}

func (s *Server) notifications(c *gin.Context) {
	c.JSON(200, gin.H{"data": s.dashboard.Notifications()})
}

// refresh 手动刷新：同步重拉一次，再踢一脚轮询器对齐指纹
func (s *Server) refresh(c *gin.Context) {
	if err := s.dashboard.Refresh(c.Request.Context()); err != nil {
		writeErr(c, err)
		return
	}
	if s.watcher != nil {
		s.watcher.Poke()
	}
	c.JSON(200, gin.H{"message": "Refreshed"})
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.dashboard.Tags(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"data": tags})
}

func (s *Server) createTag(c *gin.Context) {
	var req struct {
		Tag   string `json:"tag"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if err := s.dashboard.CreateTag(c.Request.Context(), req.Tag, req.Color); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "Tag dispatched"})
}

func (s *Server) watchStats(c *gin.Context) {
	if s.watcher == nil {
		c.JSON(200, gin.H{"data": nil})
		return
	}
	c.JSON(200, gin.H{"data": s.watcher.Stats.View()})
}

package server

import "github.com/gin-gonic/gin"

func (s *Server) chatSend(c *gin.Context) {
	if s.chat == nil {
		c.JSON(404, gin.H{"error": "chat is not configured"})
		return
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	reply, err := s.chat.Send(c.Request.Context(), req.Message)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"data": reply})
}

func (s *Server) chatReset(c *gin.Context) {
	if s.chat == nil {
		c.JSON(404, gin.H{"error": "chat is not configured"})
		return
	}
	c.JSON(200, gin.H{"session_id": s.chat.Reset()})
}

func (s *Server) chatHistory(c *gin.Context) {
	if s.chat == nil {
		c.JSON(404, gin.H{"error": "chat is not configured"})
		return
	}
	msgs, err := s.chat.History(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(200, gin.H{"data": msgs, "session_id": s.chat.SessionID()})
}

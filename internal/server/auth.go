package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type sessionRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SetSession stores the identity provider's token pair in HTTP-only cookies
// so the session survives the redirect through a payment provider.
func (s *Server) SetSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" || strings.TrimSpace(req.RefreshToken) == "" {
		AbortWithError(c, newValidationError("access_token", "missing_tokens", "both tokens are required"))
		return
	}

	s.sessions.Set(c, req.AccessToken, req.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetSession(c *gin.Context) {
	accessToken, refreshToken, ok := s.sessions.Tokens(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, sessionRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

func (s *Server) ClearSession(c *gin.Context) {
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"modelhaus/api/internal/middleware"
	"modelhaus/api/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": service.ErrInvalidCredentials.Error()})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Account:   req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "login failed"})
		return
	}

	maxAge := int(h.cfg.Security.SessionTTL.Seconds())
	c.SetCookie(middleware.SessionCookieName, result.Token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": result.Username,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if sessionID, ok := middleware.SessionID(c); ok {
		if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
			h.log.Warn().Err(err).Msg("session delete failed")
		}
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CheckLogin reports the login state and never fails; callers use it to
// decide between the login and logout navigation without error handling.
func (h HandlerSet) CheckLogin(c *gin.Context) {
	username, ok := middleware.SessionUsername(c)
	c.JSON(http.StatusOK, gin.H{
		"isLoggedIn": ok,
		"username":   username,
	})
}

type profileResponse struct {
	Account string `json:"account"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Profile returns the caller's profile document. A missing or unreadable
// profile degrades to a stub carrying only the account name so the page
// header still renders.
func (h HandlerSet) Profile(c *gin.Context) {
	username, _ := middleware.SessionUsername(c)

	profile, err := h.profiles.FindByAccount(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"user":    profileResponse{Account: username},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": profileResponse{
			Account: profile.Account,
			Company: profile.Company,
			Email:   profile.Email,
		},
	})
}

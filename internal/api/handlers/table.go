package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuetable/backend/internal/auth"
	"github.com/cuetable/backend/internal/config"
	"github.com/cuetable/backend/internal/game"
)

// CreateTable racks a new table session and returns its token plus the
// signed session token used for WebSocket access.
func CreateTable(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := game.Manager.CreateSession()
		if err != nil {
			log.Printf("[API] Failed to create session: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create table"})
			return
		}

		ttl := time.Duration(cfg.SessionTokenTTLMin) * time.Minute
		signed, err := auth.IssueSessionToken(cfg.JWTSecret, session.Token, ttl)
		if err != nil {
			log.Printf("[API] Failed to sign session token for %s: %v", session.Token, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session token"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"token":         session.Token,
			"session_token": signed,
			"created_at":    session.CreatedAt,
		})
	}
}

// GetTable returns the session's current snapshot, falling back to the
// cached snapshot of an expired session.
func GetTable(c *gin.Context) {
	token := c.Param("token")

	snap, err := game.Manager.Snapshot(token)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"live": true, "state": snap})
		return
	}

	if cached, ok := game.Manager.CachedSnapshot(token); ok {
		c.JSON(http.StatusOK, gin.H{"live": false, "state": cached})
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
}

// GetTableShots returns the persisted shot and pocket history of a session.
func GetTableShots(c *gin.Context) {
	token := c.Param("token")

	shots, err := game.Manager.ListShots(token, 200)
	if err != nil {
		log.Printf("[API] Failed to list shots for %s: %v", token, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shot history"})
		return
	}
	pockets, err := game.Manager.ListPockets(token, 200)
	if err != nil {
		log.Printf("[API] Failed to list pockets for %s: %v", token, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shot history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shots": shots, "pockets": pockets})
}

// AdminResetTable restores a session to the rack layout. The caller must
// present the operator key matching the configured bcrypt hash.
func AdminResetTable(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminKeyHash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" || !auth.VerifyAdminKey(cfg.AdminKeyHash, key) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}

		token := c.Param("token")
		if err := game.Manager.ResetSession(token); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "reset"})
	}
}

// AdminDeleteTable tears a session down ahead of its idle expiry.
func AdminDeleteTable(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.AdminKeyHash == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" || !auth.VerifyAdminKey(cfg.AdminKeyHash, key) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid admin key"})
			return
		}

		token := c.Param("token")
		if err := game.Manager.RemoveSession(token); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

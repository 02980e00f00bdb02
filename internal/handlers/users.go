package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mmcrisostomo/lrt-density/backend/internal/comments"
	"github.com/mmcrisostomo/lrt-density/backend/internal/models"
)

type UserHandler struct {
	db  *gorm.DB
	svc *comments.Service
}

func NewUserHandler(db *gorm.DB, svc *comments.Service) *UserHandler {
	return &UserHandler{db: db, svc: svc}
}

// GetUserProfile returns a user's public profile card and their comments
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	authored, err := h.svc.ByAuthor(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"tag":          user.Tag,
			"rank":         user.Rank,
			"badge":        user.Badge,
			"notes":        user.Notes,
			"avatar_url":   user.AvatarURL,
			"member_since": user.CreatedAt,
		},
		"comments": comments.Project(authored, viewerFrom(c)),
	})
}

// UpdateUserProfile updates the caller's own profile. A username change is
// synced to the denormalized copy on their comments in the background.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	viewer := viewerFrom(c)
	if viewer.IsAnonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if viewer.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only update your own profile"})
		return
	}

	var input struct {
		Username  string `json:"username"`
		Tag       string `json:"tag"`
		Badge     string `json:"badge"`
		Notes     string `json:"notes"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	renamed := false
	if newUsername := strings.ToLower(strings.TrimSpace(input.Username)); newUsername != "" && newUsername != user.Username {
		var existing models.User
		if err := h.db.Where("username = ?", newUsername).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "That username is already taken. Please choose another."})
			return
		}
		user.Username = newUsername
		renamed = true
	}

	if input.Tag != "" {
		user.Tag = input.Tag
	}
	if input.Badge != "" {
		user.Badge = input.Badge
	}
	if input.Notes != "" {
		user.Notes = input.Notes
	}
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	response := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"tag":        user.Tag,
		"badge":      user.Badge,
		"notes":      user.Notes,
		"avatar_url": user.AvatarURL,
	}

	if renamed {
		// Fire-and-forget: the rename response never waits on the fan-out
		h.svc.SyncAuthorRename(user.ID, user.Username)

		// The old token carries the stale username, so hand back a fresh one
		if token, err := signToken(user); err == nil {
			response["token"] = token
		}
	}

	c.JSON(http.StatusOK, response)
}

// DeleteAccount removes the caller's own account. Their comments keep the
// snapshotted username.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	viewer := viewerFrom(c)
	if viewer.IsAnonymous() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if viewer.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own account"})
		return
	}

	if err := h.db.Delete(&models.User{}, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Account deleted."})
}

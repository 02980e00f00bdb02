package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mmcrisostomo/lrt-density/backend/internal/comments"
	"github.com/mmcrisostomo/lrt-density/backend/internal/crowd"
	"github.com/mmcrisostomo/lrt-density/backend/internal/notify"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Station *StationHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, live *crowd.LiveStore, alerts *notify.AlertNotifier) *Handler {
	commentService := comments.NewService(db)

	return &Handler{
		Auth:    NewAuthHandler(db),
		Station: NewStationHandler(db, commentService, live, alerts),
		Comment: NewCommentHandler(commentService),
		User:    NewUserHandler(db, commentService),
	}
}

// viewerFrom rebuilds the explicit viewer identity the core operates on
// from whatever the auth middleware stored. Missing identity yields the
// anonymous viewer.
func viewerFrom(c *gin.Context) comments.Viewer {
	raw, exists := c.Get("user_id")
	if !exists {
		return comments.Viewer{}
	}

	var userID int
	switch v := raw.(type) {
	case int:
		userID = v
	case uint:
		userID = int(v)
	case float64:
		userID = int(v)
	default:
		return comments.Viewer{}
	}

	return comments.Viewer{
		ID:       userID,
		Username: c.GetString("username"),
		Role:     c.GetString("role"),
	}
}

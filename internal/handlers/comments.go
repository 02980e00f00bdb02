package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmcrisostomo/lrt-density/backend/internal/comments"
)

type CommentHandler struct {
	svc *comments.Service
}

func NewCommentHandler(svc *comments.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// respondCommentError maps the core's failure taxonomy onto HTTP statuses.
// Anything unexpected is a storage failure: logged, generic 500.
func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, comments.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Please log in."})
	case errors.Is(err, comments.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid vote type."})
	case errors.Is(err, comments.ErrEmptyText):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment cannot be empty."})
	case errors.Is(err, comments.ErrTextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment is too long."})
	case errors.Is(err, comments.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "You are not authorized to do that."})
	case errors.Is(err, comments.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Comment not found."})
	default:
		log.Printf("Comment operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found."})
		return 0, false
	}
	return id, true
}

// CreateComment posts a new comment on a station page
func (h *CommentHandler) CreateComment(c *gin.Context) {
	stationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment text is required."})
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), viewerFrom(c), stationID, input.Text)
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Station not found."})
			return
		}
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// VoteComment applies one vote click and returns the fresh counters plus
// the viewer's resulting vote state.
func (h *CommentHandler) VoteComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}

	var input struct {
		VoteType string `json:"vote_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid vote type."})
		return
	}

	result, err := h.svc.Vote(c.Request.Context(), viewerFrom(c), commentID, input.VoteType)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"upvotes":      result.Upvotes,
		"downvotes":    result.Downvotes,
		"newVoteState": result.NewVoteState,
	})
}

// EditComment replaces a comment's text (author only)
func (h *CommentHandler) EditComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment cannot be empty."})
		return
	}

	comment, err := h.svc.Edit(c.Request.Context(), viewerFrom(c), commentID, input.Text)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "newText": comment.Text})
}

// DeleteComment permanently removes a comment (author or admin)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), viewerFrom(c), commentID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted."})
}

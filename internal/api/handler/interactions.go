package handler

import (
	"net/http"
	"strconv"

	"matcha/backend/internal/api/middleware"
	apperr "matcha/backend/internal/errors"
	"matcha/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Like records actor -> target like and reports whether it produced a match.
// POST /likes/:id
func (h *Handler) Like(c *gin.Context) {
	h.recordInteraction(c, models.InteractionLike)
}

// Dislike records actor -> target dislike. Never matches, never unmatches.
// POST /dislikes/:id
func (h *Handler) Dislike(c *gin.Context) {
	h.recordInteraction(c, models.InteractionDislike)
}

func (h *Handler) recordInteraction(c *gin.Context, kind models.InteractionKind) {
	targetID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	res, err := h.Interactions.Record(c.Request.Context(), middleware.UserID(c), targetID, kind)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Unmatch removes the match with the given user, deleting the conversation
// and both interaction rows.
// DELETE /matches/:id
func (h *Handler) Unmatch(c *gin.Context) {
	targetID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	if err := h.Interactions.Unmatch(c.Request.Context(), middleware.UserID(c), targetID); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unmatched": true})
}

// Likers lists who liked the caller, newest first.
// GET /likes
func (h *Handler) Likers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	likers, err := h.Interactions.Likers(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likers": likers})
}

// CountLikers returns the caller's liker count, cache first.
// GET /likes/count
func (h *Handler) CountLikers(c *gin.Context) {
	count, err := h.Interactions.CountLikers(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

type reportRequest struct {
	TargetID uint64 `json:"target_id" binding:"required"`
	Reason   string `json:"reason"`
}

// Report files a report against another profile.
// POST /reports
func (h *Handler) Report(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.Interactions.Report(c.Request.Context(), middleware.UserID(c), req.TargetID, req.Reason)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UndoReport withdraws a report the caller filed.
// DELETE /reports/:id
func (h *Handler) UndoReport(c *gin.Context) {
	reportID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	if err := h.Interactions.UndoReport(c.Request.Context(), reportID, middleware.UserID(c)); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

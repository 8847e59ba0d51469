package handler

import (
	"net/http"
	"strconv"

	"matcha/backend/internal/api/middleware"
	apperr "matcha/backend/internal/errors"

	"github.com/gin-gonic/gin"
)

type postMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// PostMessage persists a message and fans it out to the conversation room.
// POST /conversations/:id/messages
func (h *Handler) PostMessage(c *gin.Context) {
	conversationID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.Chat.Post(c.Request.Context(), conversationID, middleware.UserID(c), req.Body)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Messages returns the conversation history in send order.
// GET /conversations/:id/messages
func (h *Handler) Messages(c *gin.Context) {
	conversationID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	msgs, err := h.Chat.History(c.Request.Context(), conversationID, middleware.UserID(c), limit)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

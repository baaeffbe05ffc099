// Package api provides HTTP handlers for the livechat server REST API.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/coregx/livechat"
	"github.com/gin-gonic/gin"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	services *livechat.Services
	logger   livechat.Logger
	clock    livechat.Clock
}

// NewHandler creates a new API handler.
func NewHandler(services *livechat.Services, logger livechat.Logger) *Handler {
	if logger == nil {
		logger = &livechat.NoopLogger{}
	}
	return &Handler{
		services: services,
		logger:   logger,
		clock:    time.Now,
	}
}

// HandleHealth handles GET /api/health
func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "livechat",
		"timestamp": h.clock().UTC(),
	})
}

// HandleCreateRoom handles POST /api/products/:productId/chat-rooms
func (h *Handler) HandleCreateRoom(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.respondError(c, livechat.NewError(livechat.ErrCodeValidation, "productId must be a positive integer"))
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, livechat.NewErrorWithCause(livechat.ErrCodeValidation, "request body is invalid", err))
		return
	}

	created, err := h.services.Rooms.CreateRoom(c.Request.Context(), livechat.CreateRoomRequest{
		ProductID: productID,
		BuyerID:   userID(c),
		Content:   req.Content,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newCreateRoomResponse(created))
}

// HandleUpdateStatus handles PATCH /api/chat/rooms/:roomId/status
func (h *Handler) HandleUpdateStatus(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		h.respondError(c, livechat.NewError(livechat.ErrCodeChatRoomInvalidInput, "roomId must be a positive integer"))
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, livechat.NewErrorWithCause(livechat.ErrCodeValidation, "request body is invalid", err))
		return
	}

	if _, err := h.services.Rooms.UpdateStatus(c.Request.Context(), roomID, req.Status, userID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HandleListMessages handles GET /api/chat-rooms/:chatRoomId/messages?cursor=&size=
func (h *Handler) HandleListMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("chatRoomId"), 10, 64)
	if err != nil {
		h.respondError(c, livechat.NewError(livechat.ErrCodeChatRoomInvalidInput, "chatRoomId must be an integer"))
		return
	}

	req := livechat.ListMessagesRequest{RoomID: roomID, RequesterID: userID(c)}

	if raw, ok := c.GetQuery("cursor"); ok && raw != "" {
		cursor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(c, livechat.NewError(livechat.ErrCodeBadPagination, "cursor must be an integer"))
			return
		}
		req.Cursor = &cursor
	}
	if raw, ok := c.GetQuery("size"); ok && raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, livechat.NewError(livechat.ErrCodeBadPagination, "size must be an integer"))
			return
		}
		req.Size = &size
	}

	page, err := h.services.History.ListMessages(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newHistoryResponse(page))
}

// respondError writes the HTTP projection of err and aborts the chain.
func (h *Handler) respondError(c *gin.Context, err error) {
	mapped := livechat.ToHTTP(err)
	if mapped.Status >= http.StatusInternalServerError {
		h.logger.Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debugf("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}

	c.AbortWithStatusJSON(mapped.Status, ErrorResponse{
		Status:    mapped.Status,
		Code:      mapped.Code,
		Message:   mapped.Message,
		Timestamp: h.clock().UTC(),
	})
}

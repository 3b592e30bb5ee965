package handlers

import (
	"net/http"
	"strconv"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err, "create event")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 100"})
		return
	}

	response, err := h.services.Events.List(c.Request.Context(), query, page, pageSize)
	if err != nil {
		respondError(c, err, "list events")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get event")
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ListMyEvents - GET /api/events/mine
func (h *Handlers) ListMyEvents(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	events, err := h.services.Events.ListByOrganizer(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, "list events")
		return
	}

	c.JSON(http.StatusOK, events)
}

// CancelEvent - PATCH /api/events/cancel
func (h *Handlers) CancelEvent(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Events.Cancel(c.Request.Context(), caller, req.EventID); err != nil {
		respondError(c, err, "cancel event")
		return
	}

	c.Status(http.StatusOK)
}

// GetEventBalance - GET /api/events/:id/balance
func (h *Handlers) GetEventBalance(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	response, err := h.services.Events.Balance(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err, "get event balance")
		return
	}

	c.JSON(http.StatusOK, response)
}

// WithdrawRevenue - POST /api/events/withdraw
func (h *Handlers) WithdrawRevenue(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.WithdrawRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Events.Withdraw(c.Request.Context(), caller, req.EventID)
	if err != nil {
		respondError(c, err, "withdraw revenue")
		return
	}

	c.JSON(http.StatusOK, response)
}

package handlers

import (
	"net/http"
	"strconv"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
)

// AddValidator - POST /api/validators
func (h *Handlers) AddValidator(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.ValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Validators.Add(c.Request.Context(), caller, &req); err != nil {
		respondError(c, err, "add validator")
		return
	}

	c.Status(http.StatusCreated)
}

// RemoveValidator - DELETE /api/validators
func (h *Handlers) RemoveValidator(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.ValidatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Validators.Remove(c.Request.Context(), caller, &req); err != nil {
		respondError(c, err, "remove validator")
		return
	}

	c.Status(http.StatusOK)
}

// GetValidator - GET /api/events/:id/validators/:account
func (h *Handlers) GetValidator(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}
	account, err := strconv.ParseInt(c.Param("account"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	validator, err := h.services.Validators.Get(c.Request.Context(), eventID, account)
	if err != nil {
		respondError(c, err, "get validator")
		return
	}
	if validator == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "validator not found"})
		return
	}

	c.JSON(http.StatusOK, validator)
}

package handlers

import (
	"net/http"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
)

// SetPaused - PATCH /api/admin/pause
// The storage engine rejects callers that are not the configured admin.
func (h *Handlers) SetPaused(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Admin.SetPaused(c.Request.Context(), caller, req.Paused); err != nil {
		respondError(c, err, "set pause flag")
		return
	}

	c.Status(http.StatusOK)
}

// SetAdmin - PATCH /api/admin/rotate
func (h *Handlers) SetAdmin(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.SetAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Admin.SetAdmin(c.Request.Context(), caller, req.AccountID); err != nil {
		respondError(c, err, "rotate admin")
		return
	}

	c.Status(http.StatusOK)
}

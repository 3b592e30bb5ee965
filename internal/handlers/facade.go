package handlers

import (
	"net/http"
	"strconv"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
)

// Token-style asset surface over tickets.

// LastTokenID - GET /api/tokens/last
func (h *Handlers) LastTokenID(c *gin.Context) {
	response, err := h.services.Facade.LastTokenID(c.Request.Context())
	if err != nil {
		respondError(c, err, "get last token id")
		return
	}

	c.JSON(http.StatusOK, response)
}

// TokenURI - GET /api/tokens/:id/uri
func (h *Handlers) TokenURI(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}

	response, err := h.services.Facade.TokenURI(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get token URI")
		return
	}

	c.JSON(http.StatusOK, response)
}

// TokenOwner - GET /api/tokens/:id/owner
func (h *Handlers) TokenOwner(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}

	response, err := h.services.Facade.OwnerOf(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get token owner")
		return
	}

	c.JSON(http.StatusOK, response)
}

// TransferToken - PATCH /api/tokens/transfer
func (h *Handlers) TransferToken(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.TransferTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Facade.Transfer(c.Request.Context(), caller, &req); err != nil {
		respondError(c, err, "transfer token")
		return
	}

	c.Status(http.StatusOK)
}

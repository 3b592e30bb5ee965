package handlers

import (
	"net/http"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
)

// Signup - POST /api/accounts
// The only unauthenticated write endpoint.
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Accounts.Signup(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "sign up")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetBalance - GET /api/accounts/balance
func (h *Handlers) GetBalance(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	response, err := h.services.Accounts.Balance(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, "get balance")
		return
	}

	c.JSON(http.StatusOK, response)
}

// TopUp - POST /api/accounts/topup
func (h *Handlers) TopUp(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Accounts.TopUp(c.Request.Context(), caller, req.Amount)
	if err != nil {
		respondError(c, err, "top up")
		return
	}

	c.JSON(http.StatusOK, response)
}

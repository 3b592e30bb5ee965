package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"gatepass/internal/models"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// PurchaseTicket - POST /api/tickets
func (h *Handlers) PurchaseTicket(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.PurchaseTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Tickets.Purchase(c.Request.Context(), caller, req.EventID)
	if err != nil {
		respondError(c, err, "purchase ticket")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListTickets - GET /api/tickets
func (h *Handlers) ListTickets(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	response, err := h.services.Tickets.ListByOwner(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err, "list tickets")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetTicket - GET /api/tickets/:id
func (h *Handlers) GetTicket(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	ticket, err := h.services.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get ticket")
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// TicketQR - GET /api/tickets/:id/qr
// Renders the ticket id as a PNG QR code for presentation at the door.
// Only the ticket's owner may fetch it.
func (h *Handlers) TicketQR(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	ticket, err := h.services.Tickets.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get ticket")
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	if ticket.Owner != caller {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the ticket owner"})
		return
	}

	payload := fmt.Sprintf("gatepass:ticket:%d:event:%d", ticket.ID, ticket.EventID)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		respondError(c, err, "render QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// ValidateTicket - PATCH /api/tickets/validate
func (h *Handlers) ValidateTicket(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Tickets.Validate(c.Request.Context(), caller, req.TicketID); err != nil {
		respondError(c, err, "validate ticket")
		return
	}

	c.Status(http.StatusOK)
}

// BatchValidateTickets - PATCH /api/tickets/validate/batch
func (h *Handlers) BatchValidateTickets(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.BatchValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Tickets.BatchValidate(c.Request.Context(), caller, &req)
	if err != nil {
		respondError(c, err, "validate tickets")
		return
	}

	c.JSON(http.StatusOK, response)
}

// TransferTicket - PATCH /api/tickets/transfer
func (h *Handlers) TransferTicket(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.TransferTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Tickets.Transfer(c.Request.Context(), caller, &req); err != nil {
		respondError(c, err, "transfer ticket")
		return
	}

	c.Status(http.StatusOK)
}

// RefundTicket - PATCH /api/tickets/refund
func (h *Handlers) RefundTicket(c *gin.Context) {
	caller, ok := mustCallerID(c)
	if !ok {
		return
	}

	var req models.RefundTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Tickets.Refund(c.Request.Context(), caller, req.TicketID); err != nil {
		respondError(c, err, "refund ticket")
		return
	}

	c.Status(http.StatusOK)
}

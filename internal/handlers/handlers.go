package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"gatepass/internal/cache"
	apperrors "gatepass/internal/errors"
	"gatepass/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
	}
}

// callerID pulls the authenticated account id set by the auth middleware.
func callerID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("account_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func mustCallerID(c *gin.Context) (int64, bool) {
	id, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// respondError maps ledger errors onto HTTP statuses. Unknown errors become
// opaque 500s; the detail only goes to the log.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrEventNotFound),
		errors.Is(err, apperrors.ErrTicketNotFound),
		errors.Is(err, apperrors.ErrValidatorNotFound),
		errors.Is(err, apperrors.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrNotAuthorized),
		errors.Is(err, apperrors.ErrNotOwner),
		errors.Is(err, apperrors.ErrNotValidator):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrInvalidSupply),
		errors.Is(err, apperrors.ErrInvalidTimeRange),
		errors.Is(err, apperrors.ErrEventInPast),
		errors.Is(err, apperrors.ErrInvalidPrice),
		errors.Is(err, apperrors.ErrInvalidRecipient):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrEventInactive),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrAlreadyUsed),
		errors.Is(err, apperrors.ErrTransferNotAllowed),
		errors.Is(err, apperrors.ErrRefundNotAllowed),
		errors.Is(err, apperrors.ErrWithdrawNotAllowed),
		errors.Is(err, apperrors.ErrEventNotStarted),
		errors.Is(err, apperrors.ErrEventEnded),
		errors.Is(err, apperrors.ErrEventStarted),
		errors.Is(err, apperrors.ErrExceedsSupply):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, apperrors.ErrPaused):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	default:
		slog.Error("Failed to "+action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

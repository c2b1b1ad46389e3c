package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	reconciledomain "github.com/youthbridge/youthbridge/internal/reconcile/domain"
	"go.uber.org/zap"
)

// Payload cap for webhook bodies. Provider events are small; anything past
// this is not a webhook we sent for.
const maxWebhookBody = 1 << 20

// HandleProviderWebhook ingests one provider delivery. Replays and events
// for records we cannot resolve yet are acknowledged with 200 so the
// provider stops (or keeps, for unresolved) retrying per its own schedule;
// signature failures and malformed payloads are rejected so the provider
// retries after the misconfiguration is fixed.
func (s *Server) HandleProviderWebhook(c *gin.Context) {
	provider := strings.ToLower(strings.TrimSpace(c.Param("provider")))

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.webhooks.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, reconciledomain.ErrEventAlreadyProcessed):
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case errors.Is(err, reconciledomain.ErrUnresolvedReference):
		// Acknowledged without marking processed; the provider's redelivery
		// will land once the record exists.
		s.log.Warn("webhook referenced unknown record",
			zap.String("provider", provider))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	default:
		AbortWithError(c, err)
	}
}

type verifyOrderRequest struct {
	OrderID         string `json:"order_id"`
	PayableRecordID string `json:"payable_record_id"`
}

// VerifyPayPalOrder handles the client's post-approval callback. The claimed
// capture is never trusted: the order is re-read from PayPal server-side
// before anything is applied.
func (s *Server) VerifyPayPalOrder(c *gin.Context) {
	var req verifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		AbortWithError(c, newValidationError("order_id", "invalid_order_id", "order_id is required"))
		return
	}

	recordID, err := snowflake.ParseString(strings.TrimSpace(req.PayableRecordID))
	if err != nil {
		AbortWithError(c, newValidationError("payable_record_id", "invalid_payable_record_id", "payable_record_id must be a numeric id"))
		return
	}

	if err := s.webhooks.VerifyCapturedOrder(c.Request.Context(), orderID, recordID); err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.payables.GetByID(c.Request.Context(), recordID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"record": record,
	})
}

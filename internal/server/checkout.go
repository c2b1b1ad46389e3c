package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/youthbridge/youthbridge/internal/checkout/domain"
)

type checkoutSessionRequest struct {
	PayableRecordID string `json:"payable_record_id"`
	Provider        string `json:"provider"`
}

// CreateCheckoutSession initiates payment with the chosen provider and
// returns whatever the client needs to continue: a Stripe redirect URL or a
// PayPal order id.
func (s *Server) CreateCheckoutSession(c *gin.Context) {
	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	recordID, err := snowflake.ParseString(strings.TrimSpace(req.PayableRecordID))
	if err != nil {
		AbortWithError(c, newValidationError("payable_record_id", "invalid_payable_record_id", "payable_record_id must be a numeric id"))
		return
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = checkoutdomain.ProviderStripe
	}

	if allowed, _ := s.checkouts.Allow(c.Request.Context(), c.ClientIP()); !allowed {
		AbortWithError(c, ErrRateLimited)
		return
	}

	session, err := s.checkout.Initiate(c.Request.Context(), checkoutdomain.InitiateRequest{
		PayableRecordID: recordID,
		Provider:        provider,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	payabledomain "github.com/youthbridge/youthbridge/internal/payable/domain"
)

type createPayableRequest struct {
	Kind        string `json:"kind"`
	OwnerID     string `json:"owner_id"`
	EventID     string `json:"event_id"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

func (s *Server) CreatePayable(c *gin.Context) {
	var req createPayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	eventID, err := parseOptionalID(req.EventID)
	if err != nil {
		AbortWithError(c, newValidationError("event_id", "invalid_event_id", "event_id must be a numeric id"))
		return
	}

	record, err := s.payables.Create(c.Request.Context(), payabledomain.CreateRequest{
		Kind:           payabledomain.Kind(strings.TrimSpace(req.Kind)),
		OwnerID:        strings.TrimSpace(req.OwnerID),
		RelatedEventID: eventID,
		Category:       strings.TrimSpace(req.Category),
		AmountCents:    req.AmountCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) GetPayable(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, payabledomain.ErrNotFound)
		return
	}

	record, err := s.payables.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// ResumePayable finds the caller's open record for a (kind, event) tuple so
// the client can pick an interrupted payment back up.
func (s *Server) ResumePayable(c *gin.Context) {
	ownerID := strings.TrimSpace(c.Query("owner_id"))
	if ownerID == "" {
		AbortWithError(c, newValidationError("owner_id", "invalid_owner", "owner_id is required"))
		return
	}

	kind := payabledomain.Kind(strings.TrimSpace(c.Query("kind")))
	if !kind.Valid() {
		AbortWithError(c, payabledomain.ErrInvalidKind)
		return
	}

	eventID, err := parseOptionalID(c.Query("event_id"))
	if err != nil {
		AbortWithError(c, newValidationError("event_id", "invalid_event_id", "event_id must be a numeric id"))
		return
	}

	result, err := s.payables.FindResumable(c.Request.Context(), ownerID, kind, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if result == nil || result.Record == nil {
		c.JSON(http.StatusOK, gin.H{"record": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record": result.Record,
		"closed": result.Closed,
	})
}

func (s *Server) ApproveVisa(c *gin.Context) {
	s.decideVisa(c, s.payables.ApproveVisa)
}

func (s *Server) RejectVisa(c *gin.Context) {
	s.decideVisa(c, s.payables.RejectVisa)
}

func (s *Server) decideVisa(c *gin.Context, decide func(context.Context, snowflake.ID) (*payabledomain.PayableRecord, error)) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, payabledomain.ErrNotFound)
		return
	}

	record, err := decide(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func parseOptionalID(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return snowflake.ParseString(raw)
}

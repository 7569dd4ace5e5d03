package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setSequenceRequest struct {
	Start int64 `json:"start"`
}

type resetSequenceRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) GetInvoiceSequence(c *gin.Context) {
	state, err := s.sequenceSvc.Current(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": state})
}

func (s *Server) SetInvoiceSequence(c *gin.Context) {
	var req setSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	state, err := s.sequenceSvc.SetStart(c.Request.Context(), req.Start)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice_sequence.set", "invoice_sequence", "", map[string]any{"start": req.Start})

	resp := gin.H{"data": state}
	if state.ReservationsCount > 0 {
		resp["warning"] = "reservations already exist; numbers already in use are skipped"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ResetInvoiceSequence(c *gin.Context) {
	var req resetSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	state, err := s.sequenceSvc.Reset(c.Request.Context(), req.Confirm)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "invoice_sequence.reset", "invoice_sequence", "", nil)
	c.JSON(http.StatusOK, gin.H{"data": state})
}

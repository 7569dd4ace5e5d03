package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ownerdomain "github.com/smallbiznis/villadesk/internal/owner/domain"
)

type setTotalOwedRequest struct {
	TotalOwed decimal.Decimal `json:"total_owed"`
}

func (s *Server) CreateOwner(c *gin.Context) {
	var req ownerdomain.OwnerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ownerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "owner.create", "owner", resp.ID.String(), map[string]any{"name": resp.Name})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOwners(c *gin.Context) {
	resp, err := s.ownerSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOwner(c *gin.Context) {
	resp, err := s.ownerSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOwner(c *gin.Context) {
	var req ownerdomain.OwnerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ownerSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "owner.update", "owner", resp.ID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOwner(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.ownerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "owner.delete", "owner", id, nil)
	c.Status(http.StatusNoContent)
}

func (s *Server) RecordOwnerPayment(c *gin.Context) {
	var req ownerdomain.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	owner, payment, err := s.ownerSvc.RecordPayment(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "owner.payment", "owner", owner.ID.String(), map[string]any{
		"payment_id": payment.ID.String(),
		"amount":     payment.Amount.String(),
		"currency":   payment.Currency,
	})
	c.JSON(http.StatusCreated, gin.H{"data": payment, "owner": owner})
}

func (s *Server) ListOwnerPayments(c *gin.Context) {
	resp, err := s.ownerSvc.ListPayments(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetOwnerTotalOwed(c *gin.Context) {
	var req setTotalOwedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ownerSvc.SetTotalOwed(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.TotalOwed)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "owner.set_total_owed", "owner", resp.ID.String(), map[string]any{
		"total_owed": req.TotalOwed.String(),
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

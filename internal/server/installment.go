package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	installmentdomain "github.com/smallbiznis/villadesk/internal/installment/domain"
)

func (s *Server) AddReservationInstallment(c *gin.Context) {
	var req installmentdomain.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inst, res, err := s.installmentSvc.AddToReservation(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inst, "reservation": res})
}

func (s *Server) ListReservationInstallments(c *gin.Context) {
	resp, err := s.installmentSvc.ListForReservation(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveReservationInstallment(c *gin.Context) {
	res, err := s.installmentSvc.RemoveFromReservation(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("installment_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservation": res})
}

func (s *Server) DownloadReservationReceipt(c *gin.Context) {
	doc, err := s.receiptSvc.ReservationInstallmentReceipt(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("installment_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writePDF(c, doc)
}

func (s *Server) AddExpenseInstallment(c *gin.Context) {
	var req installmentdomain.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inst, exp, err := s.installmentSvc.AddToExpense(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": inst, "expense": exp})
}

func (s *Server) ListExpenseInstallments(c *gin.Context) {
	resp, err := s.installmentSvc.ListForExpense(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveExpenseInstallment(c *gin.Context) {
	exp, err := s.installmentSvc.RemoveFromExpense(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("installment_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": exp})
}

func (s *Server) DownloadExpenseReceipt(c *gin.Context) {
	doc, err := s.receiptSvc.ExpenseInstallmentReceipt(c.Request.Context(),
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("installment_id")),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writePDF(c, doc)
}

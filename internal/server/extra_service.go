package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	extraservicedomain "github.com/smallbiznis/villadesk/internal/extraservice/domain"
)

func (s *Server) CreateExtraService(c *gin.Context) {
	var req extraservicedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.extraSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "extra_service.create", "extra_service", resp.ID.String(), map[string]any{"name": resp.Name})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListExtraServices(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active_only"))
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "active_only must be a boolean"))
		return
	}

	resp, err := s.extraSvc.List(c.Request.Context(), activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateExtraService(c *gin.Context) {
	var req extraservicedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.extraSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "extra_service.update", "extra_service", resp.ID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteExtraService(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.extraSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "extra_service.delete", "extra_service", id, nil)
	c.Status(http.StatusNoContent)
}

package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	villadomain "github.com/smallbiznis/villadesk/internal/villa/domain"
)

func (s *Server) CreateVilla(c *gin.Context) {
	var req villadomain.VillaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.villaSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "villa.create", "villa", resp.ID.String(), map[string]any{"code": resp.Code})
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListVillas(c *gin.Context) {
	var query struct {
		Search     string `form:"search"`
		CategoryID string `form:"category_id"`
		ActiveOnly string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "active_only must be a boolean"))
		return
	}

	resp, err := s.villaSvc.List(c.Request.Context(), villadomain.ListRequest{
		Search:     strings.TrimSpace(query.Search),
		CategoryID: strings.TrimSpace(query.CategoryID),
		ActiveOnly: activeOnly != nil && *activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVilla(c *gin.Context) {
	resp, err := s.villaSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateVilla(c *gin.Context) {
	var req villadomain.VillaInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.villaSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "villa.update", "villa", resp.ID.String(), map[string]any{"code": resp.Code})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteVilla(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.villaSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "villa.delete", "villa", id, nil)
	c.Status(http.StatusNoContent)
}

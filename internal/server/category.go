package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	categorydomain "github.com/smallbiznis/villadesk/internal/category/domain"
)

func (s *Server) CreateCategory(kind categorydomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categorydomain.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		resp, err := s.categorySvc.Create(c.Request.Context(), kind, req)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"data": resp})
	}
}

func (s *Server) ListCategories(kind categorydomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		includeInactive, err := parseOptionalBool(c.Query("include_inactive"))
		if err != nil {
			AbortWithError(c, newValidationError("include_inactive", "invalid_include_inactive", "include_inactive must be a boolean"))
			return
		}

		resp, err := s.categorySvc.List(c.Request.Context(), kind, includeInactive != nil && *includeInactive)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func (s *Server) GetCategory(kind categorydomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := s.categorySvc.Get(c.Request.Context(), kind, strings.TrimSpace(c.Param("id")))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func (s *Server) UpdateCategory(kind categorydomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categorydomain.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}

		resp, err := s.categorySvc.Update(c.Request.Context(), kind, strings.TrimSpace(c.Param("id")), req)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": resp})
	}
}

func (s *Server) DeleteCategory(kind categorydomain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.categorySvc.Delete(c.Request.Context(), kind, strings.TrimSpace(c.Param("id"))); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

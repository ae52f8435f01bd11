package handler

import (
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type GenreHandler struct {
	svc service.GenreService
}

func NewGenreHandler(svc service.GenreService) *GenreHandler {
	return &GenreHandler{svc: svc}
}

func (h *GenreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RequireWriteOrAdmin())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /api/v1/genres?search=<name>
func (h *GenreHandler) List(c *gin.Context) {
	list, err := h.svc.GetAll(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := make([]dto.GenreResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, dto.GenreFromModel(g))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GenreHandler) Create(c *gin.Context) {
	var in dto.CreateGenreDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	model := models.Genre{Name: in.Name, Slug: in.Slug}
	if err := h.svc.Create(c.Request.Context(), &model); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.GenreFromModel(model))
}

func (h *GenreHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBySlug(c.Request.Context(), c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

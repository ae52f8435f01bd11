package handler

import (
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc service.CategoryService
}

func NewCategoryHandler(svc service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.Use(middleware.RequireWriteOrAdmin())
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.DELETE("/:slug", h.Delete)
}

// List handles GET /api/v1/categories?search=<name>
func (h *CategoryHandler) List(c *gin.Context) {
	list, err := h.svc.GetAll(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	resp := make([]dto.CategoryResponse, 0, len(list))
	for _, cat := range list {
		resp = append(resp, dto.CategoryFromModel(cat))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var in dto.CreateCategoryDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	model := models.Category{Name: in.Name, Slug: in.Slug}
	if err := h.svc.Create(c.Request.Context(), &model); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CategoryFromModel(model))
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteBySlug(c.Request.Context(), c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

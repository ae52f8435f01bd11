package handler

import (
	"net/http"
	"strconv"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/repository"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	svc service.TitleService
}

func NewTitleHandler(svc service.TitleService) *TitleHandler {
	return &TitleHandler{svc: svc}
}

// RegisterRoutes guards each mutation individually: review and comment
// routes share this group and carry their own, looser rules.
func (h *TitleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:title_id", h.Get)

	rg.POST("", middleware.RequireWriteOrAdmin(), h.Create)
	rg.PATCH("/:title_id", middleware.RequireWriteOrAdmin(), h.Update)
	rg.DELETE("/:title_id", middleware.RequireWriteOrAdmin(), h.Delete)
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// List handles GET /api/v1/titles with category/genre/year/name filters.
func (h *TitleHandler) List(c *gin.Context) {
	filter := repository.TitleFilter{
		CategorySlug: c.Query("category"),
		GenreSlug:    c.Query("genre"),
		Name:         c.Query("name"),
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		filter.Year = year
	}
	page, pageSize := parsePagination(c)

	titles, total, err := h.svc.List(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		resp = append(resp, dto.TitleFromModel(t))
	}
	c.JSON(http.StatusOK, dto.NewPaginatedTitleResponse(resp, int(total), page, pageSize))
}

func (h *TitleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	title, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TitleFromModel(*title))
}

func (h *TitleHandler) Create(c *gin.Context) {
	var in dto.TitleInputDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, err := h.svc.Create(c.Request.Context(), service.TitleInput{
		Name:         in.Name,
		Year:         in.Year,
		Description:  in.Description,
		CategorySlug: in.Category,
		GenreSlugs:   in.Genre,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.TitleFromModel(*title))
}

func (h *TitleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	var in dto.TitleInputDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, err := h.svc.Update(c.Request.Context(), id, service.TitleInput{
		Name:         in.Name,
		Year:         in.Year,
		Description:  in.Description,
		CategorySlug: in.Category,
		GenreSlugs:   in.Genre,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.TitleFromModel(*title))
}

func (h *TitleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

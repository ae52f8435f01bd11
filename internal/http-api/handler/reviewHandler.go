package handler

import (
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// RegisterRoutes nests reviews under a title. Reads stay open to
// anonymous callers; mutations require authentication, the object-level
// owner/moderator/admin rules live in the service.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reviews := rg.Group("/:title_id/reviews")
	{
		reviews.GET("", h.List)
		reviews.GET("/:review_id", h.Get)

		reviews.POST("", middleware.RequireAuthenticated(), h.Create)
		reviews.PATCH("/:review_id", middleware.RequireAuthenticated(), h.Update)
		reviews.DELETE("/:review_id", middleware.RequireAuthenticated(), h.Delete)
	}
}

// List handles GET /api/v1/titles/:title_id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	reviews, total, err := h.svc.List(c.Request.Context(), titleID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, dto.ReviewFromModel(&reviews[i]))
	}
	c.JSON(http.StatusOK, dto.NewPaginatedReviewResponse(resp, int(total), page, pageSize))
}

func (h *ReviewHandler) Get(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}

	review, err := h.svc.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewFromModel(review))
}

func (h *ReviewHandler) Create(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	var in dto.CreateReviewDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipal(c), titleID, in.Text, in.Score)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ReviewFromModel(review))
}

func (h *ReviewHandler) Update(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	var in dto.UpdateReviewDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, service.ReviewUpdate{
		Text:  in.Text,
		Score: in.Score,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewFromModel(review))
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

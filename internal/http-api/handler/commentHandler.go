package handler

import (
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/middleware"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	svc service.CommentService
}

func NewCommentHandler(svc service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// RegisterRoutes nests comments under a title's review.
func (h *CommentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	comments := rg.Group("/:title_id/reviews/:review_id/comments")
	{
		comments.GET("", h.List)
		comments.GET("/:comment_id", h.Get)

		comments.POST("", middleware.RequireAuthenticated(), h.Create)
		comments.PATCH("/:comment_id", middleware.RequireAuthenticated(), h.Update)
		comments.DELETE("/:comment_id", middleware.RequireAuthenticated(), h.Delete)
	}
}

func (h *CommentHandler) List(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	page, pageSize := parsePagination(c)

	comments, total, err := h.svc.List(c.Request.Context(), titleID, reviewID, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, dto.CommentFromModel(&comments[i]))
	}
	c.JSON(http.StatusOK, dto.NewPaginatedCommentResponse(resp, int(total), page, pageSize))
}

func (h *CommentHandler) Get(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.svc.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommentFromModel(comment))
}

func (h *CommentHandler) Create(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	var in dto.CommentInputDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, in.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CommentFromModel(comment))
}

func (h *CommentHandler) Update(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	var in dto.CommentInputDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, commentID, in.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommentFromModel(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	titleID, ok := parseID(c, "title_id")
	if !ok {
		return
	}
	reviewID, ok := parseID(c, "review_id")
	if !ok {
		return
	}
	commentID, ok := parseID(c, "comment_id")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), titleID, reviewID, commentID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

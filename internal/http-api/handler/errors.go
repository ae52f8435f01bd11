package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps service sentinels onto the HTTP taxonomy:
// validation 400, permission 403, missing resource 404. The duplicate
// review case is deliberately a 400, not a 409.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTitleNotFound),
		errors.Is(err, service.ErrReviewNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrGenreNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyReviewed),
		errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrInvalidYear),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrSlugInUse),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrUsernameInvalid),
		errors.Is(err, service.ErrEmailInvalid),
		errors.Is(err, service.ErrUsernameInUse),
		errors.Is(err, service.ErrEmailInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

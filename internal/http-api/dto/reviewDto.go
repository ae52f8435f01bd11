package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

type CreateReviewDTO struct {
	Text  string `json:"text" binding:"required"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewDTO is a partial update; absent fields stay untouched.
type UpdateReviewDTO struct {
	Text  *string `json:"text"`
	Score *int    `json:"score" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func ReviewFromModel(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

type PaginatedReviewResponse struct {
	Results    []ReviewResponse `json:"results"`
	Pagination Pagination       `json:"pagination"`
}

func NewPaginatedReviewResponse(results []ReviewResponse, total, page, pageSize int) *PaginatedReviewResponse {
	return &PaginatedReviewResponse{
		Results:    results,
		Pagination: NewPagination(total, page, pageSize),
	}
}

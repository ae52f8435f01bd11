package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

type CommentInputDTO struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func CommentFromModel(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		PubDate: c.PubDate,
	}
}

type PaginatedCommentResponse struct {
	Results    []CommentResponse `json:"results"`
	Pagination Pagination        `json:"pagination"`
}

func NewPaginatedCommentResponse(results []CommentResponse, total, page, pageSize int) *PaginatedCommentResponse {
	return &PaginatedCommentResponse{
		Results:    results,
		Pagination: NewPagination(total, page, pageSize),
	}
}

package dto

import (
	"time"

	"reviewhub/internal/http-api/models"
)

type TitleInputDTO struct {
	Name        string   `json:"name" binding:"required"`
	Year        int      `json:"year" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Genre       []string `json:"genre"`
}

type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *int              `json:"rating"`
	Description string            `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
	CreatedAt   time.Time         `json:"created_at"`
}

func TitleFromModel(t models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]GenreResponse, 0, len(t.Genres)),
		CreatedAt:   t.CreatedAt,
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, GenreFromModel(g))
	}
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		resp.Category = &c
	}
	return resp
}

type PaginatedTitleResponse struct {
	Results    []TitleResponse `json:"results"`
	Pagination Pagination      `json:"pagination"`
}

func NewPaginatedTitleResponse(results []TitleResponse, total, page, pageSize int) *PaginatedTitleResponse {
	return &PaginatedTitleResponse{
		Results:    results,
		Pagination: NewPagination(total, page, pageSize),
	}
}

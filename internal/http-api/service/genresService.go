package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrGenreNotFound = errors.New("genre not found")

type GenreService interface {
	GetAll(ctx context.Context, search string) ([]models.Genre, error)
	Create(ctx context.Context, g *models.Genre) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type genreService struct {
	repo *repository.GenreRepo
}

func NewGenreService(repo *repository.GenreRepo) GenreService {
	return &genreService{repo: repo}
}

func (s *genreService) GetAll(ctx context.Context, search string) ([]models.Genre, error) {
	return s.repo.GetAll(ctx, search)
}

func (s *genreService) Create(ctx context.Context, g *models.Genre) error {
	if g.Name == "" || len(g.Name) > 256 {
		return ErrInvalidName
	}
	if !ValidSlug(g.Slug) {
		return ErrInvalidSlug
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return err
	}
	return nil
}

func (s *genreService) DeleteBySlug(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGenreNotFound
		}
		return err
	}
	return nil
}

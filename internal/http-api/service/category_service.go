package service

import (
	"context"
	"errors"
	"regexp"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidSlug      = errors.New("slug is not valid")
	ErrInvalidName      = errors.New("name is required")
	ErrSlugInUse        = errors.New("slug already in use")
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug checks the slug charset and length.
func ValidSlug(slug string) bool {
	return slug != "" && len(slug) <= 50 && slugRe.MatchString(slug)
}

type CategoryService interface {
	GetAll(ctx context.Context, search string) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	DeleteBySlug(ctx context.Context, slug string) error
}

type categoryService struct {
	repo *repository.CategoryRepo
}

func NewCategoryService(repo *repository.CategoryRepo) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) GetAll(ctx context.Context, search string) ([]models.Category, error) {
	return s.repo.GetAll(ctx, search)
}

func (s *categoryService) Create(ctx context.Context, c *models.Category) error {
	if c.Name == "" || len(c.Name) > 256 {
		return ErrInvalidName
	}
	if !ValidSlug(c.Slug) {
		return ErrInvalidSlug
	}
	if _, err := s.repo.GetBySlug(ctx, c.Slug); err == nil {
		return ErrSlugInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.repo.Create(ctx, c)
}

func (s *categoryService) DeleteBySlug(ctx context.Context, slug string) error {
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

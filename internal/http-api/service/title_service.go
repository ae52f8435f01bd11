package service

import (
	"context"
	"errors"
	"time"

	"reviewhub/internal/http-api/cache"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrTitleNotFound = errors.New("title not found")
	ErrInvalidYear   = errors.New("year cannot be in the future")
)

// TitleInput carries the writable title fields. Genre slugs that match
// no genre are dropped silently (filter-then-save, documented behavior).
type TitleInput struct {
	Name         string
	Year         int
	Description  string
	CategorySlug string
	GenreSlugs   []string
}

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, in TitleInput) (*models.Title, error)
	Update(ctx context.Context, id int64, in TitleInput) (*models.Title, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titleRepo    repository.TitleRepository
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
	titleCache   *cache.TitleCache
}

func NewTitleService(
	titleRepo repository.TitleRepository,
	categoryRepo *repository.CategoryRepo,
	genreRepo *repository.GenreRepo,
	titleCache *cache.TitleCache,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		titleCache:   titleCache,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	return s.titleRepo.List(ctx, filter, page, pageSize)
}

func (s *titleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	if cached, err := s.titleCache.Get(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	// best effort; a cache failure never fails the read
	_ = s.titleCache.Set(ctx, title)
	return title, nil
}

func (s *titleService) Create(ctx context.Context, in TitleInput) (*models.Title, error) {
	category, genres, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		CategoryID:  &category.ID,
	}
	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
		return nil, err
	}
	title.Category = category

	_ = s.titleCache.Set(ctx, title)
	return title, nil
}

func (s *titleService) Update(ctx context.Context, id int64, in TitleInput) (*models.Title, error) {
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, err
	}

	category, genres, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	title.Name = in.Name
	title.Year = in.Year
	title.Description = in.Description
	title.CategoryID = &category.ID
	if err := s.titleRepo.Update(ctx, title); err != nil {
		return nil, err
	}
	if err := s.titleRepo.ReplaceGenres(ctx, title, genres); err != nil {
		return nil, err
	}
	title.Category = category

	_ = s.titleCache.Invalidate(ctx, id)
	return title, nil
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	_ = s.titleCache.Invalidate(ctx, id)
	return nil
}

// resolve validates the year and looks up the category and genre
// associations. A missing category is NotFound; unknown genre slugs are
// filtered out, not rejected.
func (s *titleService) resolve(ctx context.Context, in TitleInput) (*models.Category, []models.Genre, error) {
	if in.Name == "" || len(in.Name) > 256 {
		return nil, nil, ErrInvalidName
	}
	if in.Year > time.Now().Year() {
		return nil, nil, ErrInvalidYear
	}

	category, err := s.categoryRepo.GetBySlug(ctx, in.CategorySlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCategoryNotFound
		}
		return nil, nil, err
	}

	genres, err := s.genreRepo.GetBySlugs(ctx, in.GenreSlugs)
	if err != nil {
		return nil, nil, err
	}
	return category, genres, nil
}

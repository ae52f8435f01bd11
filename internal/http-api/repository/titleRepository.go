package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter mirrors the list query parameters. Zero values mean
// "no constraint".
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Year         int
	Name         string
}

// TitleRepository defines the interface for title data operations.
type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, t *models.Title) error
	Update(ctx context.Context, t *models.Title) error
	Delete(ctx context.Context, id int64) error
	ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page, pageSize int) ([]models.Title, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Title{})

	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug ILIKE ?", "%"+filter.CategorySlug+"%")
	}
	if filter.GenreSlug != "" {
		q = q.Joins("JOIN title_genres tg ON tg.title_id = titles.id").
			Joins("JOIN genres ON genres.id = tg.genre_id").
			Where("genres.slug ILIKE ?", "%"+filter.GenreSlug+"%")
	}
	if filter.Year != 0 {
		q = q.Where("titles.year = ?", filter.Year)
	}
	if filter.Name != "" {
		q = q.Where("titles.name ILIKE ?", "%"+filter.Name+"%")
	}

	var total int64
	if err := q.Distinct("titles.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Distinct over titles.* only: the genre join can match several rows
	// per title and a bare DISTINCT would keep each of them.
	var list []models.Title
	offset := (page - 1) * pageSize
	if err := q.Distinct("titles.*").
		Preload("Category").
		Preload("Genres").
		Order("titles.name desc").
		Limit(pageSize).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).Preload("Category").Preload("Genres").First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *titleRepository) Create(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Omit("Genres", "Category").Create(t).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

func (r *titleRepository) Update(ctx context.Context, t *models.Title) error {
	if err := r.db.WithContext(ctx).Omit("Genres", "Category").Save(t).Error; err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Select("Genres").Delete(&models.Title{ID: id})
	if result.Error != nil {
		return fmt.Errorf("delete title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceGenres swaps the title's genre set for the given one.
func (r *titleRepository) ReplaceGenres(ctx context.Context, t *models.Title, genres []models.Genre) error {
	if err := r.db.WithContext(ctx).Model(t).Association("Genres").Replace(genres); err != nil {
		return fmt.Errorf("replace title genres: %w", err)
	}
	t.Genres = genres
	return nil
}

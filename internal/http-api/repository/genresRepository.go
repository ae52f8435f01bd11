package repository

import (
	"context"
	"fmt"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
)

type GenreRepo struct {
	db *gorm.DB
}

func NewGenreRepo(db *gorm.DB) *GenreRepo {
	return &GenreRepo{db: db}
}

func (r *GenreRepo) GetAll(ctx context.Context, search string) ([]models.Genre, error) {
	var list []models.Genre
	q := r.db.WithContext(ctx).Order("name desc")
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	return list, nil
}

// GetBySlugs returns the genres whose slug appears in slugs. Unknown
// slugs are simply absent from the result; callers relying on the
// filter-then-save title semantics depend on that.
func (r *GenreRepo) GetBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var list []models.Genre
	if len(slugs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get genres by slugs: %w", err)
	}
	return list, nil
}

func (r *GenreRepo) Create(ctx context.Context, g *models.Genre) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return fmt.Errorf("create genre: %w", err)
	}
	return nil
}

// DeleteBySlug removes a genre together with its title associations.
// Titles themselves are untouched, they just lose the tag.
func (r *GenreRepo) DeleteBySlug(ctx context.Context, slug string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g models.Genre
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return err
		}
		if err := tx.Where("genre_id = ?", g.ID).Delete(&models.TitleGenre{}).Error; err != nil {
			return fmt.Errorf("delete genre associations: %w", err)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return fmt.Errorf("delete genre: %w", err)
		}
		return nil
	})
}

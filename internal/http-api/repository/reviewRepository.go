package repository

import (
	"context"
	"math"

	"reviewhub/internal/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines the interface for review data operations.
// Mutations that change a title's review set must run inside InTx so
// the rating recompute commits or rolls back with them.
type ReviewRepository interface {
	InTx(ctx context.Context, fn func(txRepo ReviewRepository) error) error
	ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	ExistsForTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (bool, error)
	Create(ctx context.Context, review *models.Review) error
	Save(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, review *models.Review) error
	// RecomputeTitleRating is the single writer of titles.rating. It
	// locks the title row, averages the current review scores and
	// persists the rounded value (NULL when no reviews remain).
	RecomputeTitleRating(ctx context.Context, titleID int64) (*int, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// InTx runs fn against a transaction-bound copy of the repository.
func (r *reviewRepository) InTx(ctx context.Context, fn func(txRepo ReviewRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&reviewRepository{db: tx})
	})
}

func (r *reviewRepository) ListByTitle(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("title_id = ?", titleID).
		Preload("Author").
		Order("pub_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *reviewRepository) GetByID(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND title_id = ?", reviewID, titleID).
		Preload("Author").
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ExistsForTitleAndAuthor(ctx context.Context, titleID int64, authorID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Author", "Title").Create(review).Error
}

func (r *reviewRepository) Save(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Author", "Title").Save(review).Error
}

// Delete removes the review; its comments go with it via the cascade.
func (r *reviewRepository) Delete(ctx context.Context, review *models.Review) error {
	result := r.db.WithContext(ctx).Delete(&models.Review{}, review.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepository) RecomputeTitleRating(ctx context.Context, titleID int64) (*int, error) {
	// Lock the title row so concurrent review writes on the same title
	// serialize on the aggregate instead of losing updates.
	var title models.Title
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&title, titleID).Error; err != nil {
		return nil, err
	}

	var agg struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(score), 0) as average, COUNT(*) as count").
		Where("title_id = ?", titleID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var rating *int
	if agg.Count > 0 {
		v := roundScore(agg.Average)
		rating = &v
	}

	if err := r.db.WithContext(ctx).Model(&models.Title{}).
		Where("id = ?", titleID).
		Update("rating", rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

// roundScore rounds half away from zero. Scores are in [1,10], so this
// is plain half-up.
func roundScore(avg float64) int {
	return int(math.Floor(avg + 0.5))
}

package service

import (
	"context"
	"errors"
	"net/http"

	"reviewhub/internal/http-api/cache"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permission"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("already reviewed")
	ErrInvalidScore    = errors.New("score must be between 1 and 10")
)

// ReviewUpdate is a partial update; nil fields are left untouched.
type ReviewUpdate struct {
	Text  *string
	Score *int
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error)
	Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error)
	// Create rejects a second review for the same (title, author) pair.
	Create(ctx context.Context, p permission.Principal, titleID int64, text string, score int) (*models.Review, error)
	Update(ctx context.Context, p permission.Principal, titleID, reviewID int64, update ReviewUpdate) (*models.Review, error)
	Delete(ctx context.Context, p permission.Principal, titleID, reviewID int64) error
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	titleRepo  repository.TitleRepository
	titleCache *cache.TitleCache
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
	titleCache *cache.TitleCache,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
		titleCache: titleCache,
	}
}

// requireTitle resolves the nesting parent or reports NotFound.
func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTitleNotFound
		}
		return err
	}
	return nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, page, pageSize int) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListByTitle(ctx, titleID, page, pageSize)
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return review, nil
}

// Create writes the review and the recomputed title rating in one
// transaction, so a crash between the two can never leave the aggregate
// stale.
func (s *reviewService) Create(ctx context.Context, p permission.Principal, titleID int64, text string, score int) (*models.Review, error) {
	if score < 1 || score > 10 {
		return nil, ErrInvalidScore
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: p.UserID,
		Text:     text,
		Score:    score,
	}
	err := s.reviewRepo.InTx(ctx, func(tx repository.ReviewRepository) error {
		exists, err := tx.ExistsForTitleAndAuthor(ctx, titleID, p.UserID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyReviewed
		}
		if err := tx.Create(ctx, review); err != nil {
			return err
		}
		_, err = tx.RecomputeTitleRating(ctx, titleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.titleCache.Invalidate(ctx, titleID)
	return s.Get(ctx, titleID, review.ID)
}

// Update keeps the original author; only the acting principal's right to
// touch the review is checked.
func (s *reviewService) Update(ctx context.Context, p permission.Principal, titleID, reviewID int64, update ReviewUpdate) (*models.Review, error) {
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if !permission.CanModifyAuthored(p, review.AuthorID, http.MethodPatch) {
		return nil, ErrPermissionDenied
	}

	if update.Text != nil {
		review.Text = *update.Text
	}
	if update.Score != nil {
		if *update.Score < 1 || *update.Score > 10 {
			return nil, ErrInvalidScore
		}
		review.Score = *update.Score
	}

	err = s.reviewRepo.InTx(ctx, func(tx repository.ReviewRepository) error {
		if err := tx.Save(ctx, review); err != nil {
			return err
		}
		_, err := tx.RecomputeTitleRating(ctx, titleID)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = s.titleCache.Invalidate(ctx, titleID)
	return s.Get(ctx, titleID, reviewID)
}

func (s *reviewService) Delete(ctx context.Context, p permission.Principal, titleID, reviewID int64) error {
	review, err := s.Get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if !permission.CanModifyAuthored(p, review.AuthorID, http.MethodDelete) {
		return ErrPermissionDenied
	}

	err = s.reviewRepo.InTx(ctx, func(tx repository.ReviewRepository) error {
		if err := tx.Delete(ctx, review); err != nil {
			return err
		}
		_, err := tx.RecomputeTitleRating(ctx, titleID)
		return err
	})
	if err != nil {
		return err
	}

	_ = s.titleCache.Invalidate(ctx, titleID)
	return nil
}

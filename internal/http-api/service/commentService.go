package service

import (
	"context"
	"errors"
	"net/http"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permission"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error)
	Create(ctx context.Context, p permission.Principal, titleID, reviewID int64, text string) (*models.Comment, error)
	Update(ctx context.Context, p permission.Principal, titleID, reviewID, commentID int64, text string) (*models.Comment, error)
	Delete(ctx context.Context, p permission.Principal, titleID, reviewID, commentID int64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	reviewRepo  repository.ReviewRepository
	titleRepo   repository.TitleRepository
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	reviewRepo repository.ReviewRepository,
	titleRepo repository.TitleRepository,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		reviewRepo:  reviewRepo,
		titleRepo:   titleRepo,
	}
}

// requireReview resolves the nested path: the title must exist and the
// review must belong to it, else NotFound.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if _, err := s.titleRepo.GetByID(ctx, titleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTitleNotFound
		}
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

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, page, pageSize int) ([]models.Comment, int64, error) {
	if _, err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListByReview(ctx, reviewID, page, pageSize)
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if _, err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, reviewID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return comment, nil
}

// Create never touches the title rating; only review mutations do.
func (s *commentService) Create(ctx context.Context, p permission.Principal, titleID, reviewID int64, text string) (*models.Comment, error) {
	review, err := s.requireReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: review.ID,
		AuthorID: p.UserID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, reviewID, comment.ID)
}

func (s *commentService) Update(ctx context.Context, p permission.Principal, titleID, reviewID, commentID int64, text string) (*models.Comment, error) {
	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if !permission.CanModifyAuthored(p, comment.AuthorID, http.MethodPatch) {
		return nil, ErrPermissionDenied
	}

	comment.Text = text
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *commentService) Delete(ctx context.Context, p permission.Principal, titleID, reviewID, commentID int64) error {
	comment, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if !permission.CanModifyAuthored(p, comment.AuthorID, http.MethodDelete) {
		return ErrPermissionDenied
	}
	return s.commentRepo.Delete(ctx, comment)
}

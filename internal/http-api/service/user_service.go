package service

import (
	"context"
	"errors"

	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/permission"
	"reviewhub/internal/http-api/repository"

	"gorm.io/gorm"
)

var ErrInvalidRole = errors.New("role is not valid")

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *string
}

type UserService interface {
	List(ctx context.Context, search string) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, username, email, role string) (*models.User, error)
	UpdateByUsername(ctx context.Context, username string, update UserUpdate) (*models.User, error)
	DeleteByUsername(ctx context.Context, username string) error
	// Me returns the caller's own record.
	Me(ctx context.Context, p permission.Principal) (*models.User, error)
	// UpdateMe applies a partial self-update. Role changes are silently
	// stripped unless the caller already administers, so self-service
	// escalation is impossible whatever the payload says.
	UpdateMe(ctx context.Context, p permission.Principal, update UserUpdate) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) List(ctx context.Context, search string) ([]models.User, error) {
	return s.userRepo.List(ctx, search)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, username, email, role string) (*models.User, error) {
	if !ValidUsername(username) {
		return nil, ErrUsernameInvalid
	}
	if !ValidEmail(email) {
		return nil, ErrEmailInvalid
	}
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateByUsername(ctx context.Context, username string, update UserUpdate) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, update)
}

func (s *userService) DeleteByUsername(ctx context.Context, username string) error {
	if err := s.userRepo.DeleteByUsername(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) Me(ctx context.Context, p permission.Principal) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateMe(ctx context.Context, p permission.Principal, update UserUpdate) (*models.User, error) {
	user, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	if !permission.CanAdminister(p) {
		update.Role = nil
	}
	return s.apply(ctx, user, update)
}

// apply validates and persists a partial update.
func (s *userService) apply(ctx context.Context, user *models.User, update UserUpdate) (*models.User, error) {
	if update.Username != nil && *update.Username != user.Username {
		if !ValidUsername(*update.Username) {
			return nil, ErrUsernameInvalid
		}
		if _, err := s.userRepo.FindByUsername(ctx, *update.Username); err == nil {
			return nil, ErrUsernameInUse
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = *update.Username
	}
	if update.Email != nil && *update.Email != user.Email {
		if !ValidEmail(*update.Email) {
			return nil, ErrEmailInvalid
		}
		if _, err := s.userRepo.FindByEmail(ctx, *update.Email); err == nil {
			return nil, ErrEmailInUse
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = *update.Email
	}
	if update.FirstName != nil {
		user.FirstName = update.FirstName
	}
	if update.LastName != nil {
		user.LastName = update.LastName
	}
	if update.Bio != nil {
		user.Bio = update.Bio
	}
	if update.Role != nil {
		if !models.ValidRole(*update.Role) {
			return nil, ErrInvalidRole
		}
		user.Role = *update.Role
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

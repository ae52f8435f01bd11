package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"regexp"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/repository"
	mailer "reviewhub/internal/mail"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrUsernameInvalid = errors.New("username is not valid")
	ErrEmailInvalid    = errors.New("email is not valid")
	// ErrUsernameInUse: the username belongs to an account with a
	// different email. Surfaced to the client as "invalid email".
	ErrUsernameInUse = errors.New("username already in use")
	// ErrEmailInUse: the email belongs to an account with a different
	// username. Surfaced to the client as "invalid username".
	ErrEmailInUse       = errors.New("email already in use")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidCode      = errors.New("invalid confirmation code")
	ErrInvalidToken     = errors.New("invalid token")
	ErrPermissionDenied = errors.New("permission denied")
)

// usernameRe matches Django's UnicodeUsernameValidator charset.
var usernameRe = regexp.MustCompile(`^[\w.@+-]+$`)

// Claims carried by access tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Superuser bool   `json:"superuser"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Signup registers (or re-requests a code for) the (username, email)
	// pair and delivers a confirmation code out of band.
	Signup(ctx context.Context, username, email string) (*models.User, error)
	// IssueToken exchanges a valid confirmation code for a bearer token.
	IssueToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	codes          *CodeGenerator
	mailer         mailer.Mailer
	logger         *slog.Logger
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *CodeGenerator,
	m mailer.Mailer,
	logger *slog.Logger,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codes:          codes,
		mailer:         m,
		logger:         logger,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// ValidUsername checks the allowed charset and the reserved literal.
func ValidUsername(username string) bool {
	if username == "" || username == "me" || len(username) > 150 {
		return false
	}
	return usernameRe.MatchString(username)
}

// ValidEmail checks address syntax.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// Signup is idempotent for an exact (username, email) repeat: the
// existing row is reused and a fresh code goes out.
func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	if !ValidUsername(username) {
		return nil, ErrUsernameInvalid
	}
	if !ValidEmail(email) {
		return nil, ErrEmailInvalid
	}

	user, err := s.userRepo.FindByUsernameAndEmail(ctx, username, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if user == nil {
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

		user = &models.User{Username: username, Email: email, Role: models.RoleUser}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// A concurrent signup can slip between the lookups and the
			// insert; classify the unique violation by which column won.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if _, findErr := s.userRepo.FindByUsername(ctx, username); findErr == nil {
					return nil, ErrUsernameInUse
				}
				return nil, ErrEmailInUse
			}
			return nil, err
		}
	}

	code, err := s.codes.Make(user)
	if err != nil {
		return nil, err
	}
	s.deliverCode(user, code)

	return user, nil
}

// deliverCode sends the confirmation email without blocking the signup
// response on the relay.
func (s *authService) deliverCode(user *models.User, code string) {
	to := user.Email
	username := user.Username
	go func() {
		if err := s.mailer.Send(to, "Confirmation code", "Code is "+code); err != nil {
			s.logger.Error("confirmation code delivery failed", "username", username, "error", err)
		}
	}()
}

func (s *authService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	// A failed check consumes nothing; expired and forged codes are
	// indistinguishable to the caller.
	if !s.codes.Check(user, code) {
		return "", ErrInvalidCode
	}

	// A successful exchange consumes the code: bumping UpdatedAt changes
	// the signed state, so this and every other outstanding code for the
	// user stop verifying.
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Save(ctx, user); err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Superuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

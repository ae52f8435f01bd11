package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, search string) ([]models.User, error) {
	args := m.Called(ctx, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// chanMailer records sends on a channel so tests can wait for the
// fire-and-forget delivery goroutine.
type chanMailer struct {
	sent chan string
}

func newChanMailer() *chanMailer {
	return &chanMailer{sent: make(chan string, 1)}
}

func (m *chanMailer) Send(to, subject, body string) error {
	m.sent <- body
	return nil
}

func (m *chanMailer) wait(t *testing.T) string {
	t.Helper()
	select {
	case body := <-m.sent:
		return body
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation code was never delivered")
		return ""
	}
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:           testSecret,
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: 24 * time.Hour,
	}
}

func newTestAuthService(repo *MockUserRepository, m *chanMailer) AuthService {
	cfg := testConfig()
	codes := NewCodeGenerator(cfg.JWTSecret, cfg.ConfirmationCodeTTL)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewAuthService(repo, codes, m, logger, cfg)
}

func TestSignup_NewUser(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	repo.On("FindByUsernameAndEmail", mock.Anything, "reader", "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", mock.Anything, "reader").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "reader@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Signup(context.Background(), "reader", "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)

	body := mailer.wait(t)
	assert.Contains(t, body, "Code is ")

	repo.AssertExpectations(t)
}

func TestSignup_IdempotentRepeat(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	existing := testUser()
	repo.On("FindByUsernameAndEmail", mock.Anything, existing.Username, existing.Email).
		Return(existing, nil)

	user, err := svc.Signup(context.Background(), existing.Username, existing.Email)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	mailer.wait(t)

	// no Create call happened
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestSignup_UsernameTakenByOtherEmail(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	existing := testUser()
	repo.On("FindByUsernameAndEmail", mock.Anything, "reader", "other@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", mock.Anything, "reader").Return(existing, nil)

	_, err := svc.Signup(context.Background(), "reader", "other@example.com")
	assert.ErrorIs(t, err, ErrUsernameInUse)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_EmailTakenByOtherUsername(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	existing := testUser()
	repo.On("FindByUsernameAndEmail", mock.Anything, "other", "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", mock.Anything, "other").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "reader@example.com").Return(existing, nil)

	_, err := svc.Signup(context.Background(), "other", "reader@example.com")
	assert.ErrorIs(t, err, ErrEmailInUse)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSignup_LostRaceOnUsername(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	existing := testUser()
	repo.On("FindByUsernameAndEmail", mock.Anything, "reader", "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	// nothing visible before the insert, then a concurrent signup wins
	repo.On("FindByUsername", mock.Anything, "reader").
		Return(nil, gorm.ErrRecordNotFound).Once()
	repo.On("FindByEmail", mock.Anything, "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Return(gorm.ErrDuplicatedKey)
	repo.On("FindByUsername", mock.Anything, "reader").Return(existing, nil).Once()

	_, err := svc.Signup(context.Background(), "reader", "reader@example.com")
	assert.ErrorIs(t, err, ErrUsernameInUse)
	repo.AssertExpectations(t)
}

func TestSignup_LostRaceOnEmail(t *testing.T) {
	repo := new(MockUserRepository)
	mailer := newChanMailer()
	svc := newTestAuthService(repo, mailer)

	repo.On("FindByUsernameAndEmail", mock.Anything, "other", "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByUsername", mock.Anything, "other").Return(nil, gorm.ErrRecordNotFound)
	repo.On("FindByEmail", mock.Anything, "reader@example.com").
		Return(nil, gorm.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Return(gorm.ErrDuplicatedKey)

	_, err := svc.Signup(context.Background(), "other", "reader@example.com")
	assert.ErrorIs(t, err, ErrEmailInUse)
	repo.AssertExpectations(t)
}

func TestSignup_InvalidInput(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, newChanMailer())

	_, err := svc.Signup(context.Background(), "me", "me@example.com")
	assert.ErrorIs(t, err, ErrUsernameInvalid, "the literal 'me' is reserved")

	_, err = svc.Signup(context.Background(), "sp ace", "x@example.com")
	assert.ErrorIs(t, err, ErrUsernameInvalid)

	_, err = svc.Signup(context.Background(), "reader", "not-an-email")
	assert.ErrorIs(t, err, ErrEmailInvalid)

	repo.AssertNotCalled(t, "FindByUsernameAndEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueToken_Success(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, newChanMailer())

	user := testUser()
	repo.On("FindByUsername", mock.Anything, user.Username).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)

	codes := NewCodeGenerator(testSecret, 24*time.Hour)
	code, err := codes.Make(user)
	require.NoError(t, err)

	token, err := svc.IssueToken(context.Background(), user.Username, code)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	repo.AssertExpectations(t)
}

func TestIssueToken_CodeConsumedByExchange(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, newChanMailer())

	user := testUser()
	repo.On("FindByUsername", mock.Anything, user.Username).Return(user, nil)
	repo.On("Save", mock.Anything, user).Return(nil)

	codes := NewCodeGenerator(testSecret, 24*time.Hour)
	code, err := codes.Make(user)
	require.NoError(t, err)

	_, err = svc.IssueToken(context.Background(), user.Username, code)
	require.NoError(t, err)

	// the exchange bumped UpdatedAt, so replaying the same code fails
	_, err = svc.IssueToken(context.Background(), user.Username, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
	repo.AssertNumberOfCalls(t, "Save", 1)
}

func TestIssueToken_WrongCode(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, newChanMailer())

	user := testUser()
	repo.On("FindByUsername", mock.Anything, user.Username).Return(user, nil)

	_, err := svc.IssueToken(context.Background(), user.Username, "bogus-code")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestIssueToken_UnknownUsername(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newTestAuthService(repo, newChanMailer())

	repo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.IssueToken(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository), newChanMailer())

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/models"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	args := m.Called(ctx, username, code)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignup_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
	}

	mockAuthService.On("Signup", mock.Anything, "testuser", "test@example.com").Return(user, nil)

	w := postJSON(router, "/signup", dto.SignupRequest{
		Username: "testuser",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.SignupResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "testuser", response.Username)
	assert.Equal(t, "test@example.com", response.Email)

	mockAuthService.AssertExpectations(t)
}

func TestSignup_UsernameInUse(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	mockAuthService.On("Signup", mock.Anything, "testuser", "other@example.com").
		Return(nil, service.ErrUsernameInUse)

	w := postJSON(router, "/signup", dto.SignupRequest{
		Username: "testuser",
		Email:    "other@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "invalid email", response["error"])

	mockAuthService.AssertExpectations(t)
}

func TestSignup_EmailInUse(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	mockAuthService.On("Signup", mock.Anything, "otheruser", "test@example.com").
		Return(nil, service.ErrEmailInUse)

	w := postJSON(router, "/signup", dto.SignupRequest{
		Username: "otheruser",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "invalid username", response["error"])

	mockAuthService.AssertExpectations(t)
}

func TestSignup_ReservedUsername(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	mockAuthService.On("Signup", mock.Anything, "me", "me@example.com").
		Return(nil, service.ErrUsernameInvalid)

	w := postJSON(router, "/signup", dto.SignupRequest{
		Username: "me",
		Email:    "me@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockAuthService.AssertExpectations(t)
}

func TestSignup_InvalidJSON(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/signup", handler.Signup)

	req, _ := http.NewRequest("POST", "/signup", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueToken_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/token", handler.IssueToken)

	mockAuthService.On("IssueToken", mock.Anything, "testuser", "abcd-1234").
		Return("access-token", nil)

	w := postJSON(router, "/token", dto.TokenRequest{
		Username:         "testuser",
		ConfirmationCode: "abcd-1234",
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.TokenResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "testuser", response.Username)
	assert.Equal(t, "access-token", response.Token)

	mockAuthService.AssertExpectations(t)
}

func TestIssueToken_UnknownUsername(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/token", handler.IssueToken)

	mockAuthService.On("IssueToken", mock.Anything, "ghost", "abcd-1234").
		Return("", service.ErrUserNotFound)

	w := postJSON(router, "/token", dto.TokenRequest{
		Username:         "ghost",
		ConfirmationCode: "abcd-1234",
	})

	// an unknown username is a 404, never a 400
	assert.Equal(t, http.StatusNotFound, w.Code)
	mockAuthService.AssertExpectations(t)
}

func TestIssueToken_WrongCode(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/token", handler.IssueToken)

	mockAuthService.On("IssueToken", mock.Anything, "testuser", "wrong").
		Return("", service.ErrInvalidCode)

	w := postJSON(router, "/token", dto.TokenRequest{
		Username:         "testuser",
		ConfirmationCode: "wrong",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "invalid confirmation code", response["error"])

	mockAuthService.AssertExpectations(t)
}

func TestIssueToken_InvalidJSON(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/token", handler.IssueToken)

	req, _ := http.NewRequest("POST", "/token", bytes.NewBuffer([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

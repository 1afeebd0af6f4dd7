package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type authenticatorMock struct{}

func (authenticatorMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "secret" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", ExpiresIn: 3600, User: models.UserInfo{ID: 1, Email: req.Email}}, nil
}

func (authenticatorMock) Me(ctx context.Context, userID int64) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Name: "Coordinator", Role: models.RoleCoordinator}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(authenticatorMock{}).Login)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "success", body: `{"email":"a@b.edu","password":"secret"}`, status: http.StatusOK},
		{name: "wrong password", body: `{"email":"a@b.edu","password":"nope"}`, status: http.StatusUnauthorized},
		{name: "malformed", body: `{"email":`, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(tc.body)))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestAuthHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(withClaims(models.RoleCoordinator, 42))
	router.GET("/auth/me", NewAuthHandler(authenticatorMock{}).Me)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":42`)
}

package register

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, in auth.RegisterInput) (string, *models.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(1).(*models.User)
	return args.String(0), u, args.Error(2)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := Request{Email: "A@b.kz", Password: "password123", Name: "ИП Иванов"}

	tests := []struct {
		name           string
		body           any
		setupMock      func(m *AuthServiceMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, auth.RegisterInput{
					Email: "A@b.kz", Password: "password123", Name: "ИП Иванов",
				}).Return("tok", &models.User{UUID: "uid-1", Email: "a@b.kz"}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       `"token":"tok"`,
		},
		{
			name: "duplicate email in any case",
			body: valid,
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).
					Return("", nil, fmt.Errorf("auth.Register: %w", auth.ErrEmailTaken)).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantBody:       `"error":"email already registered"`,
		},
		{
			name:           "short password",
			body:           Request{Email: "a@b.kz", Password: "123", Name: "x"},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name: "cyrillic password over 72 bytes",
			body: Request{Email: "a@b.kz", Password: strings.Repeat("ж", 40), Name: "x"},
			setupMock: func(m *AuthServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).
					Return("", nil, fmt.Errorf("auth.Register: %w", auth.ErrPasswordTooLong)).Once()
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       "at most 72 bytes",
		},
		{
			name:           "bad business type",
			body:           Request{Email: "a@b.kz", Password: "password123", Name: "x", BusinessType: "llc"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       "field BusinessType must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AuthServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			body, _ := json.Marshal(tt.body)
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body)))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

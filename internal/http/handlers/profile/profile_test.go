package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userUID, upd)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newHandler(svc Service, now time.Time) *Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	h.now = func() time.Time { return now }
	return h
}

func TestHandler_GetIsPremium(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Minute)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{name: "developer", user: &models.User{Role: models.RoleDeveloper, Plan: models.DeveloperPlan{}}, want: true},
		{name: "paid active", user: &models.User{Role: models.RolePaid, Plan: models.PaidPlan{Status: models.SubscriptionActive}}, want: true},
		{name: "paid expired", user: &models.User{Role: models.RolePaid, Plan: models.PaidPlan{Status: models.SubscriptionActive, Expiry: &expired}}, want: false},
		{name: "free", user: &models.User{Role: models.RoleFree, Plan: models.FreePlan{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			rec := httptest.NewRecorder()

			newHandler(new(ServiceMock), now).Get(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var body struct {
				Data struct {
					IsPremium bool   `json:"is_premium"`
					Role      string `json:"role"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Data.IsPremium)
			assert.Equal(t, string(tt.user.Role), body.Data.Role)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

func TestHandler_Update(t *testing.T) {
	svc := new(ServiceMock)
	user := &models.User{UUID: "uid-1", Plan: models.FreePlan{}}
	upd := models.ProfileUpdate{Name: "ТОО Ромашка", BusinessType: models.BusinessCompany, TaxID: "123456789012"}
	svc.On("UpdateProfile", mock.Anything, "uid-1", upd).
		Return(&models.User{UUID: "uid-1", Name: upd.Name, Plan: models.FreePlan{}}, nil).Once()

	body, _ := json.Marshal(upd)
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader(body))
	req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
	rec := httptest.NewRecorder()

	newHandler(svc, time.Now()).Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ТОО Ромашка")
	svc.AssertExpectations(t)
}

func TestHandler_UpdateValidation(t *testing.T) {
	svc := new(ServiceMock)
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewReader([]byte(`{"name":"x","business_type":"llc"}`)))
	req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{UUID: "uid-1"}))
	rec := httptest.NewRecorder()

	newHandler(svc, time.Now()).Update(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

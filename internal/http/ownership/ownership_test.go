package ownership_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/http/ownership"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/services/auth"
	"github.com/magabrotheeeer/bizfinance/internal/services/projects"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type FetcherMock struct {
	mock.Mock
}

func (m *FetcherMock) Fetch(ctx context.Context, id int64, userUID string) (*models.Project, error) {
	args := m.Called(ctx, id, userUID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func newRouter(authn *AuthenticatorMock, fetcher *FetcherMock) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	guard := ownership.Guard(log, ownership.Resource[*models.Project]{
		Name:     "project",
		Param:    "id",
		Fetch:    fetcher.Fetch,
		NotFound: projects.ErrNotFound,
	})
	show := func(w http.ResponseWriter, r *http.Request) {
		p, ok := ownership.FromContext[*models.Project](r.Context(), "project")
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		render.JSON(w, r, p)
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(authn, log))
		r.With(guard).Delete("/projects/{id}", show)
		r.With(middlewarectx.PremiumMiddleware(log, nil), guard).Get("/projects/{id}/report", show)
	})
	return r
}

var (
	alice = &models.User{UUID: "alice", Role: models.RoleFree, Plan: models.FreePlan{}}
	bob   = &models.User{UUID: "bob", Role: models.RoleFree, Plan: models.FreePlan{}}
	dev   = &models.User{UUID: "dev", Role: models.RoleDeveloper, Plan: models.DeveloperPlan{}}
)

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGate_NoAuthorizationNeverFetches(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	h := newRouter(authn, fetcher)

	for _, target := range []string{"/projects/1", "/projects/1/report"} {
		method := http.MethodDelete
		if target != "/projects/1" {
			method = http.MethodGet
		}
		rec := do(h, method, target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	authn.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_InvalidTokenNeverFetches(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "expired").Return(nil, auth.ErrInvalidToken).Once()

	rec := do(newRouter(authn, fetcher), http.MethodDelete, "/projects/1", "expired")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_ForeignAndMissingAreIndistinguishable(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "bob-token").Return(bob, nil)
	// проект 1 принадлежит alice, проекта 999 нет вовсе
	fetcher.On("Fetch", mock.Anything, int64(1), "bob").Return(nil, projects.ErrNotFound).Once()
	fetcher.On("Fetch", mock.Anything, int64(999), "bob").Return(nil, projects.ErrNotFound).Once()
	h := newRouter(authn, fetcher)

	foreign := do(h, http.MethodDelete, "/projects/1", "bob-token")
	missing := do(h, http.MethodDelete, "/projects/999", "bob-token")
	malformed := do(h, http.MethodDelete, "/projects/abc", "bob-token")

	assert.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, foreign.Code, missing.Code)
	assert.Equal(t, foreign.Body.String(), missing.Body.String())
	assert.Equal(t, foreign.Code, malformed.Code)
	assert.Equal(t, foreign.Body.String(), malformed.Body.String())
	assert.JSONEq(t, `{"status":"Error","error":"project not found"}`, foreign.Body.String())
	fetcher.AssertExpectations(t)
}

func TestGate_OwnerPasses(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "alice-token").Return(alice, nil).Once()
	fetcher.On("Fetch", mock.Anything, int64(1), "alice").Return(&models.Project{ID: 1, Name: "Сайт"}, nil).Once()

	rec := do(newRouter(authn, fetcher), http.MethodDelete, "/projects/1", "alice-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Сайт"`)
}

func TestGate_EntitlementBeforeOwnership(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "alice-token").Return(alice, nil).Once()

	rec := do(newRouter(authn, fetcher), http.MethodGet, "/projects/1/report", "alice-token")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"SUBSCRIPTION_REQUIRED"`)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_PremiumOwnerPasses(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "dev-token").Return(dev, nil).Once()
	fetcher.On("Fetch", mock.Anything, int64(5), "dev").Return(&models.Project{ID: 5}, nil).Once()

	rec := do(newRouter(authn, fetcher), http.MethodGet, "/projects/5/report", "dev-token")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_StoreFailure(t *testing.T) {
	authn, fetcher := new(AuthenticatorMock), new(FetcherMock)
	authn.On("Authenticate", mock.Anything, "alice-token").Return(alice, nil).Once()
	fetcher.On("Fetch", mock.Anything, int64(1), "alice").Return(nil, errors.New("db down")).Once()

	rec := do(newRouter(authn, fetcher), http.MethodDelete, "/projects/1", "alice-token")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

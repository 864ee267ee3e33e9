// Package profile реализует чтение и изменение профиля текущего пользователя.
//
// Профиль отдается вместе с признаком is_premium, вычисленным на момент запроса.
package profile

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bizfinance/internal/entitlement"
	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/http/request"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
)

// Profile пользователь и его текущий доступ к премиум-функциям.
type Profile struct {
	*models.User
	IsPremium bool `json:"is_premium"`
}

// Service описывает изменение профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error)
}

// Handler обрабатывает запросы профиля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *Handler) view(u *models.User) Profile {
	return Profile{User: u, IsPremium: entitlement.UserIsPremium(u, h.now())}
}

// Get godoc
// @Summary Профиль текущего пользователя
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /profile [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middlewarectx.UserFromContext(r.Context())
	render.JSON(w, r, response.OKWithData(h.view(user)))
}

// Update godoc
// @Summary Изменить профиль
// @Tags Profile
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ProfileUpdate true "Новые данные профиля"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /profile [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ProfileUpdate
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	user, _ := middlewarectx.UserFromContext(r.Context())
	updated, err := h.service.UpdateProfile(r.Context(), user.UUID, req)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update profile"))
		return
	}

	log.Info("profile updated", slog.String("user_uid", user.UUID))
	render.JSON(w, r, response.OKWithData(h.view(updated)))
}

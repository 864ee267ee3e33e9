// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Email приводится к нижнему регистру до проверки уникальности, поэтому
// "A@b.kz" и "a@b.kz" считаются одним адресом. При успехе сразу выдается токен.
package register

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bizfinance/internal/http/request"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/password"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/services/auth"
)

// Request это структура входных данных для регистрации.
type Request struct {
	Email        string              `json:"email" validate:"required,email,max=254"`
	Password     string              `json:"password" validate:"required,min=8,max=72"`
	Name         string              `json:"name" validate:"required,max=200"`
	BusinessType models.BusinessType `json:"business_type" validate:"omitempty,oneof=sole_proprietor company"`
	TaxID        string              `json:"tax_id" validate:"omitempty,numeric,len=12"`
}

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) (string, *models.User, error)
}

// Handler обрабатывает HTTP-запросы на регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя и возвращает JWT.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или пароль длиннее 72 байт"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	token, user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		BusinessType: req.BusinessType,
		TaxID:        req.TaxID,
	})
	if errors.Is(err, auth.ErrPasswordTooLong) {
		log.Info("password exceeds bcrypt limit")
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(fmt.Sprintf("field Password must be at most %d bytes", password.MaxBytes)))
		return
	}
	if errors.Is(err, auth.ErrEmailTaken) {
		log.Info("email already registered")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("email already registered"))
		return
	}
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("user registered", slog.String("user_uid", user.UUID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": token,
		"user":  user,
	}))
}

// Package receipts реализует HTTP-обработчики чеков.
package receipts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/http/ownership"
	"github.com/magabrotheeeer/bizfinance/internal/http/request"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	receiptservice "github.com/magabrotheeeer/bizfinance/internal/services/receipts"
)

// Resource имя чека в контексте запроса.
const Resource = "receipt"

// Service операции с чеками пользователя.
type Service interface {
	Create(ctx context.Context, userUID string, in models.ReceiptInput) (*models.Receipt, error)
	Get(ctx context.Context, id int64, userUID string) (*models.Receipt, error)
	WithItems(ctx context.Context, rc *models.Receipt) (*models.Receipt, error)
	List(ctx context.Context, userUID string, limit, offset int) ([]models.Receipt, error)
	Delete(ctx context.Context, id int64, userUID string) error
}

// Guard проверяет владение чеком из параметра {id}.
func Guard(log *slog.Logger, service Service) func(http.Handler) http.Handler {
	return ownership.Guard(log, ownership.Resource[*models.Receipt]{
		Name:     Resource,
		Param:    "id",
		Fetch:    service.Get,
		NotFound: receiptservice.ErrNotFound,
	})
}

// Handler обрабатывает запросы к чекам.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func receipt(r *http.Request) *models.Receipt {
	rc, _ := ownership.FromContext[*models.Receipt](r.Context(), Resource)
	return rc
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, receiptservice.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("receipt not found"))
		return
	}
	log.Error("receipt operation failed", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error("internal server error"))
}

// Create godoc
// @Summary Добавить чек с позициями
// @Description Итог чека считается по позициям.
// @Tags Receipts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ReceiptInput true "Чек"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /receipts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipts.create")

	var req models.ReceiptInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	rc, err := h.service.Create(r.Context(), user.UUID, req)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(rc))
}

// List godoc
// @Summary Список чеков
// @Tags Receipts
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /receipts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipts.list")
	user, _ := middlewarectx.UserFromContext(r.Context())
	limit, offset := request.Pagination(r)

	res, err := h.service.List(r.Context(), user.UUID, limit, offset)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Get godoc
// @Summary Получить чек с позициями
// @Tags Receipts
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID чека"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /receipts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipts.get")

	rc, err := h.service.WithItems(r.Context(), receipt(r))
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(rc))
}

// Delete godoc
// @Summary Удалить чек
// @Tags Receipts
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID чека"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /receipts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipts.delete")
	rc := receipt(r)
	user, _ := middlewarectx.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), rc.ID, user.UUID); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

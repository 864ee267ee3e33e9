// Package accounts реализует HTTP-обработчики банковских счетов и операций по ним.
package accounts

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
	accountservice "github.com/magabrotheeeer/bizfinance/internal/services/accounts"
)

// Resource имя ресурса для Guard и контекста.
const Resource = "account"

// Service описывает бизнес-логику счетов.
type Service interface {
	Create(ctx context.Context, userUID string, in models.BankAccountInput) (*models.BankAccount, error)
	Get(ctx context.Context, id int64, userUID string) (*models.BankAccount, error)
	List(ctx context.Context, userUID string) ([]models.BankAccount, error)
	Delete(ctx context.Context, id int64, userUID string) error
	AddTransaction(ctx context.Context, accountID int64, in models.TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
}

// Guard проверяет владение счетом из параметра {id}.
func Guard(log *slog.Logger, service Service) func(http.Handler) http.Handler {
	return ownership.Guard(log, ownership.Resource[*models.BankAccount]{
		Name:     Resource,
		Param:    "id",
		Fetch:    service.Get,
		NotFound: accountservice.ErrNotFound,
	})
}

// Handler обрабатывает запросы счетов.
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

func account(r *http.Request) *models.BankAccount {
	a, _ := ownership.FromContext[*models.BankAccount](r.Context(), Resource)
	return a
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, accountservice.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("account not found"))
		return
	}
	log.Error("account operation failed", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error("internal server error"))
}

// Create godoc
// @Summary Добавить банковский счет
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.BankAccountInput true "Счет"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /accounts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.accounts.create")

	var req models.BankAccountInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	a, err := h.service.Create(r.Context(), user.UUID, req)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(a))
}

// List godoc
// @Summary Список счетов
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /accounts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.accounts.list")
	user, _ := middlewarectx.UserFromContext(r.Context())

	res, err := h.service.List(r.Context(), user.UUID)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Get godoc
// @Summary Получить счет
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /accounts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(account(r)))
}

// Delete godoc
// @Summary Удалить счет вместе с операциями
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /accounts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.accounts.delete")
	a := account(r)
	user, _ := middlewarectx.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), a.ID, user.UUID); err != nil {
		h.fail(w, r, log, err)
		return
	}
	log.Info("account deleted", slog.Int64("id", a.ID))
	render.JSON(w, r, response.OK())
}

// ListTransactions godoc
// @Summary Операции по счету
// @Tags Accounts
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /accounts/{id}/transactions [get]
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.accounts.list_transactions")
	limit, offset := request.Pagination(r)

	res, err := h.service.ListTransactions(r.Context(), account(r).ID, limit, offset)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// AddTransaction godoc
// @Summary Добавить операцию по счету
// @Description Баланс счета меняется в той же транзакции БД.
// @Tags Accounts
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID счета"
// @Param request body models.TransactionInput true "Операция"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /accounts/{id}/transactions [post]
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.accounts.add_transaction")

	var req models.TransactionInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	tx, err := h.service.AddTransaction(r.Context(), account(r).ID, req)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(tx))
}

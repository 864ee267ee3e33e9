// Package documents реализует HTTP-обработчики метаданных документов.
// Файлы хранятся во внешнем хранилище, сервис знает только путь к ним.
package documents

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
	documentservice "github.com/magabrotheeeer/bizfinance/internal/services/documents"
)

// Resource имя документа в контексте запроса.
const Resource = "document"

// Service операции с документами пользователя.
type Service interface {
	Create(ctx context.Context, userUID string, in models.DocumentInput) (*models.Document, error)
	Get(ctx context.Context, id int64, userUID string) (*models.Document, error)
	List(ctx context.Context, userUID string, kind models.DocumentKind) ([]models.Document, error)
	Delete(ctx context.Context, id int64, userUID string) error
}

// Guard пропускает запрос, только если документ из пути принадлежит пользователю.
func Guard(log *slog.Logger, service Service) func(http.Handler) http.Handler {
	return ownership.Guard(log, ownership.Resource[*models.Document]{
		Name:     Resource,
		Param:    "id",
		Fetch:    service.Get,
		NotFound: documentservice.ErrNotFound,
	})
}

type listFilter struct {
	Kind models.DocumentKind `validate:"omitempty,oneof=contract invoice act tax other"`
}

// Handler обрабатывает запросы к документам.
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

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	if errors.Is(err, documentservice.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("document not found"))
		return
	}
	log.Error("document operation failed", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error("internal server error"))
}

// Create godoc
// @Summary Зарегистрировать документ
// @Tags Documents
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DocumentInput true "Документ"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /documents [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.documents.create")

	var req models.DocumentInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	doc, err := h.service.Create(r.Context(), user.UUID, req)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(doc))
}

// List godoc
// @Summary Список документов
// @Tags Documents
// @Produce  json
// @Security BearerAuth
// @Param kind query string false "Тип документа"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /documents [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.documents.list")

	filter := listFilter{Kind: models.DocumentKind(r.URL.Query().Get("kind"))}
	if err := h.validate.Struct(filter); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		h.fail(w, r, log, err)
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	res, err := h.service.List(r.Context(), user.UUID, filter.Kind)
	if err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Get godoc
// @Summary Получить документ
// @Tags Documents
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /documents/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	doc, _ := ownership.FromContext[*models.Document](r.Context(), Resource)
	render.JSON(w, r, response.OKWithData(doc))
}

// Delete godoc
// @Summary Удалить документ
// @Tags Documents
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /documents/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.documents.delete")
	doc, _ := ownership.FromContext[*models.Document](r.Context(), Resource)
	user, _ := middlewarectx.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), doc.ID, user.UUID); err != nil {
		h.fail(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}

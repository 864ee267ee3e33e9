// Package projects реализует HTTP-обработчики проектов, их этапов и отчета.
//
// Маршруты с {id} закрываются Guard: проект загружается с учетом владельца
// и кладется в контекст. Этапы адресуются только внутри уже проверенного проекта.
package projects

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
	projectservice "github.com/magabrotheeeer/bizfinance/internal/services/projects"
)

// Resource имя ресурса для Guard и контекста.
const Resource = "project"

// Service описывает бизнес-логику проектов.
type Service interface {
	Create(ctx context.Context, userUID string, in models.ProjectInput) (*models.Project, error)
	Get(ctx context.Context, id int64, userUID string) (*models.Project, error)
	List(ctx context.Context, userUID string, limit, offset int) ([]models.Project, error)
	Update(ctx context.Context, id int64, userUID string, in models.ProjectInput) (*models.Project, error)
	Delete(ctx context.Context, id int64, userUID string) error

	CreateMilestone(ctx context.Context, projectID int64, in models.MilestoneInput) (*models.Milestone, error)
	ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in models.MilestoneInput) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, projectID, milestoneID int64) error

	Report(ctx context.Context, p *models.Project) (*models.ProjectReport, error)
}

// Guard проверяет владение проектом из параметра {id}.
func Guard(log *slog.Logger, service Service) func(http.Handler) http.Handler {
	return ownership.Guard(log, ownership.Resource[*models.Project]{
		Name:     Resource,
		Param:    "id",
		Fetch:    service.Get,
		NotFound: projectservice.ErrNotFound,
	})
}

// Handler обрабатывает запросы проектов.
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

func project(r *http.Request) *models.Project {
	p, _ := ownership.FromContext[*models.Project](r.Context(), Resource)
	return p
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	if errors.Is(err, projectservice.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(msg))
		return
	}
	log.Error("project operation failed", sl.Err(err))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.Error("internal server error"))
}

// Create godoc
// @Summary Создать проект
// @Tags Projects
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ProjectInput true "Проект"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /projects [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.create")

	var req models.ProjectInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	p, err := h.service.Create(r.Context(), user.UUID, req)
	if err != nil {
		h.fail(w, r, log, err, "project not found")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(p))
}

// List godoc
// @Summary Список проектов
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /projects [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.list")
	user, _ := middlewarectx.UserFromContext(r.Context())
	limit, offset := request.Pagination(r)

	res, err := h.service.List(r.Context(), user.UUID, limit, offset)
	if err != nil {
		h.fail(w, r, log, err, "project not found")
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// Get godoc
// @Summary Получить проект
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(project(r)))
}

// Update godoc
// @Summary Изменить проект
// @Tags Projects
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Param request body models.ProjectInput true "Проект"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.update")

	var req models.ProjectInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	user, _ := middlewarectx.UserFromContext(r.Context())

	updated, err := h.service.Update(r.Context(), project(r).ID, user.UUID, req)
	if err != nil {
		h.fail(w, r, log, err, "project not found")
		return
	}
	render.JSON(w, r, response.OKWithData(updated))
}

// Delete godoc
// @Summary Удалить проект
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.delete")
	p := project(r)
	user, _ := middlewarectx.UserFromContext(r.Context())

	if err := h.service.Delete(r.Context(), p.ID, user.UUID); err != nil {
		h.fail(w, r, log, err, "project not found")
		return
	}
	log.Info("project deleted", slog.Int64("id", p.ID))
	render.JSON(w, r, response.OK())
}

// Report godoc
// @Summary Денежный отчет по проекту
// @Description Доступен только с активной подпиской.
// @Tags Projects
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "SUBSCRIPTION_REQUIRED"
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id}/report [get]
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.report")

	report, err := h.service.Report(r.Context(), project(r))
	if err != nil {
		h.fail(w, r, log, err, "project not found")
		return
	}
	render.JSON(w, r, response.OKWithData(report))
}

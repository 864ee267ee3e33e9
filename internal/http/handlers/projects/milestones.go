package projects

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bizfinance/internal/http/request"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/models"
)

const milestoneNotFound = "milestone not found"

// ListMilestones godoc
// @Summary Этапы проекта
// @Tags Milestones
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Success 200 {object} response.Response
// @Router /projects/{id}/milestones [get]
func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.milestones.list")

	res, err := h.service.ListMilestones(r.Context(), project(r).ID)
	if err != nil {
		h.fail(w, r, log, err, milestoneNotFound)
		return
	}
	render.JSON(w, r, response.OKWithData(res))
}

// CreateMilestone godoc
// @Summary Добавить этап
// @Tags Milestones
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Param request body models.MilestoneInput true "Этап"
// @Success 201 {object} response.Response
// @Router /projects/{id}/milestones [post]
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.milestones.create")

	var req models.MilestoneInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	m, err := h.service.CreateMilestone(r.Context(), project(r).ID, req)
	if err != nil {
		h.fail(w, r, log, err, milestoneNotFound)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(m))
}

// UpdateMilestone godoc
// @Summary Изменить этап
// @Tags Milestones
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Param milestoneID path int true "ID этапа"
// @Param request body models.MilestoneInput true "Этап"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id}/milestones/{milestoneID} [put]
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.milestones.update")

	milestoneID, ok := request.ID(r, "milestoneID")
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(milestoneNotFound))
		return
	}
	var req models.MilestoneInput
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}

	m, err := h.service.UpdateMilestone(r.Context(), project(r).ID, milestoneID, req)
	if err != nil {
		h.fail(w, r, log, err, milestoneNotFound)
		return
	}
	render.JSON(w, r, response.OKWithData(m))
}

// DeleteMilestone godoc
// @Summary Удалить этап
// @Tags Milestones
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID проекта"
// @Param milestoneID path int true "ID этапа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /projects/{id}/milestones/{milestoneID} [delete]
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.projects.milestones.delete")

	milestoneID, ok := request.ID(r, "milestoneID")
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(milestoneNotFound))
		return
	}
	if err := h.service.DeleteMilestone(r.Context(), project(r).ID, milestoneID); err != nil {
		h.fail(w, r, log, err, milestoneNotFound)
		return
	}
	render.JSON(w, r, response.OK())
}

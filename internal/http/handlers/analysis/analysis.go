// Package analysis отдает разбор налогового документа или договора языковой моделью.
// Доступен только с активной подпиской.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/http/request"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	analysisservice "github.com/magabrotheeeer/bizfinance/internal/services/analysis"
)

// Analyzer отправляет текст документа в модель.
type Analyzer interface {
	Analyze(ctx context.Context, kind analysisservice.Kind, text string) (map[string]any, error)
}

// Request тело запроса на анализ.
type Request struct {
	Kind string `json:"kind" validate:"required,oneof=tax contract"`
	Text string `json:"text" validate:"required,max=50000"`
}

// Handler обрабатывает запросы на анализ документов.
type Handler struct {
	log      *slog.Logger
	analyzer Analyzer
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, analyzer Analyzer) *Handler {
	return &Handler{
		log:      log,
		analyzer: analyzer,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary AI-разбор документа
// @Tags AI
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Тип и текст документа"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.ErrorResponse "SUBSCRIPTION_REQUIRED"
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /ai/analyze [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analysis"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if !request.Bind(w, r, log, h.validate, &req) {
		return
	}
	if user, ok := middlewarectx.UserFromContext(r.Context()); ok {
		log = log.With(slog.String("user_uid", user.UUID))
	}

	result, err := h.analyzer.Analyze(r.Context(), analysisservice.Kind(req.Kind), req.Text)
	switch {
	case errors.Is(err, analysisservice.ErrNotConfigured):
		log.Error("analysis requested without api key")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("ai analysis is not available"))
		return
	case errors.Is(err, analysisservice.ErrUpstream):
		log.Error("ai upstream failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("ai analysis failed"))
		return
	case err != nil:
		log.Error("analysis failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("document analyzed", slog.String("kind", req.Kind))
	render.JSON(w, r, response.OKWithData(result))
}

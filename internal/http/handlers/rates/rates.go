// Package rates отдает курсы валют из кеша.
package rates

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	rateservice "github.com/magabrotheeeer/bizfinance/internal/services/rates"
)

// Service отдает актуальные курсы.
type Service interface {
	Latest(ctx context.Context, symbols []string) (*models.Rates, error)
}

// Handler отдает курсы валют.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Курсы валют
// @Description Обновляются у внешнего API не чаще одного раза за TTL.
// @Tags Rates
// @Produce  json
// @Param symbols query string false "Коды валют через запятую, например USD,EUR"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.ErrorResponse
// @Router /rates [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rates"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var symbols []string
	for _, s := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}

	rates, err := h.service.Latest(r.Context(), symbols)
	if err != nil {
		log.Error("failed to get rates", sl.Err(err))
		if errors.Is(err, rateservice.ErrUpstream) {
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("exchange rates are unavailable"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}
	render.JSON(w, r, response.OKWithData(rates))
}

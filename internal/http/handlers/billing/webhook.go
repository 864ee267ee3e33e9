// Package billing принимает подписанные события платежного провайдера.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/metrics"
	billingservice "github.com/magabrotheeeer/bizfinance/internal/services/billing"
)

const maxPayloadBytes = 64 << 10

// Service применяет событие провайдера к пользователю.
type Service interface {
	Handle(ctx context.Context, ev billingservice.Event) (bool, error)
}

// Handler обрабатывает вебхуки платежного провайдера.
type Handler struct {
	log       *slog.Logger
	service   Service
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// New создает Handler. Пустой secret означает, что вебхуки отключены.
func New(log *slog.Logger, service Service, secret string, tolerance time.Duration) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платежного провайдера
// @Description Подпись в заголовке Stripe-Signature: t=<unix>,v1=<hex hmac-sha256>.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	if h.secret == "" {
		log.Error("webhook secret is not configured")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("billing is not configured"))
		return
	}

	err = billingservice.VerifySignature(r.Header.Get(billingservice.SignatureHeader), body, h.secret, h.tolerance, h.now())
	if err != nil {
		log.Warn("rejected webhook signature", sl.Err(err))
		metrics.BillingEvents.WithLabelValues("unknown", "bad_signature").Inc()
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var ev billingservice.Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.Type == "" {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		metrics.BillingEvents.WithLabelValues("unknown", "malformed").Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event"))
		return
	}
	log = log.With(slog.String("event_id", ev.ID), slog.String("type", ev.Type))

	applied, err := h.service.Handle(r.Context(), ev)
	switch {
	case errors.Is(err, billingservice.ErrMalformedEvent):
		log.Error("malformed event object", sl.Err(err))
		metrics.BillingEvents.WithLabelValues(ev.Type, "malformed").Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("malformed event"))
		return
	case errors.Is(err, billingservice.ErrUnknownCustomer):
		// провайдер будет повторять событие, пока не получит 2xx
		log.Warn("event for unknown customer acknowledged", sl.Err(err))
		metrics.BillingEvents.WithLabelValues(ev.Type, "unknown_customer").Inc()
		render.JSON(w, r, response.OK())
		return
	case err != nil:
		log.Error("failed to process webhook event", sl.Err(err))
		metrics.BillingEvents.WithLabelValues(ev.Type, "error").Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	result := "ignored"
	if applied {
		result = "applied"
	}
	metrics.BillingEvents.WithLabelValues(ev.Type, result).Inc()
	log.Info("webhook processed", slog.String("result", result))
	render.JSON(w, r, response.OK())
}

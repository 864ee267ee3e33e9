package middlewarectx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bizfinance/internal/entitlement"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/metrics"
)

// PremiumMiddleware пропускает только пользователей с премиум-доступом.
// Должен стоять после JWTMiddleware. Отказ: 403 с кодом SUBSCRIPTION_REQUIRED.
func PremiumMiddleware(log *slog.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PremiumMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user missing in context")
				metrics.GateRejections.WithLabelValues(metrics.RejectUnauthenticated).Inc()
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(msgUnauthorized))
				return
			}

			if !entitlement.UserIsPremium(user, now()) {
				log.Info("premium subscription required", slog.String("user_uid", user.UUID))
				metrics.GateRejections.WithLabelValues(metrics.RejectEntitlement).Inc()
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithCode(
					"active subscription required",
					entitlement.CodeSubscriptionRequired,
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

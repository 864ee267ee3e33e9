// Package middlewarectx содержит HTTP middleware, через которые проходит каждый
// защищенный запрос: проверка токена, проверка премиум-доступа и ограничение частоты.
//
// JWTMiddleware проверяет заголовок Authorization, восстанавливает по токену
// актуальную запись пользователя и кладет ее в контекст запроса. Любая причина
// отказа (нет заголовка, плохой токен, пользователь удален) дает клиенту
// одинаковый ответ 401.
package middlewarectx

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
	"github.com/magabrotheeeer/bizfinance/internal/metrics"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ для текущего пользователя в контексте.
const User Key = "user"

const msgUnauthorized = "invalid or expired token"

// Authenticator восстанавливает пользователя по токену.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// WithUser кладет пользователя в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// UserFromContext возвращает пользователя, положенного JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден и пользователь существует, кладет его в контекст запроса,
// иначе возвращает 401. Ошибка хранилища дает 500.
func JWTMiddleware(authenticator Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				log.Warn("missing or invalid authorization header")
				metrics.GateRejections.WithLabelValues(metrics.RejectUnauthenticated).Inc()
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(msgUnauthorized))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), strings.TrimSpace(tokenStr))
			switch {
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound):
				log.Warn("authentication failed", sl.Err(err))
				metrics.GateRejections.WithLabelValues(metrics.RejectUnauthenticated).Inc()
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(msgUnauthorized))
				return
			case err != nil:
				log.Error("failed to resolve session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal server error"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

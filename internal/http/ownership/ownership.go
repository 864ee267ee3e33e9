// Package ownership проверяет, что ресурс из URL принадлежит текущему пользователю.
//
// Ресурс загружается одним запросом, ограниченным и id, и владельцем. Чужой
// и несуществующий ресурс неотличимы: оба дают одинаковый ответ 404.
// Дочерние ресурсы (этапы, операции, позиции чека) проверяются через
// родителя, который Guard кладет в контекст.
package ownership

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bizfinance/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bizfinance/internal/http/response"
	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/metrics"
)

// Resource описывает проверяемый тип ресурса.
type Resource[T any] struct {
	// Name имя ресурса в ответах и логах, например "project".
	Name string
	// Param имя параметра маршрута chi с id ресурса.
	Param string
	// Fetch загружает ресурс по id только среди ресурсов userUID.
	Fetch func(ctx context.Context, id int64, userUID string) (T, error)
	// NotFound ошибка Fetch, означающая отсутствие ресурса у пользователя.
	NotFound error
}

type ctxKey struct{ name string }

// Guard возвращает middleware, который загружает ресурс и кладет его в контекст.
// Должен стоять после JWTMiddleware и, если нужно, после PremiumMiddleware.
func Guard[T any](log *slog.Logger, res Resource[T]) func(http.Handler) http.Handler {
	notFoundMsg := res.Name + " not found"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "ownership.Guard"
			log := log.With(
				slog.String("op", op),
				slog.String("resource", res.Name),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, ok := middlewarectx.UserFromContext(r.Context())
			if !ok {
				log.Error("user missing in context")
				metrics.GateRejections.WithLabelValues(metrics.RejectUnauthenticated).Inc()
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			id, err := strconv.ParseInt(chi.URLParam(r, res.Param), 10, 64)
			if err != nil || id <= 0 {
				log.Info("malformed resource id", slog.String("raw", chi.URLParam(r, res.Param)))
				metrics.GateRejections.WithLabelValues(metrics.RejectNotFound).Inc()
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(notFoundMsg))
				return
			}

			found, err := res.Fetch(r.Context(), id, user.UUID)
			switch {
			case errors.Is(err, res.NotFound):
				log.Info("resource not found for user", slog.Int64("id", id), slog.String("user_uid", user.UUID))
				metrics.GateRejections.WithLabelValues(metrics.RejectNotFound).Inc()
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error(notFoundMsg))
				return
			case err != nil:
				log.Error("failed to load resource", slog.Int64("id", id), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal server error"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithResource(r.Context(), res.Name, found)))
		})
	}
}

// WithResource кладет проверенный ресурс в контекст под именем name.
func WithResource[T any](ctx context.Context, name string, v T) context.Context {
	return context.WithValue(ctx, ctxKey{name}, v)
}

// FromContext возвращает ресурс, проверенный Guard с тем же именем.
func FromContext[T any](ctx context.Context, name string) (T, bool) {
	v, ok := ctx.Value(ctxKey{name}).(T)
	return v, ok
}

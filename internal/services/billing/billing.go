// Package billing применяет события платежного провайдера к подписке пользователя.
//
// Webhook меняет только роль и поля подписки. Доступ к премиум-функциям
// не хранится отдельно и пересчитывается из этих полей на каждом запросе.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// Типы событий, которые меняют подписку.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

var (
	// ErrMalformedEvent тело события не разбирается.
	ErrMalformedEvent = errors.New("malformed billing event")
	// ErrUnknownCustomer событие не удалось сопоставить с пользователем.
	ErrUnknownCustomer = errors.New("billing customer not linked to a user")
)

// Event событие провайдера. Object разбирается в зависимости от Type.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSession struct {
	Customer          string            `json:"customer"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type subscriptionObject struct {
	Customer         string            `json:"customer"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
}

// SubscriptionEvent сообщение, публикуемое после изменения подписки.
type SubscriptionEvent struct {
	EventID   string                    `json:"event_id"`
	EventType string                    `json:"event_type"`
	UserUID   string                    `json:"user_uid"`
	Role      models.Role               `json:"role"`
	Status    models.SubscriptionStatus `json:"status"`
	EndDate   *time.Time                `json:"end_date,omitempty"`
	At        time.Time                 `json:"at"`
}

// UserRepository хранилище пользователей для биллинга.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByBillingCustomer(ctx context.Context, customerID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, userUID string, upd models.SubscriptionUpdate) error
}

// Publisher отправляет событие в шину. Может отсутствовать.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service обработчик событий биллинга.
type Service struct {
	log       *slog.Logger
	users     UserRepository
	publisher Publisher
	now       func() time.Time
}

// New создает сервис. publisher может быть nil.
func New(log *slog.Logger, users UserRepository, publisher Publisher) *Service {
	return &Service{log: log, users: users, publisher: publisher, now: time.Now}
}

// Handle применяет событие. Возвращает false для типов, которые не меняют подписку,
// и для событий старше последнего примененного.
func (s *Service) Handle(ctx context.Context, ev Event) (bool, error) {
	const op = "services.billing.Handle"

	var (
		user *models.User
		upd  models.SubscriptionUpdate
		err  error
	)
	switch ev.Type {
	case EventCheckoutCompleted:
		user, upd, err = s.checkoutCompleted(ctx, ev)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		user, upd, err = s.subscriptionChanged(ctx, ev)
	default:
		s.log.Info("ignored billing event", slog.String("type", ev.Type), slog.String("event_id", ev.ID))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	// developer не зависит от биллинга
	if user.Role == models.RoleDeveloper {
		upd.Role = models.RoleDeveloper
	}

	// провайдер не гарантирует порядок доставки
	if ev.Created > 0 {
		at := time.Unix(ev.Created, 0).UTC()
		upd.EventAt = &at
		if user.BillingEventAt != nil && at.Before(*user.BillingEventAt) {
			s.logStale(ev, user.UUID)
			return false, nil
		}
	}

	err = s.users.UpdateSubscription(ctx, user.UUID, upd)
	switch {
	case errors.Is(err, storage.ErrStaleEvent):
		s.logStale(ev, user.UUID)
		return false, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, fmt.Errorf("%s: %w", op, ErrUnknownCustomer)
	case err != nil:
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription updated",
		slog.String("event_id", ev.ID),
		slog.String("user_uid", user.UUID),
		slog.String("role", string(upd.Role)),
		slog.String("status", string(upd.Status)),
	)

	s.publish(ctx, ev, user.UUID, upd)
	return true, nil
}

func (s *Service) checkoutCompleted(ctx context.Context, ev Event) (*models.User, models.SubscriptionUpdate, error) {
	var obj checkoutSession
	if err := json.Unmarshal(ev.Data.Object, &obj); err != nil {
		return nil, models.SubscriptionUpdate{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	userUID := obj.ClientReferenceID
	if userUID == "" {
		userUID = obj.Metadata["user_uid"]
	}

	var user *models.User
	var err error
	if userUID != "" {
		user, err = s.users.GetUser(ctx, userUID)
	} else if obj.Customer != "" {
		user, err = s.users.GetUserByBillingCustomer(ctx, obj.Customer)
	} else {
		return nil, models.SubscriptionUpdate{}, ErrUnknownCustomer
	}
	if err != nil {
		return nil, models.SubscriptionUpdate{}, lookupError(err)
	}

	upd := models.SubscriptionUpdate{
		Role:   models.RolePaid,
		Status: models.SubscriptionActive,
	}
	if obj.Customer != "" {
		customer := obj.Customer
		upd.BillingCustomerID = &customer
	}
	return user, upd, nil
}

func (s *Service) subscriptionChanged(ctx context.Context, ev Event) (*models.User, models.SubscriptionUpdate, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(ev.Data.Object, &obj); err != nil {
		return nil, models.SubscriptionUpdate{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	var user *models.User
	var err error
	switch {
	case obj.Customer != "":
		user, err = s.users.GetUserByBillingCustomer(ctx, obj.Customer)
		if errors.Is(err, storage.ErrNotFound) && obj.Metadata["user_uid"] != "" {
			user, err = s.users.GetUser(ctx, obj.Metadata["user_uid"])
		}
	case obj.Metadata["user_uid"] != "":
		user, err = s.users.GetUser(ctx, obj.Metadata["user_uid"])
	default:
		return nil, models.SubscriptionUpdate{}, ErrUnknownCustomer
	}
	if err != nil {
		return nil, models.SubscriptionUpdate{}, lookupError(err)
	}

	return user, subscriptionUpdate(ev.Type, obj), nil
}

// subscriptionUpdate переводит статус подписки провайдера в поля пользователя.
func subscriptionUpdate(eventType string, obj subscriptionObject) models.SubscriptionUpdate {
	var end *time.Time
	if obj.CurrentPeriodEnd > 0 {
		t := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
		end = &t
	}

	if eventType == EventSubscriptionDeleted || obj.Status == "canceled" {
		return models.SubscriptionUpdate{Role: models.RoleFree, Status: models.SubscriptionCancelled, EndDate: end}
	}
	switch obj.Status {
	case "active", "trialing":
		return models.SubscriptionUpdate{Role: models.RolePaid, Status: models.SubscriptionActive, EndDate: end}
	default:
		// past_due, unpaid, incomplete и прочие: роль остается, доступа нет
		return models.SubscriptionUpdate{Role: models.RolePaid, Status: models.SubscriptionInactive, EndDate: end}
	}
}

func (s *Service) logStale(ev Event, userUID string) {
	s.log.Info("stale billing event ignored",
		slog.String("event_id", ev.ID),
		slog.String("type", ev.Type),
		slog.String("user_uid", userUID),
	)
}

func lookupError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUnknownCustomer
	}
	return err
}

func (s *Service) publish(ctx context.Context, ev Event, userUID string, upd models.SubscriptionUpdate) {
	if s.publisher == nil {
		return
	}
	msg := SubscriptionEvent{
		EventID:   ev.ID,
		EventType: ev.Type,
		UserUID:   userUID,
		Role:      upd.Role,
		Status:    upd.Status,
		EndDate:   upd.EndDate,
		At:        s.now().UTC(),
	}
	routingKey := "subscription." + string(upd.Status)
	if err := s.publisher.Publish(ctx, routingKey, msg); err != nil {
		s.log.Error("failed to publish billing event", slog.String("event_id", ev.ID), sl.Err(err))
	}
}

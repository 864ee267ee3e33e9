package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

type userRow struct {
	UUID                string     `db:"uid"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	Name                string     `db:"name"`
	BusinessType        string     `db:"business_type"`
	TaxID               string     `db:"tax_id"`
	Role                string     `db:"role"`
	SubscriptionStatus  string     `db:"subscription_status"`
	SubscriptionEndDate *time.Time `db:"subscription_end_date"`
	BillingCustomerID   *string    `db:"billing_customer_id"`
	BillingEventAt      *time.Time `db:"billing_event_at"`
	CreatedAt           time.Time  `db:"created_at"`
}

const userColumns = `uid, email, password_hash, name, business_type, tax_id, role,
	subscription_status, subscription_end_date, billing_customer_id, billing_event_at, created_at`

// toModel собирает доменного пользователя и его тарифный план.
func (r userRow) toModel() *models.User {
	u := &models.User{
		UUID:                r.UUID,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		Name:                r.Name,
		BusinessType:        models.BusinessType(r.BusinessType),
		TaxID:               r.TaxID,
		Role:                models.Role(r.Role),
		SubscriptionStatus:  models.SubscriptionStatus(r.SubscriptionStatus),
		SubscriptionEndDate: r.SubscriptionEndDate,
		BillingCustomerID:   r.BillingCustomerID,
		BillingEventAt:      r.BillingEventAt,
		CreatedAt:           r.CreatedAt,
	}
	u.Plan = models.PlanOf(u.Role, u.SubscriptionStatus, u.SubscriptionEndDate)
	return u
}

// RegisterUser сохраняет нового пользователя и возвращает его UID.
// Email приводится к нижнему регистру; повтор возвращает ErrEmailTaken.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"

	query := `INSERT INTO users (email, password_hash, name, business_type, tax_id, role, subscription_status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	var newID string
	err := s.DB.QueryRowxContext(ctx, query,
		strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.Name,
		user.BusinessType, user.TaxID, user.Role, user.SubscriptionStatus).Scan(&newID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает актуальную запись пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	var row userRow
	err := s.DB.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return row.toModel(), nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	var row userRow
	err := s.DB.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return row.toModel(), nil
}

// GetUserByBillingCustomer возвращает пользователя по идентификатору клиента в биллинге.
func (s *Storage) GetUserByBillingCustomer(ctx context.Context, customerID string) (*models.User, error) {
	const op = "storage.GetUserByBillingCustomer"

	var row userRow
	err := s.DB.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE billing_customer_id = $1`, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return row.toModel(), nil
}

// UpdateProfile обновляет поля профиля пользователя.
func (s *Storage) UpdateProfile(ctx context.Context, userUID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "storage.UpdateProfile"

	var row userRow
	err := s.DB.GetContext(ctx, &row, `UPDATE users
			  SET name = $1, business_type = $2, tax_id = $3
			  WHERE uid = $4
			  RETURNING `+userColumns,
		upd.Name, upd.BusinessType, upd.TaxID, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return row.toModel(), nil
}

// UpdateSubscription меняет роль и поля подписки пользователя.
// Пустой BillingCustomerID оставляет текущее значение. Если EventAt старше
// уже примененного события, строка не меняется и возвращается ErrStaleEvent.
func (s *Storage) UpdateSubscription(ctx context.Context, userUID string, upd models.SubscriptionUpdate) error {
	const op = "storage.UpdateSubscription"

	res, err := s.DB.ExecContext(ctx, `UPDATE users
			  SET role = $1,
			      subscription_status = $2,
			      subscription_end_date = $3,
			      billing_customer_id = COALESCE($4, billing_customer_id),
			      billing_event_at = COALESCE($5, billing_event_at)
			  WHERE uid = $6
			    AND ($5::timestamptz IS NULL OR billing_event_at IS NULL OR billing_event_at <= $5)`,
		upd.Role, upd.Status, upd.EndDate, upd.BillingCustomerID, upd.EventAt, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	err = affected(res)
	if errors.Is(err, ErrNotFound) && upd.EventAt != nil {
		var exists bool
		if qerr := s.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE uid = $1)`, userUID); qerr != nil {
			return fmt.Errorf("%s: %w", op, mapError(qerr))
		}
		if exists {
			err = ErrStaleEvent
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Package models содержит доменные структуры приложения: пользователя,
// его тарифный план и ресурсы, принадлежащие пользователю.
package models

import "time"

// Role роль пользователя.
type Role string

// Роли пользователя.
const (
	RoleFree      Role = "free"
	RolePaid      Role = "paid"
	RoleDeveloper Role = "developer"
)

// SubscriptionStatus статус платной подписки.
type SubscriptionStatus string

// Статусы подписки.
const (
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// BusinessType форма ведения бизнеса.
type BusinessType string

// Формы ведения бизнеса.
const (
	BusinessSoleProprietor BusinessType = "sole_proprietor"
	BusinessCompany        BusinessType = "company"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID                string             `json:"id"`
	Email               string             `json:"email"`
	PasswordHash        string             `json:"-"`
	Name                string             `json:"name"`
	BusinessType        BusinessType       `json:"business_type"`
	TaxID               string             `json:"tax_id"`
	Role                Role               `json:"role"`
	SubscriptionStatus  SubscriptionStatus `json:"subscription_status"`
	SubscriptionEndDate *time.Time         `json:"subscription_end_date,omitempty"`
	BillingCustomerID   *string            `json:"-"`
	BillingEventAt      *time.Time         `json:"-"`
	CreatedAt           time.Time          `json:"created_at"`
	// Plan строится из Role и полей подписки при чтении из хранилища.
	Plan Plan `json:"-"`
}

// ProfileUpdate изменяемые пользователем поля профиля.
type ProfileUpdate struct {
	Name         string       `json:"name" validate:"required,max=200"`
	BusinessType BusinessType `json:"business_type" validate:"required,oneof=sole_proprietor company"`
	TaxID        string       `json:"tax_id" validate:"omitempty,numeric,len=12"`
}

// SubscriptionUpdate изменение полей подписки, приходящее из биллинга.
type SubscriptionUpdate struct {
	Role              Role
	Status            SubscriptionStatus
	EndDate           *time.Time
	BillingCustomerID *string
	// EventAt время события провайдера. Более старое событие не перезаписывает подписку.
	EventAt *time.Time
}

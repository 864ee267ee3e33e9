package models

import "time"

// Plan закрытый набор тарифных состояний пользователя:
// DeveloperPlan, PaidPlan или FreePlan.
type Plan interface {
	isPlan()
}

// DeveloperPlan бессрочный доступ ко всем функциям.
type DeveloperPlan struct{}

// PaidPlan платная подписка со статусом и необязательной датой окончания.
type PaidPlan struct {
	Status SubscriptionStatus
	Expiry *time.Time
}

// FreePlan бесплатный тариф.
type FreePlan struct{}

func (DeveloperPlan) isPlan() {}
func (PaidPlan) isPlan()      {}
func (FreePlan) isPlan()      {}

// PlanOf собирает Plan из полей записи пользователя.
// Неизвестная роль трактуется как бесплатный тариф.
func PlanOf(role Role, status SubscriptionStatus, endDate *time.Time) Plan {
	switch role {
	case RoleDeveloper:
		return DeveloperPlan{}
	case RolePaid:
		return PaidPlan{Status: status, Expiry: endDate}
	default:
		return FreePlan{}
	}
}

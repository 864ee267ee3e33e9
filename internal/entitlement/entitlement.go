// Package entitlement вычисляет право пользователя на премиум-функции.
//
// Право не хранится и не кешируется: оно считается заново на каждом запросе
// из актуальной записи пользователя, поэтому понижение тарифа действует
// начиная со следующего запроса.
package entitlement

import (
	"time"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

// CodeSubscriptionRequired машиночитаемый код отказа, на который опирается клиент.
const CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"

// IsPremium сообщает, есть ли у плана премиум-доступ в момент now.
//
// Платная подписка действует, только если статус active и дата окончания
// не задана или ещё не наступила. Дата окончания проверяется даже при статусе active.
func IsPremium(plan models.Plan, now time.Time) bool {
	switch p := plan.(type) {
	case models.DeveloperPlan:
		return true
	case models.PaidPlan:
		if p.Status != models.SubscriptionActive {
			return false
		}
		return p.Expiry == nil || now.Before(*p.Expiry)
	case models.FreePlan:
		return false
	default:
		return false
	}
}

// UserIsPremium то же, что IsPremium, для записи пользователя.
// Если Plan не заполнен, он собирается из полей пользователя.
func UserIsPremium(u *models.User, now time.Time) bool {
	if u == nil {
		return false
	}
	plan := u.Plan
	if plan == nil {
		plan = models.PlanOf(u.Role, u.SubscriptionStatus, u.SubscriptionEndDate)
	}
	return IsPremium(plan, now)
}

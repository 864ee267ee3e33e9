package models

import "time"

// ProjectStatus статус проекта.
type ProjectStatus string

// Статусы проекта.
const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Project проект пользователя с бюджетом и этапами.
// Бюджет и суммы этапов в минимальных единицах валюты.
type Project struct {
	ID          int64         `json:"id" db:"id"`
	UserUID     string        `json:"-" db:"user_uid"`
	Name        string        `json:"name" db:"name"`
	Client      string        `json:"client" db:"client"`
	Description string        `json:"description" db:"description"`
	Budget      int64         `json:"budget" db:"budget"`
	Currency    string        `json:"currency" db:"currency"`
	Status      ProjectStatus `json:"status" db:"status"`
	StartDate   *time.Time    `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time    `json:"end_date,omitempty" db:"end_date"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// ProjectInput данные проекта из запроса на создание или изменение.
type ProjectInput struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Client      string        `json:"client" validate:"max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Budget      int64         `json:"budget" validate:"gte=0"`
	Currency    string        `json:"currency" validate:"required,len=3,alpha"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=active completed archived"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
}

// Milestone этап проекта. Владелец определяется через проект.
type Milestone struct {
	ID        int64      `json:"id" db:"id"`
	ProjectID int64      `json:"project_id" db:"project_id"`
	Title     string     `json:"title" db:"title"`
	Amount    int64      `json:"amount" db:"amount"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	Paid      bool       `json:"paid" db:"paid"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// MilestoneInput данные этапа из запроса.
type MilestoneInput struct {
	Title   string     `json:"title" validate:"required,max=200"`
	Amount  int64      `json:"amount" validate:"gte=0"`
	DueDate *time.Time `json:"due_date"`
	Paid    bool       `json:"paid"`
}

// ProjectReport сводка по деньгам проекта.
type ProjectReport struct {
	ProjectID       int64   `json:"project_id"`
	Budget          int64   `json:"budget"`
	Currency        string  `json:"currency"`
	MilestonesTotal int64   `json:"milestones_total"`
	Paid            int64   `json:"paid"`
	Unpaid          int64   `json:"unpaid"`
	Unallocated     int64   `json:"unallocated"`
	MilestonesCount int     `json:"milestones_count"`
	ProgressPercent float64 `json:"progress_percent"`
}

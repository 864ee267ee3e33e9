package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

// Этапы не хранят владельца. Владение проверяется на проекте до вызова этих
// методов, а сами этапы выбираются только по project_id.

const milestoneColumns = `id, project_id, title, amount, due_date, paid, created_at`

// CreateMilestone добавляет этап в проект.
func (s *Storage) CreateMilestone(ctx context.Context, projectID int64, in models.MilestoneInput) (*models.Milestone, error) {
	const op = "storage.CreateMilestone"

	var m models.Milestone
	err := s.DB.GetContext(ctx, &m, `INSERT INTO milestones (project_id, title, amount, due_date, paid)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING `+milestoneColumns,
		projectID, in.Title, in.Amount, in.DueDate, in.Paid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &m, nil
}

// ListMilestones возвращает этапы проекта.
func (s *Storage) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	const op = "storage.ListMilestones"

	milestones := make([]models.Milestone, 0)
	err := s.DB.SelectContext(ctx, &milestones, `SELECT `+milestoneColumns+` FROM milestones
			  WHERE project_id = $1
			  ORDER BY due_date NULLS LAST, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return milestones, nil
}

// UpdateMilestone изменяет этап внутри проекта.
func (s *Storage) UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in models.MilestoneInput) (*models.Milestone, error) {
	const op = "storage.UpdateMilestone"

	var m models.Milestone
	err := s.DB.GetContext(ctx, &m, `UPDATE milestones
			  SET title = $1, amount = $2, due_date = $3, paid = $4
			  WHERE id = $5 AND project_id = $6
			  RETURNING `+milestoneColumns,
		in.Title, in.Amount, in.DueDate, in.Paid, milestoneID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &m, nil
}

// DeleteMilestone удаляет этап внутри проекта.
func (s *Storage) DeleteMilestone(ctx context.Context, projectID, milestoneID int64) error {
	const op = "storage.DeleteMilestone"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM milestones WHERE id = $1 AND project_id = $2`, milestoneID, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

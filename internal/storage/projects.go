package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

const projectColumns = `id, user_uid, name, client, description, budget, currency, status,
	start_date, end_date, created_at`

// CreateProject создаёт проект пользователя.
func (s *Storage) CreateProject(ctx context.Context, userUID string, in models.ProjectInput) (*models.Project, error) {
	const op = "storage.CreateProject"

	status := in.Status
	if status == "" {
		status = models.ProjectActive
	}
	var p models.Project
	err := s.DB.GetContext(ctx, &p, `INSERT INTO projects
			      (user_uid, name, client, description, budget, currency, status, start_date, end_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING `+projectColumns,
		userUID, in.Name, in.Client, in.Description, in.Budget, in.Currency, status, in.StartDate, in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// GetProject возвращает проект, если он принадлежит пользователю.
func (s *Storage) GetProject(ctx context.Context, id int64, userUID string) (*models.Project, error) {
	const op = "storage.GetProject"

	var p models.Project
	err := s.DB.GetContext(ctx, &p, `SELECT `+projectColumns+` FROM projects
			  WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// ListProjects возвращает проекты пользователя с пагинацией.
func (s *Storage) ListProjects(ctx context.Context, userUID string, limit, offset int) ([]models.Project, error) {
	const op = "storage.ListProjects"

	projects := make([]models.Project, 0)
	err := s.DB.SelectContext(ctx, &projects, `SELECT `+projectColumns+` FROM projects
			  WHERE user_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return projects, nil
}

// UpdateProject изменяет проект пользователя.
func (s *Storage) UpdateProject(ctx context.Context, id int64, userUID string, in models.ProjectInput) (*models.Project, error) {
	const op = "storage.UpdateProject"

	status := in.Status
	if status == "" {
		status = models.ProjectActive
	}
	var p models.Project
	err := s.DB.GetContext(ctx, &p, `UPDATE projects
			  SET name = $1, client = $2, description = $3, budget = $4, currency = $5,
			      status = $6, start_date = $7, end_date = $8
			  WHERE id = $9 AND user_uid = $10
			  RETURNING `+projectColumns,
		in.Name, in.Client, in.Description, in.Budget, in.Currency, status, in.StartDate, in.EndDate, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &p, nil
}

// DeleteProject удаляет проект пользователя вместе с этапами.
func (s *Storage) DeleteProject(ctx context.Context, id int64, userUID string) error {
	const op = "storage.DeleteProject"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Package projects содержит бизнес-логику проектов пользователя и их этапов.
//
// Проект всегда читается и изменяется в паре (id, userUID). Этапы принадлежат
// проекту и адресуются только через id проекта, поэтому владение проектом
// должно быть проверено до вызова методов этапов.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// ErrNotFound проект или этап не найден либо принадлежит другому пользователю.
var ErrNotFound = errors.New("project not found")

// Repository определяет контракт хранилища проектов.
type Repository interface {
	CreateProject(ctx context.Context, userUID string, in models.ProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id int64, userUID string) (*models.Project, error)
	ListProjects(ctx context.Context, userUID string, limit, offset int) ([]models.Project, error)
	UpdateProject(ctx context.Context, id int64, userUID string, in models.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64, userUID string) error

	CreateMilestone(ctx context.Context, projectID int64, in models.MilestoneInput) (*models.Milestone, error)
	ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error)
	UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in models.MilestoneInput) (*models.Milestone, error)
	DeleteMilestone(ctx context.Context, projectID, milestoneID int64) error
}

// Service бизнес-логика проектов.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает сервис проектов.
func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log}
}

func wrap(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create создает проект. Статус по умолчанию active.
func (s *Service) Create(ctx context.Context, userUID string, in models.ProjectInput) (*models.Project, error) {
	const op = "services.projects.Create"
	if in.Status == "" {
		in.Status = models.ProjectActive
	}
	p, err := s.repo.CreateProject(ctx, userUID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("project created", slog.Int64("id", p.ID), slog.String("user_uid", userUID))
	return p, nil
}

// Get возвращает проект пользователя.
func (s *Service) Get(ctx context.Context, id int64, userUID string) (*models.Project, error) {
	const op = "services.projects.Get"
	p, err := s.repo.GetProject(ctx, id, userUID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// List возвращает страницу проектов пользователя.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]models.Project, error) {
	const op = "services.projects.List"
	res, err := s.repo.ListProjects(ctx, userUID, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// Update заменяет поля проекта.
func (s *Service) Update(ctx context.Context, id int64, userUID string, in models.ProjectInput) (*models.Project, error) {
	const op = "services.projects.Update"
	if in.Status == "" {
		in.Status = models.ProjectActive
	}
	p, err := s.repo.UpdateProject(ctx, id, userUID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	return p, nil
}

// Delete удаляет проект вместе с этапами.
func (s *Service) Delete(ctx context.Context, id int64, userUID string) error {
	const op = "services.projects.Delete"
	if err := s.repo.DeleteProject(ctx, id, userUID); err != nil {
		return wrap(op, err)
	}
	s.log.Info("project deleted", slog.Int64("id", id), slog.String("user_uid", userUID))
	return nil
}

// CreateMilestone добавляет этап в проект.
func (s *Service) CreateMilestone(ctx context.Context, projectID int64, in models.MilestoneInput) (*models.Milestone, error) {
	const op = "services.projects.CreateMilestone"
	m, err := s.repo.CreateMilestone(ctx, projectID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	return m, nil
}

// ListMilestones возвращает этапы проекта.
func (s *Service) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	const op = "services.projects.ListMilestones"
	res, err := s.repo.ListMilestones(ctx, projectID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// UpdateMilestone изменяет этап. Этап чужого проекта не найдется.
func (s *Service) UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in models.MilestoneInput) (*models.Milestone, error) {
	const op = "services.projects.UpdateMilestone"
	m, err := s.repo.UpdateMilestone(ctx, projectID, milestoneID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	return m, nil
}

// DeleteMilestone удаляет этап проекта.
func (s *Service) DeleteMilestone(ctx context.Context, projectID, milestoneID int64) error {
	const op = "services.projects.DeleteMilestone"
	if err := s.repo.DeleteMilestone(ctx, projectID, milestoneID); err != nil {
		return wrap(op, err)
	}
	return nil
}

// Report считает денежную сводку по уже проверенному проекту.
func (s *Service) Report(ctx context.Context, p *models.Project) (*models.ProjectReport, error) {
	const op = "services.projects.Report"
	milestones, err := s.repo.ListMilestones(ctx, p.ID)
	if err != nil {
		s.log.Error("failed to load milestones for report", slog.Int64("project_id", p.ID), sl.Err(err))
		return nil, wrap(op, err)
	}
	report := BuildReport(p, milestones)
	return &report, nil
}

// BuildReport сводит бюджет проекта и суммы этапов.
// Прогресс считается как доля оплаченных этапов от бюджета, не больше 100.
func BuildReport(p *models.Project, milestones []models.Milestone) models.ProjectReport {
	r := models.ProjectReport{
		ProjectID:       p.ID,
		Budget:          p.Budget,
		Currency:        p.Currency,
		MilestonesCount: len(milestones),
	}
	for _, m := range milestones {
		r.MilestonesTotal += m.Amount
		if m.Paid {
			r.Paid += m.Amount
		} else {
			r.Unpaid += m.Amount
		}
	}
	r.Unallocated = max(p.Budget-r.MilestonesTotal, 0)
	if p.Budget > 0 {
		r.ProgressPercent = math.Min(math.Round(float64(r.Paid)*10000/float64(p.Budget))/100, 100)
	}
	return r
}

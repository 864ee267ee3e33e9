package projects

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateProject(ctx context.Context, userUID string, in models.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, userUID, in)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *RepoMock) GetProject(ctx context.Context, id int64, userUID string) (*models.Project, error) {
	args := m.Called(ctx, id, userUID)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *RepoMock) ListProjects(ctx context.Context, userUID string, limit, offset int) ([]models.Project, error) {
	args := m.Called(ctx, userUID, limit, offset)
	p, _ := args.Get(0).([]models.Project)
	return p, args.Error(1)
}

func (m *RepoMock) UpdateProject(ctx context.Context, id int64, userUID string, in models.ProjectInput) (*models.Project, error) {
	args := m.Called(ctx, id, userUID, in)
	p, _ := args.Get(0).(*models.Project)
	return p, args.Error(1)
}

func (m *RepoMock) DeleteProject(ctx context.Context, id int64, userUID string) error {
	return m.Called(ctx, id, userUID).Error(0)
}

func (m *RepoMock) CreateMilestone(ctx context.Context, projectID int64, in models.MilestoneInput) (*models.Milestone, error) {
	args := m.Called(ctx, projectID, in)
	ms, _ := args.Get(0).(*models.Milestone)
	return ms, args.Error(1)
}

func (m *RepoMock) ListMilestones(ctx context.Context, projectID int64) ([]models.Milestone, error) {
	args := m.Called(ctx, projectID)
	ms, _ := args.Get(0).([]models.Milestone)
	return ms, args.Error(1)
}

func (m *RepoMock) UpdateMilestone(ctx context.Context, projectID, milestoneID int64, in models.MilestoneInput) (*models.Milestone, error) {
	args := m.Called(ctx, projectID, milestoneID, in)
	ms, _ := args.Get(0).(*models.Milestone)
	return ms, args.Error(1)
}

func (m *RepoMock) DeleteMilestone(ctx context.Context, projectID, milestoneID int64) error {
	return m.Called(ctx, projectID, milestoneID).Error(0)
}

func newTestService() (*Service, *RepoMock) {
	repo := new(RepoMock)
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo), repo
}

func TestService_CreateDefaultsStatus(t *testing.T) {
	svc, repo := newTestService()
	repo.On("CreateProject", mock.Anything, "uid-1", mock.MatchedBy(func(in models.ProjectInput) bool {
		return in.Status == models.ProjectActive
	})).Return(&models.Project{ID: 1, Status: models.ProjectActive}, nil).Once()

	p, err := svc.Create(context.Background(), "uid-1", models.ProjectInput{Name: "Сайт", Currency: "KZT"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	repo.AssertExpectations(t)
}

func TestService_NotFoundMapping(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		wantErr error
	}{
		{name: "missing or foreign project", repoErr: storage.ErrNotFound, wantErr: ErrNotFound},
		{name: "store failure", repoErr: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			repo.On("DeleteProject", mock.Anything, int64(7), "uid-b").Return(tt.repoErr).Once()

			err := svc.Delete(context.Background(), 7, "uid-b")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NotErrorIs(t, err, ErrNotFound)
				assert.ErrorIs(t, err, tt.repoErr)
			}
		})
	}
}

func TestBuildReport(t *testing.T) {
	tests := []struct {
		name       string
		budget     int64
		milestones []models.Milestone
		want       models.ProjectReport
	}{
		{
			name:   "no milestones",
			budget: 1000,
			want:   models.ProjectReport{Budget: 1000, Unallocated: 1000},
		},
		{
			name:   "paid and unpaid",
			budget: 1000,
			milestones: []models.Milestone{
				{Amount: 300, Paid: true},
				{Amount: 200, Paid: false},
			},
			want: models.ProjectReport{
				Budget: 1000, MilestonesTotal: 500, Paid: 300, Unpaid: 200,
				Unallocated: 500, MilestonesCount: 2, ProgressPercent: 30,
			},
		},
		{
			name:       "overallocated budget",
			budget:     100,
			milestones: []models.Milestone{{Amount: 150, Paid: true}},
			want: models.ProjectReport{
				Budget: 100, MilestonesTotal: 150, Paid: 150,
				MilestonesCount: 1, ProgressPercent: 100,
			},
		},
		{
			name:       "zero budget",
			milestones: []models.Milestone{{Amount: 50, Paid: true}},
			want:       models.ProjectReport{MilestonesTotal: 50, Paid: 50, MilestonesCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildReport(&models.Project{Budget: tt.budget}, tt.milestones)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Report(t *testing.T) {
	svc, repo := newTestService()
	p := &models.Project{ID: 3, Budget: 200, Currency: "KZT"}
	repo.On("ListMilestones", mock.Anything, int64(3)).
		Return([]models.Milestone{{Amount: 100, Paid: true}}, nil).Once()

	r, err := svc.Report(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), r.ProjectID)
	assert.Equal(t, "KZT", r.Currency)
	assert.InDelta(t, 50.0, r.ProgressPercent, 0.001)
}

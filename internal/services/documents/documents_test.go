package documents

import (
	"context"
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

func (m *RepoMock) CreateDocument(ctx context.Context, userUID string, in models.DocumentInput) (*models.Document, error) {
	args := m.Called(ctx, userUID, in)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}

func (m *RepoMock) GetDocument(ctx context.Context, id int64, userUID string) (*models.Document, error) {
	args := m.Called(ctx, id, userUID)
	d, _ := args.Get(0).(*models.Document)
	return d, args.Error(1)
}

func (m *RepoMock) ListDocuments(ctx context.Context, userUID string, kind models.DocumentKind) ([]models.Document, error) {
	args := m.Called(ctx, userUID, kind)
	d, _ := args.Get(0).([]models.Document)
	return d, args.Error(1)
}

func (m *RepoMock) DeleteDocument(ctx context.Context, id int64, userUID string) error {
	return m.Called(ctx, id, userUID).Error(0)
}

func TestService_List(t *testing.T) {
	repo := new(RepoMock)
	svc := New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	docs := []models.Document{{ID: 1, Kind: models.DocumentContract}}
	repo.On("ListDocuments", mock.Anything, "uid-1", models.DocumentContract).Return(docs, nil).Once()

	got, err := svc.List(context.Background(), "uid-1", models.DocumentContract)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestService_GetForeign(t *testing.T) {
	repo := new(RepoMock)
	svc := New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo)
	repo.On("GetDocument", mock.Anything, int64(1), "uid-b").Return(nil, storage.ErrNotFound).Once()

	_, err := svc.Get(context.Background(), 1, "uid-b")
	assert.ErrorIs(t, err, ErrNotFound)
}

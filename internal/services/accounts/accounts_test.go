package accounts

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

func (m *RepoMock) CreateAccount(ctx context.Context, userUID string, in models.BankAccountInput) (*models.BankAccount, error) {
	args := m.Called(ctx, userUID, in)
	a, _ := args.Get(0).(*models.BankAccount)
	return a, args.Error(1)
}

func (m *RepoMock) GetAccount(ctx context.Context, id int64, userUID string) (*models.BankAccount, error) {
	args := m.Called(ctx, id, userUID)
	a, _ := args.Get(0).(*models.BankAccount)
	return a, args.Error(1)
}

func (m *RepoMock) ListAccounts(ctx context.Context, userUID string) ([]models.BankAccount, error) {
	args := m.Called(ctx, userUID)
	a, _ := args.Get(0).([]models.BankAccount)
	return a, args.Error(1)
}

func (m *RepoMock) DeleteAccount(ctx context.Context, id int64, userUID string) error {
	return m.Called(ctx, id, userUID).Error(0)
}

func (m *RepoMock) CreateTransaction(ctx context.Context, accountID int64, in models.TransactionInput) (*models.Transaction, error) {
	args := m.Called(ctx, accountID, in)
	tr, _ := args.Get(0).(*models.Transaction)
	return tr, args.Error(1)
}

func (m *RepoMock) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	tr, _ := args.Get(0).([]models.Transaction)
	return tr, args.Error(1)
}

func newTestService() (*Service, *RepoMock) {
	repo := new(RepoMock)
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), repo), repo
}

func TestService_CreateNormalizesIBAN(t *testing.T) {
	svc, repo := newTestService()
	repo.On("CreateAccount", mock.Anything, "uid-1", models.BankAccountInput{
		BankName: "Kaspi",
		IBAN:     "KZ86125KZT5004100100",
		Currency: "KZT",
	}).Return(&models.BankAccount{ID: 1}, nil).Once()

	_, err := svc.Create(context.Background(), "uid-1", models.BankAccountInput{
		BankName: "Kaspi",
		IBAN:     "kz86 125k zt50 0410 0100",
		Currency: "kzt",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_GetForeignAccount(t *testing.T) {
	svc, repo := newTestService()
	repo.On("GetAccount", mock.Anything, int64(5), "uid-b").Return(nil, storage.ErrNotFound).Once()

	acc, err := svc.Get(context.Background(), 5, "uid-b")
	assert.Nil(t, acc)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_AddTransaction(t *testing.T) {
	svc, repo := newTestService()
	in := models.TransactionInput{Kind: models.TransactionExpense, Amount: 1500}
	repo.On("CreateTransaction", mock.Anything, int64(2), in).
		Return(&models.Transaction{ID: 9, AccountID: 2, Kind: in.Kind, Amount: in.Amount}, nil).Once()

	tr, err := svc.AddTransaction(context.Background(), 2, in)
	require.NoError(t, err)
	assert.Equal(t, int64(9), tr.ID)
	repo.AssertExpectations(t)
}

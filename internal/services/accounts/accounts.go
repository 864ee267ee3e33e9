// Package accounts содержит бизнес-логику банковских счетов и операций по ним.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// ErrNotFound счет не найден или принадлежит другому пользователю.
var ErrNotFound = errors.New("account not found")

// Repository определяет контракт хранилища счетов.
type Repository interface {
	CreateAccount(ctx context.Context, userUID string, in models.BankAccountInput) (*models.BankAccount, error)
	GetAccount(ctx context.Context, id int64, userUID string) (*models.BankAccount, error)
	ListAccounts(ctx context.Context, userUID string) ([]models.BankAccount, error)
	DeleteAccount(ctx context.Context, id int64, userUID string) error
	CreateTransaction(ctx context.Context, accountID int64, in models.TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error)
}

// Service бизнес-логика счетов.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает сервис счетов.
func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log}
}

func wrap(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create заводит счет. IBAN и валюта приводятся к верхнему регистру.
func (s *Service) Create(ctx context.Context, userUID string, in models.BankAccountInput) (*models.BankAccount, error) {
	const op = "services.accounts.Create"
	in.IBAN = strings.ToUpper(strings.ReplaceAll(in.IBAN, " ", ""))
	in.Currency = strings.ToUpper(in.Currency)
	acc, err := s.repo.CreateAccount(ctx, userUID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("account created", slog.Int64("id", acc.ID), slog.String("user_uid", userUID))
	return acc, nil
}

// Get возвращает счет пользователя.
func (s *Service) Get(ctx context.Context, id int64, userUID string) (*models.BankAccount, error) {
	const op = "services.accounts.Get"
	acc, err := s.repo.GetAccount(ctx, id, userUID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return acc, nil
}

// List возвращает все счета пользователя.
func (s *Service) List(ctx context.Context, userUID string) ([]models.BankAccount, error) {
	const op = "services.accounts.List"
	res, err := s.repo.ListAccounts(ctx, userUID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// Delete удаляет счет вместе с операциями.
func (s *Service) Delete(ctx context.Context, id int64, userUID string) error {
	const op = "services.accounts.Delete"
	if err := s.repo.DeleteAccount(ctx, id, userUID); err != nil {
		return wrap(op, err)
	}
	return nil
}

// AddTransaction проводит операцию по уже проверенному счету и меняет его баланс.
func (s *Service) AddTransaction(ctx context.Context, accountID int64, in models.TransactionInput) (*models.Transaction, error) {
	const op = "services.accounts.AddTransaction"
	tr, err := s.repo.CreateTransaction(ctx, accountID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("transaction added",
		slog.Int64("account_id", accountID),
		slog.String("kind", string(tr.Kind)),
		slog.Int64("amount", tr.Amount),
	)
	return tr, nil
}

// ListTransactions возвращает страницу операций по счету, новые сначала.
func (s *Service) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	const op = "services.accounts.ListTransactions"
	res, err := s.repo.ListTransactions(ctx, accountID, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

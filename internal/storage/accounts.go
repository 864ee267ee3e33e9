package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

const accountColumns = `id, user_uid, bank_name, iban, currency, balance, created_at`

// CreateAccount добавляет банковский счёт пользователя.
func (s *Storage) CreateAccount(ctx context.Context, userUID string, in models.BankAccountInput) (*models.BankAccount, error) {
	const op = "storage.CreateAccount"

	var a models.BankAccount
	err := s.DB.GetContext(ctx, &a, `INSERT INTO bank_accounts (user_uid, bank_name, iban, currency, balance)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING `+accountColumns,
		userUID, in.BankName, in.IBAN, in.Currency, in.Balance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &a, nil
}

// GetAccount возвращает счёт, если он принадлежит пользователю.
func (s *Storage) GetAccount(ctx context.Context, id int64, userUID string) (*models.BankAccount, error) {
	const op = "storage.GetAccount"

	var a models.BankAccount
	err := s.DB.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM bank_accounts
			  WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &a, nil
}

// ListAccounts возвращает счета пользователя.
func (s *Storage) ListAccounts(ctx context.Context, userUID string) ([]models.BankAccount, error) {
	const op = "storage.ListAccounts"

	accounts := make([]models.BankAccount, 0)
	err := s.DB.SelectContext(ctx, &accounts, `SELECT `+accountColumns+` FROM bank_accounts
			  WHERE user_uid = $1 ORDER BY id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return accounts, nil
}

// DeleteAccount удаляет счёт пользователя вместе с операциями.
func (s *Storage) DeleteAccount(ctx context.Context, id int64, userUID string) error {
	const op = "storage.DeleteAccount"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM bank_accounts WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const transactionColumns = `id, account_id, kind, amount, description, occurred_at`

// CreateTransaction записывает операцию по счёту и меняет баланс в одной транзакции.
// Счёт к этому моменту уже проверен на владельца.
func (s *Storage) CreateTransaction(ctx context.Context, accountID int64, in models.TransactionInput) (*models.Transaction, error) {
	const op = "storage.CreateTransaction"

	occurredAt := time.Now().UTC()
	if in.OccurredAt != nil {
		occurredAt = *in.OccurredAt
	}
	delta := in.Amount
	if in.Kind == models.TransactionExpense {
		delta = -delta
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var t models.Transaction
	err = tx.GetContext(ctx, &t, `INSERT INTO transactions (account_id, kind, amount, description, occurred_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING `+transactionColumns,
		accountID, in.Kind, in.Amount, in.Description, occurredAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	res, err := tx.ExecContext(ctx, `UPDATE bank_accounts SET balance = balance + $1 WHERE id = $2`, delta, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = affected(res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

// ListTransactions возвращает операции по счёту, новые первыми.
func (s *Storage) ListTransactions(ctx context.Context, accountID int64, limit, offset int) ([]models.Transaction, error) {
	const op = "storage.ListTransactions"

	txs := make([]models.Transaction, 0)
	err := s.DB.SelectContext(ctx, &txs, `SELECT `+transactionColumns+` FROM transactions
			  WHERE account_id = $1
			  ORDER BY occurred_at DESC, id DESC
			  LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return txs, nil
}

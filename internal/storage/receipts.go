package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

const receiptColumns = `id, user_uid, vendor, total, currency, issued_at, created_at`

// CreateReceipt сохраняет чек вместе с позициями.
func (s *Storage) CreateReceipt(ctx context.Context, userUID string, in models.ReceiptInput) (*models.Receipt, error) {
	const op = "storage.CreateReceipt"

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var r models.Receipt
	err = tx.GetContext(ctx, &r, `INSERT INTO receipts (user_uid, vendor, total, currency, issued_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING `+receiptColumns,
		userUID, in.Vendor, in.Total(), in.Currency, in.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	r.Items = make([]models.ReceiptItem, 0, len(in.Items))
	for _, item := range in.Items {
		var ri models.ReceiptItem
		err = tx.GetContext(ctx, &ri, `INSERT INTO receipt_items (receipt_id, name, quantity, price)
				  VALUES ($1, $2, $3, $4)
				  RETURNING id, receipt_id, name, quantity, price`,
			r.ID, item.Name, item.Quantity, item.Price)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.Items = append(r.Items, ri)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// GetReceipt возвращает чек пользователя без позиций.
func (s *Storage) GetReceipt(ctx context.Context, id int64, userUID string) (*models.Receipt, error) {
	const op = "storage.GetReceipt"

	var r models.Receipt
	err := s.DB.GetContext(ctx, &r, `SELECT `+receiptColumns+` FROM receipts
			  WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &r, nil
}

// ListReceiptItems возвращает позиции чека. Владение чеком проверяется до вызова.
func (s *Storage) ListReceiptItems(ctx context.Context, receiptID int64) ([]models.ReceiptItem, error) {
	const op = "storage.ListReceiptItems"

	items := make([]models.ReceiptItem, 0)
	err := s.DB.SelectContext(ctx, &items, `SELECT id, receipt_id, name, quantity, price
			  FROM receipt_items WHERE receipt_id = $1 ORDER BY id`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return items, nil
}

// ListReceipts возвращает чеки пользователя, новые первыми.
func (s *Storage) ListReceipts(ctx context.Context, userUID string, limit, offset int) ([]models.Receipt, error) {
	const op = "storage.ListReceipts"

	receipts := make([]models.Receipt, 0)
	err := s.DB.SelectContext(ctx, &receipts, `SELECT `+receiptColumns+` FROM receipts
			  WHERE user_uid = $1
			  ORDER BY issued_at DESC, id DESC
			  LIMIT $2 OFFSET $3`, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return receipts, nil
}

// DeleteReceipt удаляет чек пользователя вместе с позициями.
func (s *Storage) DeleteReceipt(ctx context.Context, id int64, userUID string) error {
	const op = "storage.DeleteReceipt"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

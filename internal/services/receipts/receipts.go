// Package receipts содержит бизнес-логику чеков и их позиций.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// ErrNotFound чек не найден или принадлежит другому пользователю.
var ErrNotFound = errors.New("receipt not found")

// Repository определяет контракт хранилища чеков.
type Repository interface {
	CreateReceipt(ctx context.Context, userUID string, in models.ReceiptInput) (*models.Receipt, error)
	GetReceipt(ctx context.Context, id int64, userUID string) (*models.Receipt, error)
	ListReceiptItems(ctx context.Context, receiptID int64) ([]models.ReceiptItem, error)
	ListReceipts(ctx context.Context, userUID string, limit, offset int) ([]models.Receipt, error)
	DeleteReceipt(ctx context.Context, id int64, userUID string) error
}

// Service бизнес-логика чеков.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает сервис чеков.
func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log}
}

func wrap(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create сохраняет чек с позициями. Итог считается по позициям.
func (s *Service) Create(ctx context.Context, userUID string, in models.ReceiptInput) (*models.Receipt, error) {
	const op = "services.receipts.Create"
	in.Currency = strings.ToUpper(in.Currency)
	rc, err := s.repo.CreateReceipt(ctx, userUID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("receipt created",
		slog.Int64("id", rc.ID),
		slog.Int("items", len(rc.Items)),
		slog.Int64("total", rc.Total),
	)
	return rc, nil
}

// Get возвращает чек пользователя без позиций.
func (s *Service) Get(ctx context.Context, id int64, userUID string) (*models.Receipt, error) {
	const op = "services.receipts.Get"
	rc, err := s.repo.GetReceipt(ctx, id, userUID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return rc, nil
}

// WithItems дозагружает позиции уже проверенного чека по его id.
func (s *Service) WithItems(ctx context.Context, rc *models.Receipt) (*models.Receipt, error) {
	const op = "services.receipts.WithItems"
	items, err := s.repo.ListReceiptItems(ctx, rc.ID)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := *rc
	out.Items = items
	return &out, nil
}

// List возвращает страницу чеков пользователя.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]models.Receipt, error) {
	const op = "services.receipts.List"
	res, err := s.repo.ListReceipts(ctx, userUID, limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// Delete удаляет чек вместе с позициями.
func (s *Service) Delete(ctx context.Context, id int64, userUID string) error {
	const op = "services.receipts.Delete"
	if err := s.repo.DeleteReceipt(ctx, id, userUID); err != nil {
		return wrap(op, err)
	}
	return nil
}

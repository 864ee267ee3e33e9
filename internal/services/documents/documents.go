// Package documents хранит метаданные документов пользователя.
// Сами файлы лежат во внешнем хранилище, здесь только ссылка на них.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/bizfinance/internal/models"
	"github.com/magabrotheeeer/bizfinance/internal/storage"
)

// ErrNotFound документ не найден или принадлежит другому пользователю.
var ErrNotFound = errors.New("document not found")

// Repository определяет контракт хранилища документов.
type Repository interface {
	CreateDocument(ctx context.Context, userUID string, in models.DocumentInput) (*models.Document, error)
	GetDocument(ctx context.Context, id int64, userUID string) (*models.Document, error)
	ListDocuments(ctx context.Context, userUID string, kind models.DocumentKind) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id int64, userUID string) error
}

// Service бизнес-логика документов.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает сервис документов.
func New(log *slog.Logger, repo Repository) *Service {
	return &Service{repo: repo, log: log}
}

func wrap(op string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Create сохраняет метаданные документа пользователя.
func (s *Service) Create(ctx context.Context, userUID string, in models.DocumentInput) (*models.Document, error) {
	const op = "services.documents.Create"
	doc, err := s.repo.CreateDocument(ctx, userUID, in)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("document registered", slog.Int64("id", doc.ID), slog.String("kind", string(doc.Kind)))
	return doc, nil
}

// Get возвращает документ, если он принадлежит userUID.
func (s *Service) Get(ctx context.Context, id int64, userUID string) (*models.Document, error) {
	const op = "services.documents.Get"
	doc, err := s.repo.GetDocument(ctx, id, userUID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return doc, nil
}

// List возвращает документы пользователя. Пустой kind означает все типы.
func (s *Service) List(ctx context.Context, userUID string, kind models.DocumentKind) ([]models.Document, error) {
	const op = "services.documents.List"
	res, err := s.repo.ListDocuments(ctx, userUID, kind)
	if err != nil {
		return nil, wrap(op, err)
	}
	return res, nil
}

// Delete удаляет документ владельца.
func (s *Service) Delete(ctx context.Context, id int64, userUID string) error {
	const op = "services.documents.Delete"
	if err := s.repo.DeleteDocument(ctx, id, userUID); err != nil {
		return wrap(op, err)
	}
	return nil
}

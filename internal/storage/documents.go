package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bizfinance/internal/models"
)

const documentColumns = `id, user_uid, title, kind, storage_path, content_type, size_bytes, created_at`

// CreateDocument сохраняет метаданные документа.
func (s *Storage) CreateDocument(ctx context.Context, userUID string, in models.DocumentInput) (*models.Document, error) {
	const op = "storage.CreateDocument"

	var d models.Document
	err := s.DB.GetContext(ctx, &d, `INSERT INTO documents (user_uid, title, kind, storage_path, content_type, size_bytes)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING `+documentColumns,
		userUID, in.Title, in.Kind, in.StoragePath, in.ContentType, in.SizeBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &d, nil
}

// GetDocument возвращает документ, если он принадлежит пользователю.
func (s *Storage) GetDocument(ctx context.Context, id int64, userUID string) (*models.Document, error) {
	const op = "storage.GetDocument"

	var d models.Document
	err := s.DB.GetContext(ctx, &d, `SELECT `+documentColumns+` FROM documents
			  WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &d, nil
}

// ListDocuments возвращает документы пользователя, при необходимости одного типа.
func (s *Storage) ListDocuments(ctx context.Context, userUID string, kind models.DocumentKind) ([]models.Document, error) {
	const op = "storage.ListDocuments"

	docs := make([]models.Document, 0)
	err := s.DB.SelectContext(ctx, &docs, `SELECT `+documentColumns+` FROM documents
			  WHERE user_uid = $1 AND ($2::text = '' OR kind = $2::text)
			  ORDER BY created_at DESC, id DESC`, userUID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return docs, nil
}

// DeleteDocument удаляет метаданные документа пользователя.
func (s *Storage) DeleteDocument(ctx context.Context, id int64, userUID string) error {
	const op = "storage.DeleteDocument"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err = affected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

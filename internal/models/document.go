package models

import "time"

// DocumentKind тип документа.
type DocumentKind string

// Типы документов.
const (
	DocumentContract DocumentKind = "contract"
	DocumentInvoice  DocumentKind = "invoice"
	DocumentAct      DocumentKind = "act"
	DocumentTax      DocumentKind = "tax"
	DocumentOther    DocumentKind = "other"
)

// Document метаданные загруженного документа. Сам файл хранится во внешнем хранилище.
type Document struct {
	ID          int64        `json:"id" db:"id"`
	UserUID     string       `json:"-" db:"user_uid"`
	Title       string       `json:"title" db:"title"`
	Kind        DocumentKind `json:"kind" db:"kind"`
	StoragePath string       `json:"storage_path" db:"storage_path"`
	ContentType string       `json:"content_type" db:"content_type"`
	SizeBytes   int64        `json:"size_bytes" db:"size_bytes"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// DocumentInput метаданные документа из запроса.
type DocumentInput struct {
	Title       string       `json:"title" validate:"required,max=300"`
	Kind        DocumentKind `json:"kind" validate:"required,oneof=contract invoice act tax other"`
	StoragePath string       `json:"storage_path" validate:"required,max=1024"`
	ContentType string       `json:"content_type" validate:"required,max=200"`
	SizeBytes   int64        `json:"size_bytes" validate:"gte=0"`
}

package models

import (
	"math"
	"time"
)

// Receipt чек или счёт-фактура пользователя.
// Суммы хранятся в минимальных единицах валюты (тиын, копейки).
type Receipt struct {
	ID        int64         `json:"id" db:"id"`
	UserUID   string        `json:"-" db:"user_uid"`
	Vendor    string        `json:"vendor" db:"vendor"`
	Total     int64         `json:"total" db:"total"`
	Currency  string        `json:"currency" db:"currency"`
	IssuedAt  time.Time     `json:"issued_at" db:"issued_at"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	Items     []ReceiptItem `json:"items,omitempty" db:"-"`
}

// ReceiptItem позиция чека. Владелец определяется через чек.
type ReceiptItem struct {
	ID        int64   `json:"id" db:"id"`
	ReceiptID int64   `json:"receipt_id" db:"receipt_id"`
	Name      string  `json:"name" db:"name"`
	Quantity  float64 `json:"quantity" db:"quantity"`
	Price     int64   `json:"price" db:"price"`
}

// ReceiptInput данные чека из запроса.
type ReceiptInput struct {
	Vendor   string             `json:"vendor" validate:"required,max=200"`
	Currency string             `json:"currency" validate:"required,len=3,alpha"`
	IssuedAt time.Time          `json:"issued_at" validate:"required"`
	Items    []ReceiptItemInput `json:"items" validate:"dive"`
}

// ReceiptItemInput позиция чека из запроса.
type ReceiptItemInput struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Price    int64   `json:"price" validate:"gte=0"`
}

// LineTotal стоимость позиции, округленная до минимальной единицы.
func (in ReceiptItemInput) LineTotal() int64 {
	return int64(math.Round(in.Quantity * float64(in.Price)))
}

// Total сумма по позициям.
func (in ReceiptInput) Total() int64 {
	var total int64
	for _, item := range in.Items {
		total += item.LineTotal()
	}
	return total
}

package models

import "time"

// BankAccount банковский счёт пользователя. Баланс в минимальных единицах валюты.
type BankAccount struct {
	ID        int64     `json:"id" db:"id"`
	UserUID   string    `json:"-" db:"user_uid"`
	BankName  string    `json:"bank_name" db:"bank_name"`
	IBAN      string    `json:"iban" db:"iban"`
	Currency  string    `json:"currency" db:"currency"`
	Balance   int64     `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BankAccountInput данные счёта из запроса.
type BankAccountInput struct {
	BankName string  `json:"bank_name" validate:"required,max=200"`
	IBAN     string  `json:"iban" validate:"required,alphanum,min=15,max=34"`
	Currency string  `json:"currency" validate:"required,len=3,alpha"`
	Balance  int64   `json:"balance"`
}

// TransactionKind направление движения денег.
type TransactionKind string

// Направления движения денег.
const (
	TransactionIncome  TransactionKind = "income"
	TransactionExpense TransactionKind = "expense"
)

// Transaction операция по счёту. Владелец определяется через счёт.
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	AccountID   int64           `json:"account_id" db:"account_id"`
	Kind        TransactionKind `json:"kind" db:"kind"`
	Amount      int64           `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	OccurredAt  time.Time       `json:"occurred_at" db:"occurred_at"`
}

// TransactionInput данные операции из запроса.
type TransactionInput struct {
	Kind        TransactionKind `json:"kind" validate:"required,oneof=income expense"`
	Amount      int64           `json:"amount" validate:"gt=0"`
	Description string          `json:"description" validate:"max=500"`
	OccurredAt  *time.Time      `json:"occurred_at"`
}

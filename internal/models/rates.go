package models

import "time"

// Rates курсы валют относительно базовой валюты.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	UpdatedAt time.Time          `json:"updated_at"`
	FetchedAt time.Time          `json:"fetched_at"`
}

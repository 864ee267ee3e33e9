package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReceiptInput_Total(t *testing.T) {
	tests := []struct {
		name  string
		items []ReceiptItemInput
		want  int64
	}{
		{name: "empty", want: 0},
		{
			name: "whole quantities",
			items: []ReceiptItemInput{
				{Name: "Бумага", Quantity: 2, Price: 150000},
				{Name: "Ручки", Quantity: 1, Price: 70000},
			},
			want: 370000,
		},
		{
			// 0.1 + 0.2 в float дает 0.30000000000000004, в тиынах сумма точная
			name: "tenths add up exactly",
			items: []ReceiptItemInput{
				{Name: "a", Quantity: 1, Price: 10},
				{Name: "b", Quantity: 1, Price: 20},
			},
			want: 30,
		},
		{
			name:  "fractional quantity rounds per line",
			items: []ReceiptItemInput{{Name: "Бензин АИ-92", Quantity: 12.345, Price: 25550}},
			want:  315415,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReceiptInput{Items: tt.items}.Total())
		})
	}
}

package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DateGroup holds the records of one calendar day, newest first.
type DateGroup struct {
	Date    string   `json:"date"`
	Records []Record `json:"records"`
}

// CategoryGroup is one category with its records grouped per day,
// days ordered newest first.
type CategoryGroup struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Dates    []DateGroup     `json:"dates"`
}

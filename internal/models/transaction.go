package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether money came in or went out
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// Transaction represents a historical cash movement. Rows are written by ingestion and read-only here.
type Transaction struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Direction Direction       `json:"direction"`
	SegmentID *int64          `json:"segment_id,omitempty"`
	Paid      bool            `json:"paid"`
	AgingDays int             `json:"aging_days"`
}

// MonthlyFlow holds aggregated inflow and outflow for one calendar month
type MonthlyFlow struct {
	Month   time.Time       `json:"month"` // first day of the month, UTC
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
}

// Net returns inflow minus outflow
func (m MonthlyFlow) Net() decimal.Decimal {
	return m.Inflow.Sub(m.Outflow)
}

// Segment is a business unit transactions can be attributed to
type Segment struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

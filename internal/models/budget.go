package models

import "time"

// BudgetType represents the archetype of a monthly budget
type BudgetType string

const (
	BudgetTypeBalanced BudgetType = "Balanced"
	BudgetTypeSaving   BudgetType = "Saving"
	BudgetTypeDebt     BudgetType = "Debt"
)

// TrackedBudgetTypes are the budget types auto-provisioned every month.
var TrackedBudgetTypes = []BudgetType{BudgetTypeBalanced, BudgetTypeSaving, BudgetTypeDebt}

// Budget represents a named monthly bucket against which transactions are tallied.
// At most one live budget exists per (user, type, month); the store enforces
// this with a partial unique index on (user_id, type, month_start).
type Budget struct {
	Base
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Type        BudgetType `gorm:"not null;default:'Balanced'" json:"type"`
	MonthStart  time.Time  `gorm:"not null;index" json:"month_start"`

	// Aggregates populated at query time from linked transactions
	TotalIncome    float64 `gorm:"-" json:"total_income"`
	TotalSpent     float64 `gorm:"-" json:"total_spent"`
	TotalRemaining float64 `gorm:"-" json:"total_remaining"`
	PercentSpent   float64 `gorm:"-" json:"percent_spent"`

	// Relationships
	User         *User               `gorm:"foreignKey:UserID" json:"-"`
	Transactions []BudgetTransaction `gorm:"foreignKey:BudgetID" json:"transactions,omitempty"`
}

// MonthOf truncates t to the first instant of its calendar month in UTC.
func MonthOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BudgetTransaction links a transaction to a budget with an allocated amount.
// One transaction may be attributed, with independent amounts, to several
// concurrently active monthly budgets.
type BudgetTransaction struct {
	Base
	BudgetID      string  `gorm:"type:uuid;not null;index" json:"budget_id"`
	TransactionID string  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        float64 `gorm:"not null" json:"amount"`

	Budget      *Budget      `gorm:"foreignKey:BudgetID" json:"-"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}

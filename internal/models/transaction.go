package models

// TransactionType represents the nature of a transaction. The type is stored
// on the transaction row at write time; classification never requires joining
// the detail tables.
type TransactionType string

const (
	TransactionTypeIncome      TransactionType = "income"
	TransactionTypeExpense     TransactionType = "expense"
	TransactionTypeDebtPayment TransactionType = "debt_payment"
)

// Transaction represents a single financial event. Exactly one typed detail
// record (Income, Expense or DebtPayment) exists per transaction and carries
// the amount; the date of attribution lives on the budget links.
type Transaction struct {
	Base
	Description string          `json:"description"`
	Category    string          `gorm:"not null" json:"category"`
	Type        TransactionType `gorm:"not null" json:"type"`

	// Amount is populated at query time from the typed detail record
	Amount float64 `gorm:"-" json:"amount"`

	// Relationships
	BudgetLinks []BudgetTransaction `gorm:"foreignKey:TransactionID" json:"budget_links,omitempty"`
	Income      *Income             `gorm:"foreignKey:TransactionID" json:"income,omitempty"`
	Expense     *Expense            `gorm:"foreignKey:TransactionID" json:"expense,omitempty"`
	DebtPayment *DebtPayment        `gorm:"foreignKey:TransactionID" json:"debt_payment,omitempty"`
}

// Income is the typed detail of an income transaction.
type Income struct {
	Base
	TransactionID string  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        float64 `gorm:"not null;default:0" json:"amount"`
	Source        string  `json:"source,omitempty"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

// Expense is the typed detail of an expense transaction.
type Expense struct {
	Base
	TransactionID string  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Amount        float64 `gorm:"not null;default:0" json:"amount"`
	Description   string  `json:"description,omitempty"`

	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

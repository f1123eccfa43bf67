package models

import "time"

// DebtStatus represents the repayment state of a debt or a single payment
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "pending"
	DebtStatusPaid    DebtStatus = "paid"
	DebtStatusOverdue DebtStatus = "overdue"
)

// PaymentFrequency represents how often installments on a debt are due
type PaymentFrequency string

const (
	PaymentFrequencyWeekly    PaymentFrequency = "weekly"
	PaymentFrequencyBiweekly  PaymentFrequency = "biweekly"
	PaymentFrequencyMonthly   PaymentFrequency = "monthly"
	PaymentFrequencyQuarterly PaymentFrequency = "quarterly"
	PaymentFrequencyYearly    PaymentFrequency = "yearly"
)

// Advance returns t moved forward by n payment intervals.
func (f PaymentFrequency) Advance(t time.Time, n int) time.Time {
	switch f {
	case PaymentFrequencyWeekly:
		return t.AddDate(0, 0, 7*n)
	case PaymentFrequencyBiweekly:
		return t.AddDate(0, 0, 14*n)
	case PaymentFrequencyMonthly:
		return t.AddDate(0, n, 0)
	case PaymentFrequencyQuarterly:
		return t.AddDate(0, 3*n, 0)
	case PaymentFrequencyYearly:
		return t.AddDate(n, 0, 0)
	}
	return t
}

// Debt represents money owed to a creditor, repaid in installments.
type Debt struct {
	Base
	UserID           string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Creditor         string           `gorm:"not null" json:"creditor"`
	Amount           float64          `gorm:"not null;default:0" json:"amount"`
	Description      string           `json:"description,omitempty"`
	DueDate          time.Time        `gorm:"not null" json:"due_date"`
	Status           DebtStatus       `gorm:"not null;default:'pending'" json:"status"`
	InstallmentCount int              `gorm:"not null;default:0" json:"installment_count"`
	MinimumPayment   float64          `gorm:"not null;default:0" json:"minimum_payment"`
	InterestRate     float64          `gorm:"not null;default:0" json:"interest_rate"`
	PaymentFrequency PaymentFrequency `gorm:"not null;default:'monthly'" json:"payment_frequency"`

	// Derived from payment history and frequency, never stored
	NextPaymentDate         *time.Time `gorm:"-" json:"next_payment_date,omitempty"`
	EstimatedCompletionDate *time.Time `gorm:"-" json:"estimated_completion_date,omitempty"`

	// Relationships
	User     *User         `gorm:"foreignKey:UserID" json:"-"`
	Payments []DebtPayment `gorm:"foreignKey:DebtID" json:"payments,omitempty"`
}

// DebtPayment records a single installment paid toward a debt. It is the
// typed detail of a debt_payment transaction.
type DebtPayment struct {
	Base
	DebtID            string     `gorm:"type:uuid;not null;index" json:"debt_id"`
	TransactionID     string     `gorm:"type:uuid;not null;index" json:"transaction_id"`
	PaymentDate       time.Time  `gorm:"not null" json:"payment_date"`
	AmountPaid        float64    `gorm:"not null;default:0" json:"amount_paid"`
	InstallmentNumber int        `gorm:"not null;default:0" json:"installment_number"`
	Status            DebtStatus `gorm:"not null;default:'pending'" json:"status"`

	Debt        *Debt        `gorm:"foreignKey:DebtID" json:"-"`
	Transaction *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
}

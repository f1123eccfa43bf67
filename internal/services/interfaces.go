package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// RecordInput carries everything needed to record a single transaction.
// Source is only meaningful for income transactions.
type RecordInput struct {
	Type        models.TransactionType
	Amount      float64
	Category    string
	Description string
	Source      string
}

// ValueSummary is a month-over-month view of a single spending bucket.
type ValueSummary struct {
	CurrentMonth  float64 `json:"current_month"`
	PreviousMonth float64 `json:"previous_month"`
	Growth        float64 `json:"growth"`
}

// Summary aggregates a user's financial activity across all buckets.
type Summary struct {
	Income  ValueSummary `json:"income"`
	Expense ValueSummary `json:"expense"`
	Saving  ValueSummary `json:"saving"`
	Debt    ValueSummary `json:"debt"`
}

// LinkedTransaction is a transaction as seen from inside a budget,
// carrying the amount attributed to that budget.
type LinkedTransaction struct {
	TransactionID string                 `json:"transaction_id"`
	Type          models.TransactionType `json:"type"`
	Category      string                 `json:"category"`
	Description   string                 `json:"description"`
	Amount        float64                `json:"amount"`
	CreatedAt     time.Time              `json:"created_at"`
}

// BudgetDetail is a budget with its aggregates computed and its
// linked transactions expanded.
type BudgetDetail struct {
	models.Budget
	Transactions []LinkedTransaction `json:"transactions"`
}

type BudgetServicer interface {
	CreateBudget(userID, name, description string, budgetType models.BudgetType) (*models.Budget, error)
	EnsureMonthlyBudgets(userID string, asOf time.Time) ([]models.Budget, error)
	EnsureMonthlyBudgetsWithDB(tx *gorm.DB, userID string, asOf time.Time) ([]models.Budget, error)
	GetUserBudgets(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetDetail(userID, budgetID string) (*BudgetDetail, error)
	UpdateBudget(userID, budgetID, name, description string) (*BudgetDetail, error)
	DeleteBudget(userID, budgetID string) error
}

type TransactionServicer interface {
	RecordTransaction(userID string, in RecordInput) (*models.Transaction, error)
	RecordTransactionWithDB(tx *gorm.DB, userID string, in RecordInput) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetUserSummary(userID string) (*Summary, error)
}

type IncomeServicer interface {
	CreateIncome(userID string, amount float64, source string) (*models.Income, error)
	GetIncomeByID(userID, incomeID string) (*models.Income, error)
	GetUserIncomes(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Income], error)
}

type ExpenseServicer interface {
	CreateExpense(userID string, amount float64, category, description string) (*models.Expense, error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	GetUserExpenses(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
}

// CreateDebtInput describes a new debt obligation.
type CreateDebtInput struct {
	Creditor         string
	Amount           float64
	Description      string
	DueDate          time.Time
	InstallmentCount int
	MinimumPayment   float64
	InterestRate     float64
	PaymentFrequency models.PaymentFrequency
}

// UpdateDebtInput carries the mutable fields of a debt. Nil fields are
// left unchanged.
type UpdateDebtInput struct {
	Creditor       *string
	Description    *string
	Status         *models.DebtStatus
	MinimumPayment *float64
	InterestRate   *float64
}

// DebtPaymentInput describes a payment made against a debt.
type DebtPaymentInput struct {
	DebtID            string
	AmountPaid        float64
	PaymentDate       time.Time
	InstallmentNumber int
	Status            models.DebtStatus
}

type DebtServicer interface {
	CreateDebt(userID string, in CreateDebtInput) (*models.Debt, error)
	GetDebtByID(userID, debtID string) (*models.Debt, error)
	GetUserDebts(userID string, status *models.DebtStatus, params pagination.PageRequest) (*pagination.PageResponse[models.Debt], error)
	UpdateDebt(userID, debtID string, in UpdateDebtInput) (*models.Debt, error)
	DeleteDebt(userID, debtID string) error
	RecordDebtPayment(userID string, in DebtPaymentInput) (*models.DebtPayment, error)
	GetDebtPayment(userID, debtID, paymentID string) (*models.DebtPayment, error)
	GetDebtPayments(userID, debtID string, params pagination.PageRequest) (*pagination.PageResponse[models.DebtPayment], error)
}

type AIServicer interface {
	HumanQuery(ctx context.Context, question string) (string, error)
	Recommendation(ctx context.Context, userID string, budgetType models.BudgetType) (string, error)
}

type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
	GetUserLogs(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}

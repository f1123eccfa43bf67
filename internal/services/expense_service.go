package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	db           *gorm.DB
	transactions TransactionServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, transactions TransactionServicer) ExpenseServicer {
	return &expenseService{db: db, transactions: transactions}
}

// CreateExpense records an expense transaction and returns its detail record.
func (s *expenseService) CreateExpense(userID string, amount float64, category, description string) (*models.Expense, error) {
	if category == "" {
		category = "Expense"
	}
	transaction, err := s.transactions.RecordTransaction(userID, RecordInput{
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Category:    category,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	return transaction.Expense, nil
}

// GetExpenseByID returns a single expense owned by the user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := s.userExpenses(userID).
		Where("expenses.id = ?", expenseID).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// GetUserExpenses returns the user's expenses, newest first.
func (s *expenseService) GetUserExpenses(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	params.Defaults()

	var total int64
	if err := s.userExpenses(userID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	err := s.userExpenses(userID).
		Order("expenses.created_at DESC").
		Scopes(pagination.Paginate(params)).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(expenses, params.Page, params.PageSize, total)
	return &resp, nil
}

// userExpenses scopes expenses to a user through the Balanced budget links of
// their parent transactions.
func (s *expenseService) userExpenses(userID string) *gorm.DB {
	return s.db.Model(&models.Expense{}).
		Joins("JOIN transactions ON transactions.id = expenses.transaction_id AND transactions.deleted_at IS NULL").
		Joins("JOIN budget_transactions ON budget_transactions.transaction_id = transactions.id AND budget_transactions.deleted_at IS NULL").
		Joins("JOIN budgets ON budgets.id = budget_transactions.budget_id").
		Where("budgets.user_id = ? AND budgets.type = ?", userID, models.BudgetTypeBalanced)
}

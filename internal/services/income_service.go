package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// incomeService handles income-related business logic.
type incomeService struct {
	db           *gorm.DB
	transactions TransactionServicer
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB, transactions TransactionServicer) IncomeServicer {
	return &incomeService{db: db, transactions: transactions}
}

// CreateIncome records an income transaction and returns its detail record.
func (s *incomeService) CreateIncome(userID string, amount float64, source string) (*models.Income, error) {
	transaction, err := s.transactions.RecordTransaction(userID, RecordInput{
		Type:        models.TransactionTypeIncome,
		Amount:      amount,
		Category:    "Income",
		Description: source,
		Source:      source,
	})
	if err != nil {
		return nil, err
	}
	return transaction.Income, nil
}

// GetIncomeByID returns a single income owned by the user.
func (s *incomeService) GetIncomeByID(userID, incomeID string) (*models.Income, error) {
	var income models.Income
	err := s.userIncomes(userID).
		Where("incomes.id = ?", incomeID).
		First(&income).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// GetUserIncomes returns the user's incomes, newest first.
func (s *incomeService) GetUserIncomes(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Income], error) {
	params.Defaults()

	var total int64
	if err := s.userIncomes(userID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	err := s.userIncomes(userID).
		Order("incomes.created_at DESC").
		Scopes(pagination.Paginate(params)).
		Find(&incomes).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(incomes, params.Page, params.PageSize, total)
	return &resp, nil
}

// userIncomes scopes incomes to a user through the Balanced budget links of
// their parent transactions.
func (s *incomeService) userIncomes(userID string) *gorm.DB {
	return s.db.Model(&models.Income{}).
		Joins("JOIN transactions ON transactions.id = incomes.transaction_id AND transactions.deleted_at IS NULL").
		Joins("JOIN budget_transactions ON budget_transactions.transaction_id = transactions.id AND budget_transactions.deleted_at IS NULL").
		Joins("JOIN budgets ON budgets.id = budget_transactions.budget_id").
		Where("budgets.user_id = ? AND budgets.type = ?", userID, models.BudgetTypeBalanced)
}

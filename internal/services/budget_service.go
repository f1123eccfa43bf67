package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a budget of the given type for the current month.
func (s *budgetService) CreateBudget(userID, name, description string, budgetType models.BudgetType) (*models.Budget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}

	budget := &models.Budget{
		UserID:      userID,
		Name:        name,
		Description: description,
		Type:        budgetType,
		MonthStart:  models.MonthOf(time.Now()),
	}

	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.WithMessage(apperrors.ErrBudgetExists,
				fmt.Sprintf("a %s budget already exists for this month", budgetType))
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

// EnsureMonthlyBudgets makes sure the user has one budget of every tracked
// type for the month containing asOf, creating only the missing ones.
func (s *budgetService) EnsureMonthlyBudgets(userID string, asOf time.Time) ([]models.Budget, error) {
	return s.EnsureMonthlyBudgetsWithDB(s.db, userID, asOf)
}

// EnsureMonthlyBudgetsWithDB is EnsureMonthlyBudgets running against the given
// handle, so callers already inside a transaction can provision atomically.
func (s *budgetService) EnsureMonthlyBudgetsWithDB(tx *gorm.DB, userID string, asOf time.Time) ([]models.Budget, error) {
	monthStart := models.MonthOf(asOf)

	var existing []models.Budget
	if err := tx.Where("user_id = ? AND month_start = ?", userID, monthStart).
		Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	have := make(map[models.BudgetType]bool, len(existing))
	for _, b := range existing {
		have[b.Type] = true
	}

	for _, t := range models.TrackedBudgetTypes {
		if have[t] {
			continue
		}
		budget := models.Budget{
			UserID:      userID,
			Name:        fmt.Sprintf("Budget for %s", monthStart.Format("January 2006")),
			Description: fmt.Sprintf("%s Spending Summary", monthStart.Format("January 2006")),
			Type:        t,
			MonthStart:  monthStart,
		}
		if err := tx.Create(&budget).Error; err != nil {
			// Someone else provisioned this type concurrently; fetch theirs.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if err := tx.Where("user_id = ? AND type = ? AND month_start = ?", userID, t, monthStart).
					First(&budget).Error; err != nil {
					return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				existing = append(existing, budget)
				continue
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		existing = append(existing, budget)
	}

	return existing, nil
}

// GetUserBudgets returns the user's budgets, newest month first, with
// aggregates filled in.
func (s *budgetService) GetUserBudgets(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	params.Defaults()

	var total int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := s.db.Where("user_id = ?", userID).
		Order("month_start DESC, type ASC").
		Scopes(pagination.Paginate(params)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.fillAggregates(budgets); err != nil {
		return nil, err
	}

	resp := pagination.NewPageResponse(budgets, params.Page, params.PageSize, total)
	return &resp, nil
}

// GetBudgetDetail returns a single budget with aggregates and its linked
// transactions.
func (s *budgetService) GetBudgetDetail(userID, budgetID string) (*BudgetDetail, error) {
	var budget models.Budget
	err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	detail := &BudgetDetail{Budget: budget}

	err = s.db.Model(&models.BudgetTransaction{}).
		Select("budget_transactions.transaction_id, transactions.type, transactions.category, transactions.description, budget_transactions.amount, budget_transactions.created_at").
		Joins("JOIN transactions ON transactions.id = budget_transactions.transaction_id AND transactions.deleted_at IS NULL").
		Where("budget_transactions.budget_id = ?", budgetID).
		Order("budget_transactions.created_at DESC").
		Scan(&detail.Transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, t := range detail.Transactions {
		if t.Type == models.TransactionTypeIncome {
			detail.TotalIncome += t.Amount
		} else {
			detail.TotalSpent += t.Amount
		}
	}
	detail.TotalRemaining = detail.TotalIncome - detail.TotalSpent
	if detail.TotalIncome > 0 {
		detail.PercentSpent = detail.TotalSpent / detail.TotalIncome * 100
	}

	return detail, nil
}

// UpdateBudget updates a budget's name and description. Type and month are
// immutable once created.
func (s *budgetService) UpdateBudget(userID, budgetID, name, description string) (*BudgetDetail, error) {
	var budget models.Budget
	err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if len(updates) > 0 {
		if err := s.db.Model(&budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetDetail(userID, budgetID)
}

// DeleteBudget soft deletes a budget. Its transaction links remain for the
// history of the underlying transactions.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	result := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// fillAggregates computes query-time totals for a page of budgets in a
// single grouped query.
func (s *budgetService) fillAggregates(budgets []models.Budget) error {
	if len(budgets) == 0 {
		return nil
	}

	ids := make([]string, len(budgets))
	for i, b := range budgets {
		ids[i] = b.ID
	}

	type row struct {
		BudgetID    string
		TotalIncome float64
		TotalSpent  float64
	}
	var rows []row

	err := s.db.Model(&models.BudgetTransaction{}).
		Select("budget_transactions.budget_id, "+
			"COALESCE(SUM(CASE WHEN transactions.type = ? THEN budget_transactions.amount ELSE 0 END), 0) AS total_income, "+
			"COALESCE(SUM(CASE WHEN transactions.type <> ? THEN budget_transactions.amount ELSE 0 END), 0) AS total_spent",
			models.TransactionTypeIncome, models.TransactionTypeIncome).
		Joins("JOIN transactions ON transactions.id = budget_transactions.transaction_id AND transactions.deleted_at IS NULL").
		Where("budget_transactions.budget_id IN ?", ids).
		Group("budget_transactions.budget_id").
		Scan(&rows).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byID := make(map[string]row, len(rows))
	for _, r := range rows {
		byID[r.BudgetID] = r
	}

	for i := range budgets {
		r := byID[budgets[i].ID]
		budgets[i].TotalIncome = r.TotalIncome
		budgets[i].TotalSpent = r.TotalSpent
		budgets[i].TotalRemaining = r.TotalIncome - r.TotalSpent
		if r.TotalIncome > 0 {
			budgets[i].PercentSpent = r.TotalSpent / r.TotalIncome * 100
		}
	}

	return nil
}

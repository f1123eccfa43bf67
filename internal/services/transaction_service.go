package services

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/config"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db      *gorm.DB
	cfg     *config.Config
	budgets BudgetServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, cfg *config.Config, budgets BudgetServicer) TransactionServicer {
	return &transactionService{db: db, cfg: cfg, budgets: budgets}
}

// RecordTransaction records an income or expense transaction, provisioning
// the month's budgets and attributing the amount to them, all atomically.
// Debt payments go through DebtServicer.RecordDebtPayment instead.
func (s *transactionService) RecordTransaction(userID string, in RecordInput) (*models.Transaction, error) {
	if in.Type != models.TransactionTypeIncome && in.Type != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = s.RecordTransactionWithDB(tx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// RecordTransactionWithDB records a transaction inside an existing database
// transaction. It is the single write path for all transaction types; the
// debt payment flow calls it with its own surrounding transaction.
func (s *transactionService) RecordTransactionWithDB(tx *gorm.DB, userID string, in RecordInput) (*models.Transaction, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if in.Category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}

	budgets, err := s.budgets.EnsureMonthlyBudgetsWithDB(tx, userID, time.Now())
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		Description: in.Description,
		Category:    in.Category,
		Type:        in.Type,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	switch in.Type {
	case models.TransactionTypeIncome:
		income := &models.Income{
			TransactionID: transaction.ID,
			Amount:        in.Amount,
			Source:        in.Source,
		}
		if err := tx.Create(income).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.Income = income
	case models.TransactionTypeExpense:
		expense := &models.Expense{
			TransactionID: transaction.ID,
			Amount:        in.Amount,
			Description:   in.Description,
		}
		if err := tx.Create(expense).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.Expense = expense
	case models.TransactionTypeDebtPayment:
		// The caller creates the DebtPayment detail in the same transaction.
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}

	byType := make(map[models.BudgetType]models.Budget, len(budgets))
	for _, b := range budgets {
		byType[b.Type] = b
	}

	for _, t := range s.attributedTypes(in.Type) {
		budget, ok := byType[t]
		if !ok {
			continue
		}
		link := &models.BudgetTransaction{
			BudgetID:      budget.ID,
			TransactionID: transaction.ID,
			Amount:        in.Amount,
		}
		if err := tx.Create(link).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.BudgetLinks = append(transaction.BudgetLinks, *link)
	}

	transaction.Amount = in.Amount
	return transaction, nil
}

// attributedTypes returns the budget types a transaction's amount is
// attributed to under the configured policy. Every policy includes Balanced,
// which keeps per-user transaction listings free of duplicates.
func (s *transactionService) attributedTypes(t models.TransactionType) []models.BudgetType {
	if s.cfg.Attribution == config.AttributionMatched {
		switch t {
		case models.TransactionTypeIncome:
			return []models.BudgetType{models.BudgetTypeBalanced, models.BudgetTypeSaving}
		case models.TransactionTypeExpense:
			return []models.BudgetType{models.BudgetTypeBalanced}
		case models.TransactionTypeDebtPayment:
			return []models.BudgetType{models.BudgetTypeBalanced, models.BudgetTypeDebt}
		}
	}
	return models.TrackedBudgetTypes
}

// GetTransactionByID returns a transaction owned by the user, with its
// amount populated.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.userTransactions(userID).
		Where("transactions.id = ?", transactionID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.populateAmounts(&transaction); err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetUserTransactions returns the user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, params pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	params.Defaults()

	var total int64
	if err := s.userTransactions(userID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err := s.userTransactions(userID).
		Order("transactions.created_at DESC").
		Scopes(pagination.Paginate(params)).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ptrs := make([]*models.Transaction, len(transactions))
	for i := range transactions {
		ptrs[i] = &transactions[i]
	}
	if err := s.populateAmounts(ptrs...); err != nil {
		return nil, err
	}

	resp := pagination.NewPageResponse(transactions, params.Page, params.PageSize, total)
	return &resp, nil
}

// userTransactions scopes transactions to a user through their Balanced
// budget links. Transactions carry no user column; ownership flows through
// budgets, and every transaction is linked to exactly one Balanced budget.
func (s *transactionService) userTransactions(userID string) *gorm.DB {
	return s.db.Model(&models.Transaction{}).
		Joins("JOIN budget_transactions ON budget_transactions.transaction_id = transactions.id AND budget_transactions.deleted_at IS NULL").
		Joins("JOIN budgets ON budgets.id = budget_transactions.budget_id").
		Where("budgets.user_id = ? AND budgets.type = ?", userID, models.BudgetTypeBalanced)
}

// populateAmounts fills the query-time Amount field from the typed detail
// tables for a batch of transactions.
func (s *transactionService) populateAmounts(transactions ...*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	ids := make([]string, len(transactions))
	for i, t := range transactions {
		ids[i] = t.ID
	}

	type row struct {
		TransactionID string
		Amount        float64
	}
	amounts := make(map[string]float64, len(ids))

	for _, detail := range []interface{}{&models.Income{}, &models.Expense{}, &models.DebtPayment{}} {
		var rows []row
		q := s.db.Model(detail).Where("transaction_id IN ?", ids)
		if _, ok := detail.(*models.DebtPayment); ok {
			q = q.Select("transaction_id, amount_paid AS amount")
		} else {
			q = q.Select("transaction_id, amount")
		}
		if err := q.Scan(&rows).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, r := range rows {
			amounts[r.TransactionID] = r.Amount
		}
	}

	for _, t := range transactions {
		t.Amount = amounts[t.ID]
	}
	return nil
}

// GetUserSummary aggregates the user's income, expenses, savings and debt for
// the current and previous calendar months.
func (s *transactionService) GetUserSummary(userID string) (*Summary, error) {
	now := time.Now()
	currentStart := models.MonthOf(now)
	previousStart := currentStart.AddDate(0, -1, 0)

	income, err := s.sumDetail(userID, &models.Income{}, "incomes", "amount", currentStart, previousStart)
	if err != nil {
		return nil, err
	}
	expense, err := s.sumDetail(userID, &models.Expense{}, "expenses", "amount", currentStart, previousStart)
	if err != nil {
		return nil, err
	}
	debt, err := s.sumDebts(userID, currentStart, previousStart)
	if err != nil {
		return nil, err
	}

	savingCurrent := income.current - expense.current
	savingPrevious := income.previous - expense.previous

	return &Summary{
		Income: ValueSummary{
			CurrentMonth:  income.current,
			PreviousMonth: income.previous,
			Growth:        growth(income.previous, income.current),
		},
		Expense: ValueSummary{
			CurrentMonth:  expense.current,
			PreviousMonth: expense.previous,
			Growth:        growth(expense.previous, expense.current),
		},
		Saving: ValueSummary{
			CurrentMonth:  savingCurrent,
			PreviousMonth: savingPrevious,
			Growth:        growth(savingPrevious, savingCurrent),
		},
		Debt: ValueSummary{
			CurrentMonth:  debt.current,
			PreviousMonth: debt.previous,
			Growth:        growth(debt.previous, debt.current),
		},
	}, nil
}

type monthTotals struct {
	current  float64
	previous float64
}

// sumDetail buckets a detail table's amounts into current and previous month
// totals for one user, scoped through the Balanced budget links.
func (s *transactionService) sumDetail(userID string, model interface{}, table, amountCol string, currentStart, previousStart time.Time) (monthTotals, error) {
	var row struct {
		CurrentTotal  float64
		PreviousTotal float64
	}

	err := s.db.Model(model).
		Select("COALESCE(SUM(CASE WHEN "+table+".created_at >= ? THEN "+table+"."+amountCol+" ELSE 0 END), 0) AS current_total, "+
			"COALESCE(SUM(CASE WHEN "+table+".created_at >= ? AND "+table+".created_at < ? THEN "+table+"."+amountCol+" ELSE 0 END), 0) AS previous_total",
			currentStart, previousStart, currentStart).
		Joins("JOIN transactions ON transactions.id = "+table+".transaction_id AND transactions.deleted_at IS NULL").
		Joins("JOIN budget_transactions ON budget_transactions.transaction_id = transactions.id AND budget_transactions.deleted_at IS NULL").
		Joins("JOIN budgets ON budgets.id = budget_transactions.budget_id").
		Where("budgets.user_id = ? AND budgets.type = ?", userID, models.BudgetTypeBalanced).
		Scan(&row).Error
	if err != nil {
		return monthTotals{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return monthTotals{current: row.CurrentTotal, previous: row.PreviousTotal}, nil
}

// sumDebts buckets newly incurred debt amounts into current and previous
// month totals.
func (s *transactionService) sumDebts(userID string, currentStart, previousStart time.Time) (monthTotals, error) {
	var row struct {
		CurrentTotal  float64
		PreviousTotal float64
	}

	err := s.db.Model(&models.Debt{}).
		Select("COALESCE(SUM(CASE WHEN created_at >= ? THEN amount ELSE 0 END), 0) AS current_total, "+
			"COALESCE(SUM(CASE WHEN created_at >= ? AND created_at < ? THEN amount ELSE 0 END), 0) AS previous_total",
			currentStart, previousStart, currentStart).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return monthTotals{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return monthTotals{current: row.CurrentTotal, previous: row.PreviousTotal}, nil
}

// growth returns the month-over-month change in percent. A bucket appearing
// from zero counts as 100% growth, a net loss from zero as -100%, and two
// empty months as no change.
func growth(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		if current < 0 {
			return -100
		}
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Fullname: fmt.Sprintf("Test User %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a budget of the given type for the current month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string, budgetType models.BudgetType) *models.Budget {
	t.Helper()
	return CreateTestBudgetForMonth(t, db, userID, budgetType, models.MonthOf(time.Now()))
}

// CreateTestBudgetForMonth creates a budget of the given type for an
// arbitrary month.
func CreateTestBudgetForMonth(t *testing.T, db *gorm.DB, userID string, budgetType models.BudgetType, monthStart time.Time) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		Name:       fmt.Sprintf("Test %s Budget %d", budgetType, nextID()),
		Type:       budgetType,
		MonthStart: monthStart,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestTransaction creates a transaction of the given type with its
// detail record and links it to the given budgets.
func CreateTestTransaction(t *testing.T, db *gorm.DB, txType models.TransactionType, amount float64, budgets ...*models.Budget) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Category:    "Test",
		Type:        txType,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}

	switch txType {
	case models.TransactionTypeIncome:
		income := &models.Income{TransactionID: tx.ID, Amount: amount, Source: "Test"}
		if err := db.Create(income).Error; err != nil {
			t.Fatalf("failed to create test income: %v", err)
		}
		tx.Income = income
	case models.TransactionTypeExpense:
		expense := &models.Expense{TransactionID: tx.ID, Amount: amount, Description: "Test"}
		if err := db.Create(expense).Error; err != nil {
			t.Fatalf("failed to create test expense: %v", err)
		}
		tx.Expense = expense
	}

	for _, budget := range budgets {
		link := &models.BudgetTransaction{
			BudgetID:      budget.ID,
			TransactionID: tx.ID,
			Amount:        amount,
		}
		if err := db.Create(link).Error; err != nil {
			t.Fatalf("failed to link test transaction to budget: %v", err)
		}
		tx.BudgetLinks = append(tx.BudgetLinks, *link)
	}

	return tx
}

// CreateTestDebt creates a pending monthly debt with the given amount and
// installment count, due 30 days from now.
func CreateTestDebt(t *testing.T, db *gorm.DB, userID string, amount float64, installments int) *models.Debt {
	t.Helper()

	debt := &models.Debt{
		UserID:           userID,
		Creditor:         fmt.Sprintf("Test Creditor %d", nextID()),
		Amount:           amount,
		DueDate:          time.Now().AddDate(0, 0, 30),
		Status:           models.DebtStatusPending,
		InstallmentCount: installments,
		PaymentFrequency: models.PaymentFrequencyMonthly,
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("failed to create test debt: %v", err)
	}
	return debt
}

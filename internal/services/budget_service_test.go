package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func TestCreateBudget(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, "My Savings", "rainy day fund", models.BudgetTypeSaving)
		testutil.AssertNoError(t, err)

		if budget.ID == "" {
			t.Fatal("expected non-empty budget ID")
		}
		if budget.Name != "My Savings" {
			t.Errorf("expected name My Savings, got %s", budget.Name)
		}
		if budget.Type != models.BudgetTypeSaving {
			t.Errorf("expected type Saving, got %s", budget.Type)
		}
		if !budget.MonthStart.Equal(models.MonthOf(time.Now())) {
			t.Errorf("expected month start %v, got %v", models.MonthOf(time.Now()), budget.MonthStart)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateBudget(user.ID, "", "", models.BudgetTypeBalanced)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_type_same_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateBudget(user.ID, "First", "", models.BudgetTypeBalanced)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateBudget(user.ID, "Second", "", models.BudgetTypeBalanced)
		testutil.AssertAppError(t, err, "BUDGET_EXISTS")
	})

	t.Run("recreate_after_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budget, err := svc.CreateBudget(user.ID, "First", "", models.BudgetTypeBalanced)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

		_, err = svc.CreateBudget(user.ID, "Second", "", models.BudgetTypeBalanced)
		testutil.AssertNoError(t, err)
	})
}

func TestEnsureMonthlyBudgets(t *testing.T) {
	t.Run("creates_all_tracked_types", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		budgets, err := svc.EnsureMonthlyBudgets(user.ID, time.Now())
		testutil.AssertNoError(t, err)

		if len(budgets) != 3 {
			t.Fatalf("expected 3 budgets, got %d", len(budgets))
		}
		seen := map[models.BudgetType]bool{}
		for _, b := range budgets {
			seen[b.Type] = true
		}
		for _, typ := range models.TrackedBudgetTypes {
			if !seen[typ] {
				t.Errorf("missing budget of type %s", typ)
			}
		}
	})

	t.Run("names_budgets_after_the_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		asOf := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
		budgets, err := svc.EnsureMonthlyBudgets(user.ID, asOf)
		testutil.AssertNoError(t, err)

		for _, b := range budgets {
			if b.Name != "Budget for August 2026" {
				t.Errorf("expected name Budget for August 2026, got %q", b.Name)
			}
			if b.Description != "August 2026 Spending Summary" {
				t.Errorf("expected description August 2026 Spending Summary, got %q", b.Description)
			}
		}
	})

	t.Run("second_call_creates_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.EnsureMonthlyBudgets(user.ID, time.Now())
		testutil.AssertNoError(t, err)
		second, err := svc.EnsureMonthlyBudgets(user.ID, time.Now())
		testutil.AssertNoError(t, err)

		if len(second) != len(first) {
			t.Errorf("expected %d budgets on second call, got %d", len(first), len(second))
		}

		var count int64
		if err := db.Model(&models.Budget{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 budgets in store, got %d", count)
		}
	})

	t.Run("fills_in_missing_types_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		existing := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		budgets, err := svc.EnsureMonthlyBudgets(user.ID, time.Now())
		testutil.AssertNoError(t, err)

		if len(budgets) != 3 {
			t.Fatalf("expected 3 budgets, got %d", len(budgets))
		}
		for _, b := range budgets {
			if b.Type == models.BudgetTypeBalanced && b.ID != existing.ID {
				t.Error("existing Balanced budget was replaced instead of kept")
			}
		}
	})

	t.Run("separate_months_are_independent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.EnsureMonthlyBudgets(user.ID, time.Now())
		testutil.AssertNoError(t, err)
		_, err = svc.EnsureMonthlyBudgets(user.ID, time.Now().AddDate(0, 1, 0))
		testutil.AssertNoError(t, err)

		var count int64
		if err := db.Model(&models.Budget{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 6 {
			t.Errorf("expected 6 budgets across two months, got %d", count)
		}
	})
}

func TestGetBudgetDetail(t *testing.T) {
	t.Run("computes_aggregates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		testutil.CreateTestTransaction(t, db, models.TransactionTypeIncome, 100, budget)
		testutil.CreateTestTransaction(t, db, models.TransactionTypeExpense, 30, budget)
		testutil.CreateTestTransaction(t, db, models.TransactionTypeExpense, 20, budget)

		detail, err := svc.GetBudgetDetail(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		if detail.TotalIncome != 100 {
			t.Errorf("expected total income 100, got %f", detail.TotalIncome)
		}
		if detail.TotalSpent != 50 {
			t.Errorf("expected total spent 50, got %f", detail.TotalSpent)
		}
		if detail.TotalRemaining != 50 {
			t.Errorf("expected total remaining 50, got %f", detail.TotalRemaining)
		}
		if detail.PercentSpent != 50 {
			t.Errorf("expected percent spent 50, got %f", detail.PercentSpent)
		}
		if len(detail.Transactions) != 3 {
			t.Errorf("expected 3 linked transactions, got %d", len(detail.Transactions))
		}
	})

	t.Run("debt_payments_count_as_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		testutil.CreateTestTransaction(t, db, models.TransactionTypeExpense, 30, budget)
		testutil.CreateTestTransaction(t, db, models.TransactionTypeDebtPayment, 20, budget)

		detail, err := svc.GetBudgetDetail(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		if detail.TotalSpent != 50 {
			t.Errorf("expected total spent 50, got %f", detail.TotalSpent)
		}
	})

	t.Run("zero_income_means_zero_percent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		testutil.CreateTestTransaction(t, db, models.TransactionTypeExpense, 40, budget)

		detail, err := svc.GetBudgetDetail(user.ID, budget.ID)
		testutil.AssertNoError(t, err)

		if detail.PercentSpent != 0 {
			t.Errorf("expected percent spent 0 with no income, got %f", detail.PercentSpent)
		}
		if detail.TotalRemaining != -40 {
			t.Errorf("expected total remaining -40, got %f", detail.TotalRemaining)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetBudgetDetail(user.ID, "b7a7e3f2-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})

	t.Run("other_users_budget_is_invisible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID, models.BudgetTypeBalanced)

		_, err := svc.GetBudgetDetail(intruder.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetUserBudgets(t *testing.T) {
	t.Run("returns_user_budgets_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		testutil.CreateTestBudget(t, db, user1.ID, models.BudgetTypeBalanced)
		testutil.CreateTestBudget(t, db, user1.ID, models.BudgetTypeSaving)
		testutil.CreateTestBudget(t, db, user2.ID, models.BudgetTypeBalanced)

		result, err := svc.GetUserBudgets(user1.ID, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 2 {
			t.Errorf("expected 2 budgets, got %d", result.TotalItems)
		}
	})

	t.Run("fills_aggregates_per_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		testutil.CreateTestTransaction(t, db, models.TransactionTypeIncome, 200, budget)
		testutil.CreateTestTransaction(t, db, models.TransactionTypeExpense, 75.50, budget)

		result, err := svc.GetUserBudgets(user.ID, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 1 {
			t.Fatalf("expected 1 budget, got %d", len(result.Data))
		}
		got := result.Data[0]
		if got.TotalIncome != 200 {
			t.Errorf("expected total income 200, got %f", got.TotalIncome)
		}
		if got.TotalSpent != 75.50 {
			t.Errorf("expected total spent 75.50, got %f", got.TotalSpent)
		}
	})
}

func TestUpdateBudget(t *testing.T) {
	t.Run("updates_name_and_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		updated, err := svc.UpdateBudget(user.ID, budget.ID, "Renamed", "new description")
		testutil.AssertNoError(t, err)

		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
		if updated.Description != "new description" {
			t.Errorf("expected updated description, got %s", updated.Description)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateBudget(user.ID, "b7a7e3f2-0000-7000-8000-000000000000", "x", "")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("soft_deleted_budget_is_invisible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID, models.BudgetTypeBalanced)

		testutil.AssertNoError(t, svc.DeleteBudget(user.ID, budget.ID))

		_, err := svc.GetBudgetDetail(user.ID, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		result, err := svc.GetUserBudgets(user.ID, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 0 {
			t.Errorf("expected no visible budgets, got %d", result.TotalItems)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteBudget(user.ID, "b7a7e3f2-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

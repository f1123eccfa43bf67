package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/testutil"
)

func newDebtService(db *gorm.DB) DebtServicer {
	return NewDebtService(db, newTransactionService(db, config.AttributionUniform))
}

func TestCreateDebt(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
		debt, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Car Loans Inc",
			Amount:           12000,
			DueDate:          due,
			InstallmentCount: 12,
			PaymentFrequency: models.PaymentFrequencyMonthly,
		})
		testutil.AssertNoError(t, err)

		if debt.Status != models.DebtStatusPending {
			t.Errorf("expected status pending, got %s", debt.Status)
		}
		if debt.EstimatedCompletionDate == nil {
			t.Fatal("expected estimated completion date")
		}
		want := due.AddDate(0, 11, 0)
		if !debt.EstimatedCompletionDate.Equal(want) {
			t.Errorf("expected completion %v, got %v", want, debt.EstimatedCompletionDate)
		}
	})

	t.Run("defaults_to_monthly_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		debt, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           500,
			DueDate:          time.Now().AddDate(0, 1, 0),
			InstallmentCount: 1,
		})
		testutil.AssertNoError(t, err)

		if debt.PaymentFrequency != models.PaymentFrequencyMonthly {
			t.Errorf("expected monthly frequency, got %s", debt.PaymentFrequency)
		}
	})

	t.Run("rejects_invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateDebt(user.ID, CreateDebtInput{Amount: 500, InstallmentCount: 1})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateDebt(user.ID, CreateDebtInput{Creditor: "Bank", Amount: 0, InstallmentCount: 1})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateDebt(user.ID, CreateDebtInput{Creditor: "Bank", Amount: 500})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetDebtByID(t *testing.T) {
	t.Run("derives_next_payment_from_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		due := time.Date(2027, 3, 10, 0, 0, 0, 0, time.UTC)
		created, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           300,
			DueDate:          due,
			InstallmentCount: 3,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.RecordDebtPayment(user.ID, DebtPaymentInput{
			DebtID:     created.ID,
			AmountPaid: 100,
		})
		testutil.AssertNoError(t, err)

		debt, err := svc.GetDebtByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if debt.NextPaymentDate == nil {
			t.Fatal("expected next payment date")
		}
		want := due.AddDate(0, 1, 0)
		if !debt.NextPaymentDate.Equal(want) {
			t.Errorf("expected next payment %v, got %v", want, debt.NextPaymentDate)
		}
	})

	t.Run("past_due_pending_debt_reads_as_overdue", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		created, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           300,
			DueDate:          time.Now().AddDate(0, 0, -10),
			InstallmentCount: 3,
		})
		testutil.AssertNoError(t, err)

		debt, err := svc.GetDebtByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if debt.Status != models.DebtStatusOverdue {
			t.Errorf("expected derived status overdue, got %s", debt.Status)
		}
	})

	t.Run("other_users_debt_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		debt := testutil.CreateTestDebt(t, db, owner.ID, 100, 1)

		_, err := svc.GetDebtByID(intruder.ID, debt.ID)
		testutil.AssertAppError(t, err, "DEBT_NOT_FOUND")
	})
}

func TestGetUserDebts(t *testing.T) {
	t.Run("filters_by_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.CreateTestDebt(t, db, user.ID, 100, 1)
		paid := testutil.CreateTestDebt(t, db, user.ID, 200, 1)
		if err := db.Model(paid).Update("status", models.DebtStatusPaid).Error; err != nil {
			t.Fatalf("failed to mark debt paid: %v", err)
		}

		status := models.DebtStatusPaid
		result, err := svc.GetUserDebts(user.ID, &status, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Errorf("expected 1 paid debt, got %d", result.TotalItems)
		}
	})
}

func TestRecordDebtPayment(t *testing.T) {
	t.Run("writes_payment_transaction_and_links", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		debt, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           300,
			DueDate:          time.Now().AddDate(0, 1, 0),
			InstallmentCount: 3,
		})
		testutil.AssertNoError(t, err)

		payment, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{
			DebtID:            debt.ID,
			AmountPaid:        100,
			InstallmentNumber: 1,
		})
		testutil.AssertNoError(t, err)

		if payment.Status != models.DebtStatusPaid {
			t.Errorf("expected payment status paid, got %s", payment.Status)
		}

		var transaction models.Transaction
		if err := db.First(&transaction, "id = ?", payment.TransactionID).Error; err != nil {
			t.Fatalf("expected transaction for payment: %v", err)
		}
		if transaction.Type != models.TransactionTypeDebtPayment {
			t.Errorf("expected transaction type debt_payment, got %s", transaction.Type)
		}

		var links int64
		if err := db.Model(&models.BudgetTransaction{}).
			Where("transaction_id = ?", payment.TransactionID).
			Count(&links).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if links != 3 {
			t.Errorf("expected 3 budget links for payment, got %d", links)
		}
	})

	t.Run("marks_debt_paid_after_final_installment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		debt, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           200,
			DueDate:          time.Now().AddDate(0, 1, 0),
			InstallmentCount: 2,
		})
		testutil.AssertNoError(t, err)

		for i := 1; i <= 2; i++ {
			_, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{
				DebtID:            debt.ID,
				AmountPaid:        100,
				InstallmentNumber: i,
			})
			testutil.AssertNoError(t, err)
		}

		got, err := svc.GetDebtByID(user.ID, debt.ID)
		testutil.AssertNoError(t, err)
		if got.Status != models.DebtStatusPaid {
			t.Errorf("expected debt status paid, got %s", got.Status)
		}
		if got.NextPaymentDate != nil {
			t.Errorf("expected no next payment date, got %v", got.NextPaymentDate)
		}
	})

	t.Run("rejects_unknown_debt", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{
			DebtID:     "b7a7e3f2-0000-7000-8000-000000000000",
			AmountPaid: 100,
		})
		testutil.AssertAppError(t, err, "DEBT_NOT_FOUND")
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)
		debt := testutil.CreateTestDebt(t, db, user.ID, 100, 1)

		_, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{DebtID: debt.ID, AmountPaid: 0})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetDebtPayments(t *testing.T) {
	t.Run("lists_payment_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		debt, err := svc.CreateDebt(user.ID, CreateDebtInput{
			Creditor:         "Bank",
			Amount:           300,
			DueDate:          time.Now().AddDate(0, 1, 0),
			InstallmentCount: 3,
		})
		testutil.AssertNoError(t, err)

		for i := 1; i <= 2; i++ {
			_, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{
				DebtID:            debt.ID,
				AmountPaid:        100,
				InstallmentNumber: i,
			})
			testutil.AssertNoError(t, err)
		}

		result, err := svc.GetDebtPayments(user.ID, debt.ID, pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 payments, got %d", result.TotalItems)
		}
	})

	t.Run("unknown_debt", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetDebtPayments(user.ID, "b7a7e3f2-0000-7000-8000-000000000000", pagination.PageRequest{Page: 1, PageSize: 20})
		testutil.AssertAppError(t, err, "DEBT_NOT_FOUND")
	})
}

func TestGetDebtPayment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		user := testutil.CreateTestUser(t, db)
		debt := testutil.CreateTestDebt(t, db, user.ID, 300, 3)

		created, err := svc.RecordDebtPayment(user.ID, DebtPaymentInput{
			DebtID:            debt.ID,
			AmountPaid:        100,
			InstallmentNumber: 1,
		})
		testutil.AssertNoError(t, err)

		got, err := svc.GetDebtPayment(user.ID, debt.ID, created.ID)
		testutil.AssertNoError(t, err)
		if got.AmountPaid != 100 {
			t.Errorf("expected amount paid 100, got %f", got.AmountPaid)
		}
	})

	t.Run("other_users_payment_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newDebtService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		debt := testutil.CreateTestDebt(t, db, owner.ID, 300, 3)

		created, err := svc.RecordDebtPayment(owner.ID, DebtPaymentInput{
			DebtID:     debt.ID,
			AmountPaid: 100,
		})
		testutil.AssertNoError(t, err)

		_, err = svc.GetDebtPayment(intruder.ID, debt.ID, created.ID)
		testutil.AssertAppError(t, err, "DEBT_PAYMENT_NOT_FOUND")
	})
}

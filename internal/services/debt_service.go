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

// debtService handles debt-related business logic.
type debtService struct {
	db           *gorm.DB
	transactions TransactionServicer
}

// NewDebtService creates a new DebtServicer.
func NewDebtService(db *gorm.DB, transactions TransactionServicer) DebtServicer {
	return &debtService{db: db, transactions: transactions}
}

// CreateDebt creates a new debt obligation for a user.
func (s *debtService) CreateDebt(userID string, in CreateDebtInput) (*models.Debt, error) {
	if in.Creditor == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "creditor is required")
	}
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be positive")
	}
	if in.InstallmentCount < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "installment count must be at least 1")
	}
	if in.PaymentFrequency == "" {
		in.PaymentFrequency = models.PaymentFrequencyMonthly
	}

	debt := &models.Debt{
		UserID:           userID,
		Creditor:         in.Creditor,
		Amount:           in.Amount,
		Description:      in.Description,
		DueDate:          in.DueDate,
		Status:           models.DebtStatusPending,
		InstallmentCount: in.InstallmentCount,
		MinimumPayment:   in.MinimumPayment,
		InterestRate:     in.InterestRate,
		PaymentFrequency: in.PaymentFrequency,
	}

	if err := s.db.Create(debt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.deriveSchedule(debt)
	return debt, nil
}

// GetDebtByID returns a single debt owned by the user, with its payment
// history and derived schedule dates.
func (s *debtService) GetDebtByID(userID, debtID string) (*models.Debt, error) {
	var debt models.Debt
	err := s.db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("debt_payments.payment_date ASC")
	}).Where("id = ? AND user_id = ?", debtID, userID).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.deriveSchedule(&debt)
	return &debt, nil
}

// GetUserDebts returns the user's debts, optionally filtered by status,
// newest first.
func (s *debtService) GetUserDebts(userID string, status *models.DebtStatus, params pagination.PageRequest) (*pagination.PageResponse[models.Debt], error) {
	params.Defaults()

	query := s.db.Model(&models.Debt{}).Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var debts []models.Debt
	err := query.Preload("Payments").
		Order("created_at DESC").
		Scopes(pagination.Paginate(params)).
		Find(&debts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range debts {
		s.deriveSchedule(&debts[i])
	}

	resp := pagination.NewPageResponse(debts, params.Page, params.PageSize, total)
	return &resp, nil
}

// UpdateDebt updates the mutable fields of a debt.
func (s *debtService) UpdateDebt(userID, debtID string, in UpdateDebtInput) (*models.Debt, error) {
	var debt models.Debt
	err := s.db.Where("id = ? AND user_id = ?", debtID, userID).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{}
	if in.Creditor != nil {
		updates["creditor"] = *in.Creditor
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.MinimumPayment != nil {
		updates["minimum_payment"] = *in.MinimumPayment
	}
	if in.InterestRate != nil {
		updates["interest_rate"] = *in.InterestRate
	}
	if len(updates) > 0 {
		if err := s.db.Model(&debt).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetDebtByID(userID, debtID)
}

// DeleteDebt soft deletes a debt and its payment history.
func (s *debtService) DeleteDebt(userID, debtID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", debtID, userID).Delete(&models.Debt{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrDebtNotFound
		}
		if err := tx.Where("debt_id = ?", debtID).Delete(&models.DebtPayment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RecordDebtPayment records an installment payment against a debt. The
// payment's transaction, its budget attributions and the payment record are
// written atomically, and the debt is marked paid when all installments are
// settled.
func (s *debtService) RecordDebtPayment(userID string, in DebtPaymentInput) (*models.DebtPayment, error) {
	if in.AmountPaid <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount paid must be positive")
	}

	var debt models.Debt
	err := s.db.Where("id = ? AND user_id = ?", in.DebtID, userID).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if in.PaymentDate.IsZero() {
		in.PaymentDate = time.Now()
	}
	if in.Status == "" {
		in.Status = models.DebtStatusPaid
	}

	var payment *models.DebtPayment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := s.transactions.RecordTransactionWithDB(tx, userID, RecordInput{
			Type:        models.TransactionTypeDebtPayment,
			Amount:      in.AmountPaid,
			Category:    "Debt Payment",
			Description: fmt.Sprintf("Payment to %s", debt.Creditor),
		})
		if err != nil {
			return err
		}

		payment = &models.DebtPayment{
			DebtID:            debt.ID,
			TransactionID:     transaction.ID,
			PaymentDate:       in.PaymentDate,
			AmountPaid:        in.AmountPaid,
			InstallmentNumber: in.InstallmentNumber,
			Status:            in.Status,
		}
		if err := tx.Create(payment).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var settled int64
		if err := tx.Model(&models.DebtPayment{}).
			Where("debt_id = ? AND status = ?", debt.ID, models.DebtStatusPaid).
			Count(&settled).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if settled >= int64(debt.InstallmentCount) && debt.Status != models.DebtStatusPaid {
			if err := tx.Model(&debt).Update("status", models.DebtStatusPaid).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return payment, nil
}

// GetDebtPayment returns a single payment recorded against a debt owned by
// the user.
func (s *debtService) GetDebtPayment(userID, debtID, paymentID string) (*models.DebtPayment, error) {
	var payment models.DebtPayment
	err := s.db.Model(&models.DebtPayment{}).
		Joins("JOIN debts ON debts.id = debt_payments.debt_id AND debts.deleted_at IS NULL").
		Where("debt_payments.id = ? AND debt_payments.debt_id = ? AND debts.user_id = ?", paymentID, debtID, userID).
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payment, nil
}

// GetDebtPayments returns the payment history of a debt owned by the user.
func (s *debtService) GetDebtPayments(userID, debtID string, params pagination.PageRequest) (*pagination.PageResponse[models.DebtPayment], error) {
	params.Defaults()

	var exists int64
	if err := s.db.Model(&models.Debt{}).
		Where("id = ? AND user_id = ?", debtID, userID).
		Count(&exists).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if exists == 0 {
		return nil, apperrors.ErrDebtNotFound
	}

	query := s.db.Model(&models.DebtPayment{}).Where("debt_id = ?", debtID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payments []models.DebtPayment
	err := query.Order("payment_date DESC").
		Scopes(pagination.Paginate(params)).
		Find(&payments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(payments, params.Page, params.PageSize, total)
	return &resp, nil
}

// deriveSchedule computes the projected payment dates from the payments made
// so far. The dates are view-time projections and never stored.
func (s *debtService) deriveSchedule(debt *models.Debt) {
	if debt.InstallmentCount < 1 {
		return
	}

	completion := debt.PaymentFrequency.Advance(debt.DueDate, debt.InstallmentCount-1)
	debt.EstimatedCompletionDate = &completion

	if debt.Status == models.DebtStatusPaid {
		return
	}

	paid := 0
	for _, p := range debt.Payments {
		if p.Status == models.DebtStatusPaid {
			paid++
		}
	}
	if paid >= debt.InstallmentCount {
		return
	}

	next := debt.PaymentFrequency.Advance(debt.DueDate, paid)
	debt.NextPaymentDate = &next

	if debt.Status == models.DebtStatusPending && next.Before(time.Now()) {
		debt.Status = models.DebtStatusOverdue
	}
}

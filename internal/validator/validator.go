// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("budget_type", validateBudgetType)
		_ = v.RegisterValidation("debt_status", validateDebtStatus)
		_ = v.RegisterValidation("payment_frequency", validatePaymentFrequency)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateBudgetType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Balanced", "Saving", "Debt":
		return true
	}
	return false
}

func validateDebtStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "paid", "overdue":
		return true
	}
	return false
}

func validatePaymentFrequency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "weekly", "biweekly", "monthly", "quarterly", "yearly":
		return true
	}
	return false
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/ai"
	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// fallbackRecommendation is returned when the LLM cannot be reached; advice
// is best-effort and never fails a request.
const fallbackRecommendation = "Unable to generate a recommendation right now. " +
	"Review your recent spending against your budget and try again later."

// aiService handles LLM-assisted queries and budgeting advice.
type aiService struct {
	db        *gorm.DB
	completer ai.Completer
	budgets   BudgetServicer
}

// NewAIService creates a new AIServicer.
func NewAIService(db *gorm.DB, completer ai.Completer, budgets BudgetServicer) AIServicer {
	return &aiService{db: db, completer: completer, budgets: budgets}
}

// HumanQuery answers a natural-language question about the stored data. The
// question is turned into SQL by the LLM, the SQL is executed read-only, and
// the rows are phrased back in natural language.
func (s *aiService) HumanQuery(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "question is required")
	}

	schema, err := database.SchemaDescription(s.db)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	query, err := s.completer.SQLQuery(ctx, question, schema)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUpstream, err)
	}

	if !isReadOnlyQuery(query) {
		logger.Get().Warnw("rejected generated query", "query", query)
		return "", apperrors.ErrUnsafeQuery
	}

	var rows []map[string]interface{}
	if err := s.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	answer, err := s.completer.Answer(ctx, question, rows)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrUpstream, err)
	}

	return answer, nil
}

// Recommendation produces budgeting advice from the user's most recent
// budget of the given type.
func (s *aiService) Recommendation(ctx context.Context, userID string, budgetType models.BudgetType) (string, error) {
	var budget models.Budget
	err := s.db.Where("user_id = ? AND type = ?", userID, budgetType).
		Order("month_start DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInsufficientData
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	detail, err := s.budgets.GetBudgetDetail(userID, budget.ID)
	if err != nil {
		return "", err
	}

	summary, err := json.Marshal(map[string]interface{}{
		"month":           detail.MonthStart.Format("January 2006"),
		"total_income":    detail.TotalIncome,
		"total_spent":     detail.TotalSpent,
		"total_remaining": detail.TotalRemaining,
		"percent_spent":   detail.PercentSpent,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	advice, err := s.completer.Recommendation(ctx, string(budgetType), string(summary))
	if err != nil {
		logger.Get().Warnw("recommendation request failed", "error", err)
		return fallbackRecommendation, nil
	}

	return advice, nil
}

// isReadOnlyQuery reports whether a generated statement is a plain read.
// Anything that is not a single SELECT or WITH statement is refused.
func isReadOnlyQuery(query string) bool {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if trimmed == "" || strings.Contains(trimmed, ";") {
		return false
	}
	first := strings.ToUpper(strings.Fields(trimmed)[0])
	return first == "SELECT" || first == "WITH"
}

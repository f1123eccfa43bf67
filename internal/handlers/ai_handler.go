package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// AIHandler handles LLM-assisted query and advice requests.
type AIHandler struct {
	aiService services.AIServicer
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(aiService services.AIServicer) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// HumanQueryRequest represents a natural-language question about the data.
type HumanQueryRequest struct {
	Question string `json:"question" binding:"required,min=1,max=1000"`
}

// HumanQuery handles a natural-language question over the stored data.
// @Summary     Ask a question
// @Description Answer a natural-language question about the stored financial data
// @Tags        ai
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body HumanQueryRequest true "Question"
// @Success     200 {object} map[string]string "Answer"
// @Failure     400 {object} ErrorResponse "Invalid input or unsafe generated query"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Upstream LLM failure"
// @Router      /ai/human-query [post]
func (h *AIHandler) HumanQuery(c *gin.Context) {
	var req HumanQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	answer, err := h.aiService.HumanQuery(c.Request.Context(), req.Question)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// Recommendation handles a budgeting advice request.
// @Summary     Get a budgeting recommendation
// @Description Generate budgeting advice from the user's latest budget of the given type
// @Tags        ai
// @Produce     json
// @Security    BearerAuth
// @Param       budget_type path string true "Budget type (Balanced/Saving/Debt)"
// @Success     200 {object} map[string]string "Recommendation"
// @Failure     400 {object} ErrorResponse "Invalid budget type or not enough data"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ai/recommendations/{budget_type} [get]
func (h *AIHandler) Recommendation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetType := models.BudgetType(c.Param("budget_type"))
	switch budgetType {
	case models.BudgetTypeBalanced, models.BudgetTypeSaving, models.BudgetTypeDebt:
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget_type must be Balanced, Saving or Debt"))
		return
	}

	advice, err := h.aiService.Recommendation(c.Request.Context(), userID, budgetType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendation": advice})
}

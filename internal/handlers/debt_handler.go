package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// DebtHandler handles debt-related requests.
type DebtHandler struct {
	debtService  services.DebtServicer
	auditService services.AuditServicer
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtService services.DebtServicer, auditService services.AuditServicer) *DebtHandler {
	return &DebtHandler{debtService: debtService, auditService: auditService}
}

// CreateDebtRequest represents the request payload for creating a debt.
type CreateDebtRequest struct {
	Creditor         string                  `json:"creditor" binding:"required,min=1,max=150"`
	Amount           float64                 `json:"amount" binding:"required,gt=0"`
	Description      string                  `json:"description" binding:"max=500"`
	DueDate          time.Time               `json:"due_date" binding:"required"`
	InstallmentCount int                     `json:"installment_count" binding:"required,min=1"`
	MinimumPayment   float64                 `json:"minimum_payment" binding:"omitempty,gt=0"`
	InterestRate     float64                 `json:"interest_rate" binding:"omitempty,gte=0"`
	PaymentFrequency models.PaymentFrequency `json:"payment_frequency" binding:"omitempty,payment_frequency"`
}

// UpdateDebtRequest represents the request payload for updating a debt.
type UpdateDebtRequest struct {
	Creditor       *string            `json:"creditor" binding:"omitempty,min=1,max=150"`
	Description    *string            `json:"description" binding:"omitempty,max=500"`
	Status         *models.DebtStatus `json:"status" binding:"omitempty,debt_status"`
	MinimumPayment *float64           `json:"minimum_payment" binding:"omitempty,gt=0"`
	InterestRate   *float64           `json:"interest_rate" binding:"omitempty,gte=0"`
}

// RecordDebtPaymentRequest represents the request payload for recording a
// payment against a debt.
type RecordDebtPaymentRequest struct {
	AmountPaid        float64           `json:"amount_paid" binding:"required,gt=0"`
	PaymentDate       time.Time         `json:"payment_date"`
	InstallmentNumber int               `json:"installment_number" binding:"omitempty,min=1"`
	Status            models.DebtStatus `json:"status" binding:"omitempty,debt_status"`
}

// CreateDebt handles the creation of a new debt.
// @Summary     Create a debt
// @Description Create a new debt obligation
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDebtRequest true "Debt details"
// @Success     201 {object} models.Debt "Debt created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts [post]
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	debt, err := h.debtService.CreateDebt(userID, services.CreateDebtInput{
		Creditor:         req.Creditor,
		Amount:           req.Amount,
		Description:      req.Description,
		DueDate:          req.DueDate,
		InstallmentCount: req.InstallmentCount,
		MinimumPayment:   req.MinimumPayment,
		InterestRate:     req.InterestRate,
		PaymentFrequency: req.PaymentFrequency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_DEBT", "debt", debt.ID, c.ClientIP(),
		map[string]interface{}{"creditor": req.Creditor, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"debt": debt})
}

// GetDebts handles listing debts for the authenticated user.
// @Summary     Get debts
// @Description Get a paginated list of debts, optionally filtered by status
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       status    query string false "Filter by status (pending/paid/overdue)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Debt] "Paginated debts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts [get]
func (h *DebtHandler) GetDebts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.DebtStatus
	if v := c.Query("status"); v != "" {
		s := models.DebtStatus(v)
		switch s {
		case models.DebtStatusPending, models.DebtStatusPaid, models.DebtStatusOverdue:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be pending, paid or overdue"))
			return
		}
	}

	debts, err := h.debtService.GetUserDebts(userID, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, debts)
}

// GetDebt handles fetching a single debt with its payment history.
// @Summary     Get a debt
// @Description Get a debt with its payments and projected schedule dates
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} models.Debt "Debt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id} [get]
func (h *DebtHandler) GetDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.GetDebtByID(userID, debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// UpdateDebt handles updating a debt.
// @Summary     Update a debt
// @Description Update the mutable fields of a debt
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Debt ID"
// @Param       request body UpdateDebtRequest true "Fields to update"
// @Success     200 {object} models.Debt "Updated debt"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id} [put]
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	debt, err := h.debtService.UpdateDebt(userID, debtID, services.UpdateDebtInput{
		Creditor:       req.Creditor,
		Description:    req.Description,
		Status:         req.Status,
		MinimumPayment: req.MinimumPayment,
		InterestRate:   req.InterestRate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_DEBT", "debt", debtID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"debt": debt})
}

// DeleteDebt handles deleting a debt.
// @Summary     Delete a debt
// @Description Soft delete a debt and its payment history
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} map[string]string "Debt deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id} [delete]
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.debtService.DeleteDebt(userID, debtID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_DEBT", "debt", debtID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Debt deleted"})
}

// RecordPayment handles recording a payment against a debt.
// @Summary     Record a debt payment
// @Description Record an installment payment; the payment is also recorded as a transaction
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Debt ID"
// @Param       request body RecordDebtPaymentRequest true "Payment details"
// @Success     201 {object} models.DebtPayment "Payment recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id}/payments [post]
func (h *DebtHandler) RecordPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordDebtPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payment, err := h.debtService.RecordDebtPayment(userID, services.DebtPaymentInput{
		DebtID:            debtID,
		AmountPaid:        req.AmountPaid,
		PaymentDate:       req.PaymentDate,
		InstallmentNumber: req.InstallmentNumber,
		Status:            req.Status,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECORD_DEBT_PAYMENT", "debt_payment", payment.ID, c.ClientIP(),
		map[string]interface{}{"debt_id": debtID, "amount_paid": req.AmountPaid})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// GetPayment handles fetching a single payment of a debt.
// @Summary     Get a debt payment
// @Description Get a single payment recorded against a debt
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string true "Debt ID"
// @Param       payment_id path string true "Payment ID"
// @Success     200 {object} map[string]models.DebtPayment "Payment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id}/payments/{payment_id} [get]
func (h *DebtHandler) GetPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "payment_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.debtService.GetDebtPayment(userID, debtID, paymentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// GetPayments handles listing payments for a debt.
// @Summary     Get debt payments
// @Description Get the payment history of a debt
// @Tags        debts
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Debt ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.DebtPayment] "Paginated payments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /debts/{id}/payments [get]
func (h *DebtHandler) GetPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payments, err := h.debtService.GetDebtPayments(userID, debtID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

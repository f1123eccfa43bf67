package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/identity"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	provider     identity.Provider
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider identity.Provider, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{provider: provider, auditService: auditService}
}

// SignUpRequest represents the registration request payload.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Fullname string `json:"fullname" binding:"max=150"`
}

// SignInRequest represents the sign-in request payload.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the session refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ResetPasswordRequest represents the password reset initiation payload.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdatePasswordRequest represents the password change payload. Either the
// caller is authenticated, or a reset token proves ownership.
type UpdatePasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UserResponse represents the user data in responses.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	Image    string `json:"image,omitempty"`
}

// AuthResponse represents a successful authentication response.
type AuthResponse struct {
	Session identity.Session `json:"session"`
	User    UserResponse     `json:"user"`
}

func userResponse(id, email, fullname, image string) UserResponse {
	return UserResponse{ID: id, Email: email, Fullname: fullname, Image: image}
}

// SignUp handles user registration.
// @Summary     Register a new user
// @Description Register a new user with email and password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignUpRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and signed in"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/sign-up [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.provider.SignUp(req.Email, req.Password, req.Fullname)
	if err != nil {
		respondWithError(c, err)
		return
	}

	session, err := h.provider.SignIn(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "SIGN_UP", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{
		"session": session,
		"user":    userResponse(user.ID, user.Email, user.Fullname, user.Image),
	})
}

// SignIn handles user sign-in.
// @Summary     Sign in
// @Description Authenticate a user and start a session
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignInRequest true "User credentials"
// @Success     200 {object} AuthResponse "Session started"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	session, err := h.provider.SignIn(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.provider.UserFromToken(session.AccessToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "SIGN_IN", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"user":    userResponse(user.ID, user.Email, user.Fullname, user.Image),
	})
}

// SignOut handles user sign-out.
// @Summary     Sign out
// @Description Invalidate the current session
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Signed out"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/sign-out [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token := bearerToken(c)
	if err := h.provider.SignOut(token); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SIGN_OUT", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// RefreshSession exchanges a refresh token for a new session.
// @Summary     Refresh session
// @Description Exchange a refresh token for a new access and refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} identity.Session "New session"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	session, err := h.provider.RefreshSession(req.RefreshToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ResetPassword initiates a password reset for an email address. The response
// is identical whether or not the account exists.
// @Summary     Request password reset
// @Description Start the password reset flow for an email address
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Account email"
// @Success     200 {object} map[string]string "Reset initiated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	// The reset token would be delivered out of band. Unknown addresses get
	// the same response to avoid account enumeration.
	if _, err := h.provider.ResetPassword(req.Email); err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) || appErr.StatusCode >= http.StatusInternalServerError {
			respondWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

// UpdatePassword changes the user's password, either for the authenticated
// user or via a reset token.
// @Summary     Update password
// @Description Change the password for the authenticated user or via a reset token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePasswordRequest true "New password"
// @Success     200 {object} map[string]string "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/update-password [post]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if req.ResetToken != "" {
		if err := h.provider.UpdatePasswordWithToken(req.ResetToken, req.NewPassword); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.provider.UpdatePassword(userID, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PASSWORD", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// GetCurrentUser returns the authenticated user's profile.
// @Summary     Get current user
// @Description Get the profile of the authenticated user
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "Current user"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.provider.UserFromToken(bearerToken(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userResponse(user.ID, user.Email, user.Fullname, user.Image),
	})
}

// GetAuditLogs returns the authenticated user's audit trail.
// @Summary     Get audit logs
// @Description Get the authenticated user's audit trail, newest first
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Audit logs"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/audit-logs [get]
func (h *AuthHandler) GetAuditLogs(c *gin.Context) {
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

	logs, err := h.auditService.GetUserLogs(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// bearerToken extracts the raw bearer token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// ErrorResponse represents an error response payload.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

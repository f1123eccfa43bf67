package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/handlers"
	"fintrack/internal/identity"
	"fintrack/internal/logger"
	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/services"
	"fintrack/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.Transaction{},
		&models.BudgetTransaction{},
		&models.Income{},
		&models.Expense{},
		&models.Debt{},
		&models.DebtPayment{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// AutoMigrate cannot express partial indexes; create the budget
	// uniqueness constraint the same way the schema migration does.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_budgets_user_type_month " +
			"ON budgets (user_id, type, month_start) WHERE deleted_at IS NULL",
	).Error; err != nil {
		t.Fatalf("failed to create budget index: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "integration-test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 7 * 24 * time.Hour,
		Attribution:      config.AttributionUniform,
	}

	provider := identity.NewJWTProvider(db, cfg)

	// Services
	auditService := services.NewAuditService(db)
	budgetService := services.NewBudgetService(db)
	transactionService := services.NewTransactionService(db, cfg, budgetService)
	incomeService := services.NewIncomeService(db, transactionService)
	expenseService := services.NewExpenseService(db, transactionService)
	debtService := services.NewDebtService(db, transactionService)

	// Handlers
	authHandler := handlers.NewAuthHandler(provider, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	incomeHandler := handlers.NewIncomeHandler(incomeService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	debtHandler := handlers.NewDebtHandler(debtService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/sign-up", authHandler.SignUp)
	auth.POST("/sign-in", authHandler.SignIn)
	auth.POST("/refresh", authHandler.RefreshSession)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/update-password", authHandler.UpdatePassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(provider))

	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.POST("/auth/sign-out", authHandler.SignOut)
	protected.GET("/auth/audit-logs", authHandler.GetAuditLogs)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/generate-current-month", budgetHandler.GenerateCurrentMonth)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.GET("/:id", transactionHandler.GetTransaction)

	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.GET("", incomeHandler.GetIncomes)
	incomes.GET("/:id", incomeHandler.GetIncome)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)

	debts := protected.Group("/debts")
	debts.POST("", debtHandler.CreateDebt)
	debts.GET("", debtHandler.GetDebts)
	debts.GET("/:id", debtHandler.GetDebt)
	debts.PUT("/:id", debtHandler.UpdateDebt)
	debts.DELETE("/:id", debtHandler.DeleteDebt)
	debts.POST("/:id/payments", debtHandler.RecordPayment)
	debts.GET("/:id/payments", debtHandler.GetPayments)
	debts.GET("/:id/payments/:payment_id", debtHandler.GetPayment)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// signUpUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) signUpUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"fullname":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/sign-up", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("sign-up failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	session := result["session"].(map[string]interface{})
	user := result["user"].(map[string]interface{})
	return session["access_token"].(string), session["refresh_token"].(string), user["id"].(string)
}

// signInUser signs in and returns the access and refresh tokens.
func (app *testApp) signInUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/sign-in", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-in failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	session := result["session"].(map[string]interface{})
	return session["access_token"].(string), session["refresh_token"].(string)
}

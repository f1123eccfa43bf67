package integration

import (
	"net/http"
	"testing"
)

func TestDebtFlow_CreatePayAndSettle(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.signUpUser(t, "debt@test.com", "password123")

	// Create a two-installment debt.
	rec := app.request("POST", "/api/v1/debts",
		`{"creditor":"Acme Bank","amount":200,"due_date":"2026-09-15T00:00:00Z","installment_count":2,"payment_frequency":"monthly"}`,
		token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt failed: %d %s", rec.Code, rec.Body.String())
	}
	debt := parseJSON(t, rec)["debt"].(map[string]interface{})
	debtID := debt["id"].(string)
	if debt["status"] != "pending" {
		t.Fatalf("expected pending, got %v", debt["status"])
	}
	if debt["estimated_completion_date"] == nil {
		t.Fatal("expected an estimated completion date")
	}

	// First payment: debt stays pending.
	rec = app.request("POST", "/api/v1/debts/"+debtID+"/payments",
		`{"amount_paid":100,"installment_number":1}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first payment failed: %d %s", rec.Code, rec.Body.String())
	}
	payment := parseJSON(t, rec)["payment"].(map[string]interface{})
	if payment["status"] != "paid" {
		t.Errorf("expected payment status paid, got %v", payment["status"])
	}

	rec = app.request("GET", "/api/v1/debts/"+debtID, "", token)
	debt = parseJSON(t, rec)["debt"].(map[string]interface{})
	if debt["status"] != "pending" {
		t.Errorf("expected debt still pending after one of two payments, got %v", debt["status"])
	}

	// Second payment settles the debt.
	rec = app.request("POST", "/api/v1/debts/"+debtID+"/payments",
		`{"amount_paid":100,"installment_number":2}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second payment failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/debts/"+debtID, "", token)
	debt = parseJSON(t, rec)["debt"].(map[string]interface{})
	if debt["status"] != "paid" {
		t.Errorf("expected debt paid after final installment, got %v", debt["status"])
	}

	// Both payments appear in the history.
	rec = app.request("GET", "/api/v1/debts/"+debtID+"/payments", "", token)
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 2 {
		t.Fatalf("expected 2 payments, got %v", result["total_items"])
	}

	// A single payment can be fetched by id.
	paymentID := result["data"].([]interface{})[0].(map[string]interface{})["id"].(string)
	rec = app.request("GET", "/api/v1/debts/"+debtID+"/payments/"+paymentID, "", token)
	payment = parseJSON(t, rec)["payment"].(map[string]interface{})
	if payment["amount_paid"].(float64) != 100 {
		t.Errorf("expected amount paid 100, got %v", payment["amount_paid"])
	}

	// Payments flow into the transaction ledger as debt payments.
	rec = app.request("GET", "/api/v1/transactions", "", token)
	result = parseJSON(t, rec)
	if result["total_items"].(float64) != 2 {
		t.Fatalf("expected 2 transactions, got %v", result["total_items"])
	}
	first := result["data"].([]interface{})[0].(map[string]interface{})
	if first["type"] != "debt_payment" {
		t.Errorf("expected debt_payment, got %v", first["type"])
	}
	if first["amount"].(float64) != 100 {
		t.Errorf("expected amount 100, got %v", first["amount"])
	}
}

func TestDebtFlow_StatusFilter(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.signUpUser(t, "debtfilter@test.com", "password123")

	rec := app.request("POST", "/api/v1/debts",
		`{"creditor":"Settled Co","amount":50,"due_date":"2026-09-01T00:00:00Z","installment_count":1}`, token)
	settled := parseJSON(t, rec)["debt"].(map[string]interface{})
	settledID := settled["id"].(string)

	app.request("POST", "/api/v1/debts",
		`{"creditor":"Open Co","amount":500,"due_date":"2026-12-01T00:00:00Z","installment_count":10}`, token)

	app.request("POST", "/api/v1/debts/"+settledID+"/payments", `{"amount_paid":50}`, token)

	rec = app.request("GET", "/api/v1/debts?status=paid", "", token)
	result := parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Fatalf("expected 1 paid debt, got %v", result["total_items"])
	}
	debt := result["data"].([]interface{})[0].(map[string]interface{})
	if debt["creditor"] != "Settled Co" {
		t.Errorf("expected Settled Co, got %v", debt["creditor"])
	}

	rec = app.request("GET", "/api/v1/debts?status=pending", "", token)
	result = parseJSON(t, rec)
	if result["total_items"].(float64) != 1 {
		t.Fatalf("expected 1 pending debt, got %v", result["total_items"])
	}
}

func TestDebtFlow_DeleteRemovesDebt(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.signUpUser(t, "debtdelete@test.com", "password123")

	rec := app.request("POST", "/api/v1/debts",
		`{"creditor":"Gone Co","amount":75,"due_date":"2026-10-01T00:00:00Z","installment_count":3}`, token)
	debtID := parseJSON(t, rec)["debt"].(map[string]interface{})["id"].(string)

	rec = app.request("DELETE", "/api/v1/debts/"+debtID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/debts/"+debtID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/internal/query"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/models"
	"github.com/billbuzz/billbuzz/shared/validation"
)

// ---- mock implementations ----

type mockPaymentCommander struct {
	addFn     func(cqrs.AddPaymentCommand) (*models.Payment, error)
	updateFn  func(cqrs.UpdatePaymentCommand) error
	paidFn    func(cqrs.MarkAsPaidCommand) error
	archiveFn func(cqrs.ArchivePaymentCommand) error
	deleteFn  func(cqrs.DeletePaymentCommand) error
}

func (m *mockPaymentCommander) AddPayment(_ context.Context, cmd cqrs.AddPaymentCommand) (*models.Payment, error) {
	if m.addFn != nil {
		return m.addFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPaymentCommander) UpdatePayment(_ context.Context, cmd cqrs.UpdatePaymentCommand) error {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockPaymentCommander) MarkAsPaid(_ context.Context, cmd cqrs.MarkAsPaidCommand) error {
	if m.paidFn != nil {
		return m.paidFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockPaymentCommander) ArchivePayment(_ context.Context, cmd cqrs.ArchivePaymentCommand) error {
	if m.archiveFn != nil {
		return m.archiveFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockPaymentCommander) DeletePayment(_ context.Context, cmd cqrs.DeletePaymentCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockPaymentQuerier struct {
	listFn func(cqrs.ListPaymentsQuery) ([]models.PaymentView, error)
	getFn  func(cqrs.GetPaymentQuery) (*models.PaymentView, error)
}

func (m *mockPaymentQuerier) ListPayments(q cqrs.ListPaymentsQuery) ([]models.PaymentView, error) {
	if m.listFn != nil {
		return m.listFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPaymentQuerier) GetPayment(q cqrs.GetPaymentQuery) (*models.PaymentView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockPaymentQuerier) Summary(cqrs.PaymentSummaryQuery) models.PaymentSummary {
	return models.PaymentSummary{TotalCount: 3, PaidCount: 1, CompletionRate: 33}
}

// ---- helpers ----

func newPaymentTestRouter(cmds PaymentCommander, qrys PaymentQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPaymentHandler(cmds, qrys)
	v1 := r.Group("/v1/payments")
	v1.GET("", h.ListPayments)
	v1.GET("/summary", h.Summary)
	v1.POST("", h.CreatePayment)
	v1.GET("/:paymentId", h.GetPayment)
	v1.PATCH("/:paymentId", h.UpdatePayment)
	v1.DELETE("/:paymentId", h.DeletePayment)
	v1.POST("/:paymentId/paid", h.MarkAsPaid)
	v1.POST("/:paymentId/archive", h.ArchivePayment)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testPayment = &models.Payment{
	ID:        "pay-001",
	Title:     "Electricity Bill",
	DueDate:   models.NewDate(2024, time.December, 25),
	Amount:    decimal.NewFromInt(150),
	CreatedAt: time.Now(),
}

func testView(archived bool) *models.PaymentView {
	p := *testPayment
	p.IsArchived = archived
	return &models.PaymentView{Payment: p, State: p.State(), DaysUntilDue: 5, Status: "5 days left"}
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{"title": "Electricity Bill", "dueDate": "2024-12-25", "amount": 150}
}

// ---- tests ----

func TestCreatePayment(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		addFn          func(cqrs.AddPaymentCommand) (*models.Payment, error)
		expectedStatus int
	}{
		{
			name: "success - add payment",
			body: validCreateBody(),
			addFn: func(cmd cqrs.AddPaymentCommand) (*models.Payment, error) {
				if cmd.DueDate.String() != "2024-12-25" || !cmd.Amount.Equal(decimal.NewFromInt(150)) {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return testPayment, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative amount",
			body:           map[string]interface{}{"title": "x", "dueDate": "2024-12-25", "amount": -1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed date",
			body:           map[string]interface{}{"title": "x", "dueDate": "25/12/2024", "amount": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - rejected by ledger",
			body: validCreateBody(),
			addFn: func(cqrs.AddPaymentCommand) (*models.Payment, error) {
				return nil, validation.NewError("Title", "required", "This field is required")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "server error",
			body: validCreateBody(),
			addFn: func(cqrs.AddPaymentCommand) (*models.Payment, error) {
				return nil, fmt.Errorf("boom")
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newPaymentTestRouter(&mockPaymentCommander{addFn: tt.addFn}, &mockPaymentQuerier{})
			w := doRequest(router, http.MethodPost, "/v1/payments", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListPayments(t *testing.T) {
	var gotView string
	querier := &mockPaymentQuerier{
		listFn: func(q cqrs.ListPaymentsQuery) ([]models.PaymentView, error) {
			gotView = q.View
			if q.View == "bogus" {
				return nil, fmt.Errorf("unknown view %q", q.View)
			}
			return []models.PaymentView{*testView(false)}, nil
		},
	}
	router := newPaymentTestRouter(&mockPaymentCommander{}, querier)

	w := doRequest(router, http.MethodGet, "/v1/payments?view=overdue", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotView != query.ViewOverdue {
		t.Errorf("expected view %q, got %q", query.ViewOverdue, gotView)
	}

	var resp ListPaymentsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Payments) != 1 || resp.Payments[0].ID != "pay-001" {
		t.Errorf("unexpected payments: %+v", resp.Payments)
	}

	w = doRequest(router, http.MethodGet, "/v1/payments?view=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown view, got %d", w.Code)
	}
}

func TestPaymentSummary(t *testing.T) {
	router := newPaymentTestRouter(&mockPaymentCommander{}, &mockPaymentQuerier{})
	w := doRequest(router, http.MethodGet, "/v1/payments/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"completionRate":33`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestGetPayment(t *testing.T) {
	tests := []struct {
		name           string
		getFn          func(cqrs.GetPaymentQuery) (*models.PaymentView, error)
		expectedStatus int
	}{
		{
			name:           "success",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return testView(false), nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return nil, query.ErrPaymentNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return nil, fmt.Errorf("boom") },
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newPaymentTestRouter(&mockPaymentCommander{}, &mockPaymentQuerier{getFn: tt.getFn})
			w := doRequest(router, http.MethodGet, "/v1/payments/pay-001", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestUpdatePayment(t *testing.T) {
	var got cqrs.UpdatePaymentCommand
	cmds := &mockPaymentCommander{
		updateFn: func(cmd cqrs.UpdatePaymentCommand) error {
			got = cmd
			if cmd.Title != nil && *cmd.Title == "" {
				return validation.NewError("Title", "required", "This field is required")
			}
			return nil
		},
	}
	router := newPaymentTestRouter(cmds, &mockPaymentQuerier{})

	w := doRequest(router, http.MethodPatch, "/v1/payments/pay-001", map[string]interface{}{"amount": "99.5"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got.PaymentID != "pay-001" || got.Amount == nil || got.Title != nil {
		t.Errorf("unexpected command: %+v", got)
	}

	w = doRequest(router, http.MethodPatch, "/v1/payments/pay-001", map[string]interface{}{"title": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	var paid, archived string
	cmds := &mockPaymentCommander{
		paidFn:    func(cmd cqrs.MarkAsPaidCommand) error { paid = cmd.PaymentID; return nil },
		archiveFn: func(cmd cqrs.ArchivePaymentCommand) error { archived = cmd.PaymentID; return nil },
	}
	router := newPaymentTestRouter(cmds, &mockPaymentQuerier{})

	if w := doRequest(router, http.MethodPost, "/v1/payments/pay-001/paid", nil); w.Code != http.StatusNoContent {
		t.Errorf("mark paid: expected 204, got %d", w.Code)
	}
	if w := doRequest(router, http.MethodPost, "/v1/payments/pay-002/archive", nil); w.Code != http.StatusNoContent {
		t.Errorf("archive: expected 204, got %d", w.Code)
	}
	if paid != "pay-001" || archived != "pay-002" {
		t.Errorf("unexpected ids: paid=%q archived=%q", paid, archived)
	}
}

func TestDeletePayment(t *testing.T) {
	tests := []struct {
		name           string
		getFn          func(cqrs.GetPaymentQuery) (*models.PaymentView, error)
		expectDelete   bool
		expectedStatus int
	}{
		{
			name:           "success - archived payment",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return testView(true), nil },
			expectDelete:   true,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "conflict - payment not archived",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return testView(false), nil },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unknown id is a no-op",
			getFn:          func(cqrs.GetPaymentQuery) (*models.PaymentView, error) { return nil, query.ErrPaymentNotFound },
			expectDelete:   true,
			expectedStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deleted := false
			cmds := &mockPaymentCommander{deleteFn: func(cqrs.DeletePaymentCommand) error { deleted = true; return nil }}
			router := newPaymentTestRouter(cmds, &mockPaymentQuerier{getFn: tt.getFn})

			w := doRequest(router, http.MethodDelete, "/v1/payments/pay-001", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if deleted != tt.expectDelete {
				t.Errorf("expected delete=%v, got %v", tt.expectDelete, deleted)
			}
		})
	}
}

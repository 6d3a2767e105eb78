package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/internal/query"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/middleware"
	"github.com/billbuzz/billbuzz/shared/models"
)

// PaymentCommander defines the write-side ledger operations used by PaymentHandler.
type PaymentCommander interface {
	AddPayment(context.Context, cqrs.AddPaymentCommand) (*models.Payment, error)
	UpdatePayment(context.Context, cqrs.UpdatePaymentCommand) error
	MarkAsPaid(context.Context, cqrs.MarkAsPaidCommand) error
	ArchivePayment(context.Context, cqrs.ArchivePaymentCommand) error
	DeletePayment(context.Context, cqrs.DeletePaymentCommand) error
}

// PaymentQuerier defines the read-side ledger operations used by PaymentHandler.
type PaymentQuerier interface {
	ListPayments(cqrs.ListPaymentsQuery) ([]models.PaymentView, error)
	GetPayment(cqrs.GetPaymentQuery) (*models.PaymentView, error)
	Summary(cqrs.PaymentSummaryQuery) models.PaymentSummary
}

type PaymentHandler struct {
	commands PaymentCommander
	queries  PaymentQuerier
}

type CreatePaymentRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	DueDate     models.Date     `json:"dueDate" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
}

// UpdatePaymentRequest leaves absent fields untouched.
type UpdatePaymentRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	DueDate     *models.Date     `json:"dueDate"`
	Amount      *decimal.Decimal `json:"amount"`
	IsPaid      *bool            `json:"isPaid"`
	IsArchived  *bool            `json:"isArchived"`
}

type ListPaymentsResponse struct {
	Payments []models.PaymentView `json:"payments"`
}

func NewPaymentHandler(commands PaymentCommander, queries PaymentQuerier) *PaymentHandler {
	return &PaymentHandler{commands: commands, queries: queries}
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	views, err := h.queries.ListPayments(cqrs.ListPaymentsQuery{View: c.Query("view")})
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, ListPaymentsResponse{Payments: views})
}

func (h *PaymentHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.queries.Summary(cqrs.PaymentSummaryQuery{}))
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	payment, err := h.commands.AddPayment(c.Request.Context(), cqrs.AddPaymentCommand{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Amount:      req.Amount,
	})
	if err != nil {
		if middleware.RespondWithCommandError(c, err) {
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to add payment")
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	view, err := h.queries.GetPayment(cqrs.GetPaymentQuery{PaymentID: c.Param("paymentId")})
	if err != nil {
		if errors.Is(err, query.ErrPaymentNotFound) {
			middleware.RespondWithError(c, http.StatusNotFound, "Payment not found")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get payment")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.commands.UpdatePayment(c.Request.Context(), cqrs.UpdatePaymentCommand{
		PaymentID:   c.Param("paymentId"),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Amount:      req.Amount,
		IsPaid:      req.IsPaid,
		IsArchived:  req.IsArchived,
	})
	h.respondToMutation(c, err, "Failed to update payment")
}

func (h *PaymentHandler) MarkAsPaid(c *gin.Context) {
	err := h.commands.MarkAsPaid(c.Request.Context(), cqrs.MarkAsPaidCommand{PaymentID: c.Param("paymentId")})
	h.respondToMutation(c, err, "Failed to mark payment as paid")
}

func (h *PaymentHandler) ArchivePayment(c *gin.Context) {
	err := h.commands.ArchivePayment(c.Request.Context(), cqrs.ArchivePaymentCommand{PaymentID: c.Param("paymentId")})
	h.respondToMutation(c, err, "Failed to archive payment")
}

// DeletePayment only removes archived payments. Unknown ids are a no-op.
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	paymentID := c.Param("paymentId")

	view, err := h.queries.GetPayment(cqrs.GetPaymentQuery{PaymentID: paymentID})
	if err == nil && !view.IsArchived {
		middleware.RespondWithError(c, http.StatusConflict, "Only archived payments can be deleted")
		return
	}

	err = h.commands.DeletePayment(c.Request.Context(), cqrs.DeletePaymentCommand{PaymentID: paymentID})
	h.respondToMutation(c, err, "Failed to delete payment")
}

// Mutations on unknown ids succeed silently, so every success is a 204.
func (h *PaymentHandler) respondToMutation(c *gin.Context, err error, failure string) {
	if err != nil {
		if middleware.RespondWithCommandError(c, err) {
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, failure)
		return
	}
	c.Status(http.StatusNoContent)
}

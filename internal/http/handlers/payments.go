package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kadik23/law-firm-web-app-sub002/internal/http/middleware"
	"github.com/kadik23/law-firm-web-app-sub002/internal/http/validation"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/payments"
	"github.com/kadik23/law-firm-web-app-sub002/internal/shared/apperr"
)

type PaymentHandler struct {
	Payments *payments.Service
	Ledger   *payments.Ledger
}

func NewPaymentHandler(svc *payments.Service, ledger *payments.Ledger) *PaymentHandler {
	return &PaymentHandler{Payments: svc, Ledger: ledger}
}

type createPaymentInput struct {
	ServiceID   string `json:"request_service_id" binding:"required,uuid"`
	ClientID    string `json:"client_id" binding:"omitempty,uuid"`
	Method      string `json:"payment_method" binding:"required"`
	Type        string `json:"payment_type" binding:"required"`
	AmountCents int    `json:"amount" binding:"required,gt=0"`
}

// POST /api/payments
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	var in createPaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid payment request.", validation.FromBindError(err, &in)))
		return
	}

	view, err := h.Payments.Create(c.Request.Context(), actor, payments.CreateInput{
		ServiceID:   in.ServiceID,
		ClientID:    in.ClientID,
		Method:      in.Method,
		Type:        in.Type,
		AmountCents: in.AmountCents,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// GET /api/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	view, err := h.Payments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/payments/client/:clientID
func (h *PaymentHandler) ListForClient(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	views, err := h.Payments.ListForClient(c.Request.Context(), actor, c.Param("clientID"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": views})
}

// POST /api/payments/:id/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	view, err := h.Payments.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/payments/partial
func (h *PaymentHandler) ListPartial(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	views, err := h.Payments.ListPartial(c.Request.Context(), actor)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": views})
}

// GET /api/payments/partial/:id
func (h *PaymentHandler) GetPartial(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	detail, err := h.Payments.GetPartial(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type addTransactionInput struct {
	AmountCents int    `json:"transaction_amount" binding:"required,gt=0"`
	Method      string `json:"payment_method" binding:"required"`
}

// POST /api/payments/:id/transactions
func (h *PaymentHandler) AddTransaction(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	var in addTransactionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid transaction request.", validation.FromBindError(err, &in)))
		return
	}

	txn, err := h.Ledger.AddTransaction(c.Request.Context(), actor, payments.AddTransactionInput{
		PaymentID:   c.Param("id"),
		AmountCents: in.AmountCents,
		Method:      in.Method,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GET /api/payments/:id/transactions
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	actor, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	txns, err := h.Ledger.ListTransactions(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

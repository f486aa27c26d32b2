package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hisabat/pos_backend/internal/apperrors"
	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
	"github.com/hisabat/pos_backend/internal/dto"
	"github.com/hisabat/pos_backend/internal/middleware"
)

// customerHandler handles HTTP requests for customers and their statements.
type customerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newCustomerHandler(ls portssvc.LedgerSvcFacade) *customerHandler {
	return &customerHandler{ledgerService: ls}
}

// registerCustomerRoutes registers routes related to customers.
func registerCustomerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newCustomerHandler(ledgerService)

	customers := rg.Group("/customers")
	{
		customers.GET("", h.listCustomers)
		customers.GET("/default", h.getDefaultCustomer)
		customers.POST("/balances", h.getCurrentBalances)
		customers.GET("/:customerID/statement", h.getStatement)
		customers.GET("/:customerID/opening-balance", h.getOpeningBalance)
		customers.GET("/:customerID/has-transactions", h.hasTransactions)
		customers.POST("/:customerID/payments", h.recordPayment)
	}
}

func parseCustomerID(c *gin.Context) (int64, bool) {
	customerID, err := strconv.ParseInt(c.Param("customerID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return 0, false
	}
	return customerID, true
}

// parseDateParam accepts a date-only or RFC3339 query parameter. A missing
// parameter yields a nil bound.
func parseDateParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " date; use YYYY-MM-DD or RFC3339"})
		return nil, false
	}
	return &t, true
}

// listCustomers godoc
// @Summary List customers
// @Description Lists non-archived customers matching the search term against name or phone, default customer first, with token pagination
// @Tags customers
// @Produce json
// @Param search query string false "Search term"
// @Param limit query int false "Page size (default 100)"
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListCustomersResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 500 {object} map[string]string "Failed to list customers"
// @Router /customers [get]
func (h *customerHandler) listCustomers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	var nextToken *string
	if token := c.Query("nextToken"); token != "" {
		nextToken = &token
	}

	lookups, newToken, err := h.ledgerService.SearchCustomers(c.Request.Context(), c.Query("search"), limit, nextToken)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
			return
		}
		logger.Error("Failed to list customers", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list customers"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListCustomersResponse(lookups, newToken))
}

// getDefaultCustomer godoc
// @Summary Get the walk-in customer
// @Description Returns the default walk-in customer, creating or promoting one if absent
// @Tags customers
// @Produce json
// @Success 200 {object} dto.CustomerResponse
// @Failure 500 {object} map[string]string "Failed to resolve default customer"
// @Router /customers/default [get]
func (h *customerHandler) getDefaultCustomer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	customer, err := h.ledgerService.EnsureDefaultCustomer(c.Request.Context())
	if err != nil {
		logger.Error("Failed to ensure default customer", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve default customer"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerResponse(customer))
}

// getStatement godoc
// @Summary Get a customer statement
// @Description Returns ledger entries in the period with running balances; skip/take select a raw page instead
// @Tags customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param from query string false "Period start (inclusive, YYYY-MM-DD)"
// @Param to query string false "Period end (inclusive, YYYY-MM-DD)"
// @Param skip query int false "Rows to skip (paged mode)"
// @Param take query int false "Rows to take (paged mode)"
// @Success 200 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to load statement"
// @Router /customers/{customerID}/statement [get]
func (h *customerHandler) getStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "0"))

	openingBalance, err := h.ledgerService.GetOpeningBalance(c.Request.Context(), customerID, from)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		logger.Error("Failed to compute opening balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statement"})
		return
	}

	if take > 0 {
		page, err := h.ledgerService.GetStatementPage(c.Request.Context(), customerID, from, to, skip, take)
		if err != nil {
			logger.Error("Failed to load statement page", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statement"})
			return
		}
		c.JSON(http.StatusOK, dto.ToStatementResponse(customerID, openingBalance, page))
		return
	}

	statement, err := h.ledgerService.GetStatement(c.Request.Context(), customerID, from, to)
	if err != nil {
		logger.Error("Failed to load statement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load statement"})
		return
	}

	c.JSON(http.StatusOK, dto.ToStatementResponse(customerID, openingBalance, statement))
}

// getOpeningBalance godoc
// @Summary Get a customer's opening balance
// @Description Returns previousBalance plus the signed sum of entries strictly before from
// @Tags customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param from query string false "Period start (YYYY-MM-DD)"
// @Success 200 {object} dto.OpeningBalanceResponse
// @Failure 404 {object} map[string]string "Customer not found"
// @Failure 500 {object} map[string]string "Failed to compute opening balance"
// @Router /customers/{customerID}/opening-balance [get]
func (h *customerHandler) getOpeningBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}

	balance, err := h.ledgerService.GetOpeningBalance(c.Request.Context(), customerID, from)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		logger.Error("Failed to compute opening balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute opening balance"})
		return
	}

	c.JSON(http.StatusOK, dto.OpeningBalanceResponse{CustomerID: customerID, OpeningBalance: balance})
}

// getCurrentBalances godoc
// @Summary Get current balances for a set of customers
// @Description Computes previousBalance plus all entries per customer in one aggregate query; unknown ids are omitted
// @Tags customers
// @Accept json
// @Produce json
// @Param request body dto.CurrentBalancesRequest true "Customer IDs"
// @Success 200 {array} dto.CustomerBalanceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to compute balances"
// @Router /customers/balances [post]
func (h *customerHandler) getCurrentBalances(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CurrentBalancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	balances, err := h.ledgerService.GetCurrentBalances(c.Request.Context(), req.CustomerIDs)
	if err != nil {
		logger.Error("Failed to compute current balances", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balances"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerBalanceResponses(balances))
}

// hasTransactions godoc
// @Summary Check whether a customer has any history
// @Description Reports whether any invoice or ledger entry references the customer
// @Tags customers
// @Produce json
// @Param customerID path int true "Customer ID"
// @Success 200 {object} dto.HasTransactionsResponse
// @Failure 500 {object} map[string]string "Failed to check transactions"
// @Router /customers/{customerID}/has-transactions [get]
func (h *customerHandler) hasTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}

	has, err := h.ledgerService.HasCustomerTransactions(c.Request.Context(), customerID)
	if err != nil {
		logger.Error("Failed to check customer transactions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check transactions"})
		return
	}

	c.JSON(http.StatusOK, dto.HasTransactionsResponse{CustomerID: customerID, HasTransactions: has})
}

// recordPayment godoc
// @Summary Record a customer payment
// @Description Posts a single credit entry; non-positive amounts and the walk-in customer are silent no-ops
// @Tags customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID"
// @Param request body dto.RecordPaymentRequest true "Payment details"
// @Success 204 "Payment recorded"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to record payment"
// @Router /customers/{customerID}/payments [post]
func (h *customerHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}

	err := h.ledgerService.RecordCustomerPayment(c.Request.Context(), customerID, req.Amount, req.PaymentMethod, req.ReferenceNumber, date)
	if err != nil {
		logger.Error("Failed to record customer payment", slog.Int64("customer_id", customerID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	c.Status(http.StatusNoContent)
}

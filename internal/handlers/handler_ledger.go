package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hisabat/pos_backend/internal/core/domain"
	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
	"github.com/hisabat/pos_backend/internal/dto"
	"github.com/hisabat/pos_backend/internal/middleware"
)

// ledgerHandler handles posting operations that feed the ledger and the drawer.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the posting routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	rg.POST("/ledger/invoice-entries", h.recordInvoiceEntries)
	rg.POST("/cash-movements", h.recordCashMovement)
}

// recordInvoiceEntries godoc
// @Summary Record invoice ledger entries
// @Description Posts up to two entries atomically for a posted invoice: a debit of the total and a credit of the amount paid; walk-in invoices are skipped silently
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body dto.RecordInvoiceEntriesRequest true "Invoice details"
// @Success 204 "Entries recorded"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to record entries"
// @Router /ledger/invoice-entries [post]
func (h *ledgerHandler) recordInvoiceEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordInvoiceEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	err := h.ledgerService.RecordInvoiceEntries(c.Request.Context(),
		req.CustomerID, req.InvoiceNumber, req.Date,
		req.TotalAmount, req.AmountPaid,
		req.InvoicePaymentMethod, req.PaymentEntryMethod,
	)
	if err != nil {
		logger.Error("Failed to record invoice entries",
			slog.Int64("customer_id", req.CustomerID),
			slog.String("invoice_number", req.InvoiceNumber),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record entries"})
		return
	}

	c.Status(http.StatusNoContent)
}

// recordCashMovement godoc
// @Summary Record a drawer cash movement
// @Description Creates an income or outcome movement; non-positive amounts are a no-op with a null movement id
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body dto.RecordCashMovementRequest true "Movement details"
// @Success 201 {object} dto.CashMovementResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to record movement"
// @Router /cash-movements [post]
func (h *ledgerHandler) recordCashMovement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RecordCashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	movementID, err := h.ledgerService.RecordCashMovement(c.Request.Context(), req.Amount, req.CashName, domain.CashMovementType(req.Type))
	if err != nil {
		logger.Error("Failed to record cash movement", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record movement"})
		return
	}

	c.JSON(http.StatusCreated, dto.CashMovementResponse{MovementID: movementID})
}

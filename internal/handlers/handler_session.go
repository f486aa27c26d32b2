package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hisabat/pos_backend/internal/apperrors"
	"github.com/hisabat/pos_backend/internal/core/services"
	"github.com/hisabat/pos_backend/internal/dto"
	"github.com/hisabat/pos_backend/internal/export"
	"github.com/hisabat/pos_backend/internal/middleware"
)

// sessionHandler exposes statement sessions over REST: one session per open UI
// surface, addressed by the id returned on creation.
type sessionHandler struct {
	sessions *services.SessionManager
}

func newSessionHandler(sm *services.SessionManager) *sessionHandler {
	return &sessionHandler{sessions: sm}
}

// registerSessionRoutes registers the statement session routes.
func registerSessionRoutes(rg *gin.RouterGroup, sm *services.SessionManager) {
	h := newSessionHandler(sm)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.createSession)
		sessions.GET("/:sessionID", h.getSnapshot)
		sessions.DELETE("/:sessionID", h.closeSession)
		sessions.PUT("/:sessionID/customer", h.selectCustomer)
		sessions.PUT("/:sessionID/filters", h.setFilters)
		sessions.DELETE("/:sessionID/filters", h.clearFilters)
		sessions.POST("/:sessionID/refresh", h.refresh)
		sessions.POST("/:sessionID/cancel", h.cancel)
		sessions.POST("/:sessionID/next-page", h.loadNextPage)
		sessions.POST("/:sessionID/payments", h.recordPayment)
		sessions.POST("/:sessionID/search", h.searchCustomers)
		sessions.GET("/:sessionID/export", h.exportStatement)
	}
}

func (h *sessionHandler) getSession(c *gin.Context) (*services.StatementSession, bool) {
	session, err := h.sessions.GetSession(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return nil, false
	}
	return session, true
}

// respondSnapshot is the shared success shape: every mutating session call
// returns the resulting snapshot so the client never needs a follow-up read.
func respondSnapshot(c *gin.Context, session *services.StatementSession) {
	c.JSON(http.StatusOK, session.Snapshot())
}

func respondSessionError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case errors.Is(err, apperrors.ErrInvalidOperation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCashMovementFailed):
		logger.Error("Cash movement failed after committed payment", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment recorded but cash movement failed", "paymentRecorded": true})
	default:
		logger.Error("Session operation failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session operation failed"})
	}
}

// createSession godoc
// @Summary Open a statement session
// @Description Creates a session, bootstraps the walk-in customer, loads the customer list and selects the first entry
// @Tags sessions
// @Produce json
// @Success 201 {object} dto.CreateSessionResponse
// @Failure 500 {object} map[string]string "Failed to open session"
// @Router /sessions [post]
func (h *sessionHandler) createSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	sessionID, _, err := h.sessions.CreateSession(c.Request.Context())
	if err != nil {
		logger.Error("Failed to open statement session", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session"})
		return
	}

	logger.Info("Statement session opened", slog.String("session_id", sessionID))
	c.JSON(http.StatusCreated, dto.CreateSessionResponse{SessionID: sessionID})
}

// getSnapshot godoc
// @Summary Get a session snapshot
// @Description Returns the materialized entries, balances, totals and flags of the session
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.StatementSnapshot
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID} [get]
func (h *sessionHandler) getSnapshot(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}
	respondSnapshot(c, session)
}

// closeSession godoc
// @Summary Close a statement session
// @Description Cancels pending work and removes the session
// @Tags sessions
// @Param sessionID path string true "Session ID"
// @Success 204 "Session closed"
// @Router /sessions/{sessionID} [delete]
func (h *sessionHandler) closeSession(c *gin.Context) {
	h.sessions.CloseSession(c.Param("sessionID"))
	c.Status(http.StatusNoContent)
}

// selectCustomer godoc
// @Summary Select the session's customer
// @Description Switches to the customer, clears the materialized statement and loads the first page; supersedes any in-flight load
// @Tags sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body dto.SelectCustomerRequest true "Customer to select"
// @Success 200 {object} services.StatementSnapshot
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Session or customer not found"
// @Router /sessions/{sessionID}/customer [put]
func (h *sessionHandler) selectCustomer(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	var req dto.SelectCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := session.SelectCustomer(c.Request.Context(), req.CustomerID); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// setFilters godoc
// @Summary Set the session's date range
// @Description Updates the statement period and reloads from the recomputed opening balance
// @Tags sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body dto.SetFiltersRequest true "Date bounds, either may be null"
// @Success 200 {object} services.StatementSnapshot
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID}/filters [put]
func (h *sessionHandler) setFilters(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	var req dto.SetFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := session.SetDateRange(c.Request.Context(), req.From, req.To); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// clearFilters godoc
// @Summary Clear the session's date range
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.StatementSnapshot
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID}/filters [delete]
func (h *sessionHandler) clearFilters(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	if err := session.ClearFilters(c.Request.Context()); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// refresh godoc
// @Summary Reload the session's statement
// @Description Recomputes the opening balance and reloads the first page
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.StatementSnapshot
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "No customer selected"
// @Router /sessions/{sessionID}/refresh [post]
func (h *sessionHandler) refresh(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	if err := session.Refresh(c.Request.Context()); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// cancel godoc
// @Summary Cancel the session's in-flight work
// @Description Aborts the in-flight page load and any pending search without closing the session
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.StatementSnapshot
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID}/cancel [post]
func (h *sessionHandler) cancel(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	session.Cancel()
	respondSnapshot(c, session)
}

// loadNextPage godoc
// @Summary Load the session's next statement page
// @Description Appends the next page, continuing the running balance; a no-op when there is no further page or a load is in flight
// @Tags sessions
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} services.StatementSnapshot
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID}/next-page [post]
func (h *sessionHandler) loadNextPage(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	if err := session.LoadNextPage(c.Request.Context()); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// recordPayment godoc
// @Summary Record a payment through the session
// @Description Validates and posts a payment for the selected customer, mirrors cash payments into the drawer and reloads the statement
// @Tags sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body dto.RecordPaymentRequest true "Payment details"
// @Success 200 {object} services.StatementSnapshot
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Payment not allowed in the session's current state"
// @Failure 500 {object} map[string]string "Payment or cash movement failed"
// @Router /sessions/{sessionID}/payments [post]
func (h *sessionHandler) recordPayment(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := session.RecordPayment(c.Request.Context(), req.Amount, req.PaymentMethod, req.ReferenceNumber); err != nil {
		respondSessionError(c, err)
		return
	}
	respondSnapshot(c, session)
}

// searchCustomers godoc
// @Summary Feed the session's debounced customer search
// @Description Restarts the debounce delay; only the last pending search executes. Returns immediately with the current snapshot
// @Tags sessions
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body dto.SearchCustomersRequest true "Search term"
// @Success 202 {object} services.StatementSnapshot
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{sessionID}/search [post]
func (h *sessionHandler) searchCustomers(c *gin.Context) {
	session, ok := h.getSession(c)
	if !ok {
		return
	}

	var req dto.SearchCustomersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	session.SearchCustomers(req.Term)
	c.JSON(http.StatusAccepted, session.Snapshot())
}

// exportStatement godoc
// @Summary Export the session's statement
// @Description Streams the materialized statement as CSV or an XLSX workbook
// @Tags sessions
// @Produce octet-stream
// @Param sessionID path string true "Session ID"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file "Statement document"
// @Failure 400 {object} map[string]string "Unknown format"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Export failed"
// @Router /sessions/{sessionID}/export [get]
func (h *sessionHandler) exportStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	session, ok := h.getSession(c)
	if !ok {
		return
	}

	snapshot := session.Snapshot()
	filename := "statement-" + time.Now().Format("20060102")

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))
		c.Header("Content-Type", "text/csv")
		if err := export.WriteCSV(c.Writer, snapshot); err != nil {
			logger.Error("Failed to export statement CSV", slog.String("error", err.Error()))
		}
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteXLSX(c.Writer, snapshot); err != nil {
			logger.Error("Failed to export statement workbook", slog.String("error", err.Error()))
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown format; use csv or xlsx"})
	}
}

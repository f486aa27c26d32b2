package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/hisabat/pos_backend/internal/core/ports/services"
	"github.com/hisabat/pos_backend/internal/core/services"
)

// RegisterRoutes wires every API route group onto the given router group.
func RegisterRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade, sessionManager *services.SessionManager) {
	registerCustomerRoutes(rg, ledgerService)
	registerLedgerRoutes(rg, ledgerService)
	registerSessionRoutes(rg, sessionManager)
}

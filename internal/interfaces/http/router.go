package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/application/request"
	"github.com/jhoicas/relief-inventory/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger        *inventory.LedgerUseCase
	Transfers     *inventory.TransferUseCase
	History       *inventory.HistoryUseCase
	Import        *inventory.ImportUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Summary       *inventory.SummaryUseCase
	Workflow      *request.WorkflowUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	adminOnly := RequireRole(jwt.RoleAdmin)
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleShelterStaff)

	// Stock
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.Transfers, deps.History, deps.Import, deps.Replenishment, deps.Summary)
	stock.Post("/initialize", adminOnly, stockHandler.Initialize)
	stock.Post("/receive", adminOnly, stockHandler.Receive)
	stock.Post("/adjust", adminOnly, stockHandler.Adjust)
	stock.Post("/transfer", adminOnly, stockHandler.Transfer)
	stock.Post("/import", adminOnly, stockHandler.Import)
	stock.Post("/dispense", anyRole, stockHandler.Dispense)
	stock.Get("/", anyRole, stockHandler.List)
	stock.Get("/replenishment", anyRole, stockHandler.GetReplenishmentList)
	stock.Get("/summary", anyRole, stockHandler.Summary)
	stock.Get("/:id", anyRole, stockHandler.GetByID)
	stock.Get("/:id/reconcile", anyRole, stockHandler.Reconcile)
	stock.Post("/:id/hide", adminOnly, stockHandler.Hide)
	stock.Put("/:id/thresholds", adminOnly, stockHandler.UpdateThresholds)

	// Historial
	movementHandler := NewMovementHandler(deps.History)
	api.Get("/movements", anyRole, movementHandler.List)

	// Solicitudes
	requests := api.Group("/requests")
	requestHandler := NewRequestHandler(deps.Workflow)
	requests.Post("/", anyRole, requestHandler.Submit)
	requests.Get("/", anyRole, requestHandler.List)
	requests.Get("/:id", anyRole, requestHandler.GetByID)
	requests.Get("/:id/slip", anyRole, requestHandler.DispatchSlip)
	requests.Patch("/:id", adminOnly, requestHandler.Review)
}

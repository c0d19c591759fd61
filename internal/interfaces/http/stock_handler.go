package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// StockHandler maneja el ledger de stock: altas, recepciones, entregas, ajustes y traslados.
type StockHandler struct {
	ledger        *inventory.LedgerUseCase
	transfers     *inventory.TransferUseCase
	history       *inventory.HistoryUseCase
	importer      *inventory.ImportUseCase
	replenishment *inventory.ReplenishmentUseCase
	summary       *inventory.SummaryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(
	ledger *inventory.LedgerUseCase,
	transfers *inventory.TransferUseCase,
	history *inventory.HistoryUseCase,
	importer *inventory.ImportUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	summary *inventory.SummaryUseCase,
) *StockHandler {
	return &StockHandler{
		ledger:        ledger,
		transfers:     transfers,
		history:       history,
		importer:      importer,
		replenishment: replenishment,
		summary:       summary,
	}
}

// locationFromQuery lee location_type y location_id del query string.
func locationFromQuery(c *fiber.Ctx) entity.Location {
	return entity.Location{Type: c.Query("location_type"), ID: c.Query("location_id")}
}

// Initialize godoc
// @Summary      Crear fila de stock
// @Description  Crea la fila (ítem, ubicación) con sus umbrales. Con cantidad inicial registra una recepción.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InitializeStockRequest  true  "ítem, ubicación, cantidad inicial y umbrales"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/initialize [post]
func (h *StockHandler) Initialize(c *fiber.Ctx) error {
	var in dto.InitializeStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.Initialize(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Receive godoc
// @Summary      Recibir donación o compra
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "stock_id o item_name, cantidad, ubicación, proveedor"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.transfers.Receive(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Dispense godoc
// @Summary      Entregar a beneficiarios
// @Description  El personal de albergue solo puede entregar desde su propio albergue.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DispenseRequest  true  "stock_id o item_name, cantidad, ubicación, destinatario"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/dispense [post]
func (h *StockHandler) Dispense(c *fiber.Ctx) error {
	var in dto.DispenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !isAdmin(c) && (in.Location.Type != entity.LocationShelter || !canAccessShelter(c, in.Location.ID)) {
		return forbidden(c, "solo puede entregar desde su albergue")
	}
	out, err := h.transfers.Dispense(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Adjust godoc
// @Summary      Ajustar saldo a un conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "stock_id, nueva cantidad y motivo"
// @Success      200   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.AdjustTo(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Trasladar entre ubicaciones
// @Description  Atómico: descuenta el origen, suma el destino y registra dos movimientos con el mismo transaction_id.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "stock_id o item_name, cantidad, origen y destino"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.transfers.Transfer(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Import godoc
// @Summary      Importar filas de stock
// @Description  Cada fila se procesa por separado (alta o recepción); el resultado detalla éxito o fallo por fila.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportRequest  true  "filas ya validadas"
// @Success      200   {object}  dto.ImportResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/import [post]
func (h *StockHandler) Import(c *fiber.Ctx) error {
	var in dto.ImportRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.importer.Import(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Hide godoc
// @Summary      Ocultar fila agotada
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la fila"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/hide [post]
func (h *StockHandler) Hide(c *fiber.Ctx) error {
	out, err := h.ledger.Hide(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateThresholds godoc
// @Summary      Actualizar umbrales
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID de la fila"
// @Param        body  body  dto.UpdateThresholdsRequest  true  "mínimo y nivel crítico"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/thresholds [put]
func (h *StockHandler) UpdateThresholds(c *fiber.Ctx) error {
	var in dto.UpdateThresholdsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.ledger.UpdateThresholds(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar stock de una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location_type  query  string  true   "provincial | shelter"
// @Param        location_id    query  string  true   "ID de la ubicación"
// @Param        status         query  string  false  "sufficient | low | critical | outOfStock"
// @Param        category       query  string  false  "categoría"
// @Param        limit          query  int     false  "máx. 100"
// @Param        offset         query  int     false  "desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	filter := entity.StockFilter{
		Category:      c.Query("category"),
		Status:        entity.StockStatus(c.Query("status")),
		IncludeHidden: c.QueryBool("include_hidden"),
		Limit:         c.QueryInt("limit"),
		Offset:        c.QueryInt("offset"),
	}
	switch filter.Status {
	case "", entity.StockSufficient, entity.StockLow, entity.StockCritical, entity.StockOutOfStock:
	default:
		return writeError(c, domain.ErrInvalidInput)
	}
	out, err := h.ledger.ListByLocation(c.UserContext(), locationFromQuery(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener fila de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la fila"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.ledger.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Reconstruir saldo desde el historial
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la fila"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/reconcile [get]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	out, err := h.history.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Filas bajo su mínimo con la cantidad sugerida de pedido, de la más urgente a la menos urgente.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location_type  query  string  true  "provincial | shelter"
// @Param        location_id    query  string  true  "ID de la ubicación"
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/replenishment [get]
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.List(c.UserContext(), locationFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Summary godoc
// @Summary      Resumen por categoría de una ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        location_type  query  string  true  "provincial | shelter"
// @Param        location_id    query  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.LocationSummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	out, err := h.summary.ByLocation(c.UserContext(), locationFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

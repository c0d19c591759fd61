package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/relief-inventory/internal/application/inventory"
	"github.com/jhoicas/relief-inventory/internal/domain"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// MovementHandler consulta el historial de movimientos (solo lectura).
type MovementHandler struct {
	history *inventory.HistoryUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(history *inventory.HistoryUseCase) *MovementHandler {
	return &MovementHandler{history: history}
}

// List godoc
// @Summary      Historial de movimientos
// @Description  Más reciente primero. type admite varios valores separados por coma.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        stock_id       query  string  false  "fila de stock"
// @Param        location_type  query  string  false  "provincial | shelter"
// @Param        location_id    query  string  false  "ID de la ubicación"
// @Param        type           query  string  false  "receive,transfer,dispense,adjust"
// @Param        from           query  string  false  "RFC3339"
// @Param        to             query  string  false  "RFC3339"
// @Param        limit          query  int     false  "máx. 100"
// @Param        offset         query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	filter := entity.MovementFilter{
		StockID: c.Query("stock_id"),
		Limit:   c.QueryInt("limit"),
		Offset:  c.QueryInt("offset"),
	}
	if loc := locationFromQuery(c); loc.Type != "" || loc.ID != "" {
		if !loc.Valid() {
			return writeError(c, domain.ErrInvalidInput)
		}
		filter.Location = &loc
	}
	if raw := c.Query("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			switch t {
			case entity.MovementReceive, entity.MovementTransfer, entity.MovementDispense, entity.MovementAdjust:
				filter.Types = append(filter.Types, t)
			default:
				return writeError(c, domain.ErrInvalidInput)
			}
		}
	}
	var err error
	if filter.From, err = timeQuery(c, "from"); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = timeQuery(c, "to"); err != nil {
		return writeError(c, err)
	}

	out, err := h.history.Query(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

func timeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &t, nil
}

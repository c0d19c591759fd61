package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain"
)

// statusByKind traduce el código estable del dominio a status HTTP.
var statusByKind = map[string]int{
	"VALIDATION":         fiber.StatusBadRequest,
	"INVALID_QUANTITY":   fiber.StatusBadRequest,
	"INVALID_THRESHOLDS": fiber.StatusBadRequest,
	"SAME_LOCATION":      fiber.StatusBadRequest,
	"EMPTY_REQUEST":      fiber.StatusBadRequest,
	"MISSING_REASON":     fiber.StatusBadRequest,
	"MISSING_NOTES":      fiber.StatusBadRequest,
	"NOT_FOUND":          fiber.StatusNotFound,
	"INSUFFICIENT_STOCK": fiber.StatusConflict,
	"DUPLICATE_STOCK":    fiber.StatusConflict,
	"NOT_PENDING":        fiber.StatusConflict,
	"APPROVAL_FAILED":    fiber.StatusConflict,
	"BUSY":               fiber.StatusServiceUnavailable,
	"UNAUTHORIZED":       fiber.StatusUnauthorized,
	"FORBIDDEN":          fiber.StatusForbidden,
}

// insufficientDetails payload de un error de stock insuficiente.
type insufficientDetails struct {
	StockID   string `json:"stock_id,omitempty"`
	ItemName  string `json:"item_name"`
	Location  string `json:"location"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
	Shortfall int64  `json:"shortfall"`
}

// writeError responde con el ErrorResponse correspondiente al error de dominio.
func writeError(c *fiber.Ctx, err error) error {
	kind := domain.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
	resp := dto.ErrorResponse{Code: kind, Message: err.Error()}

	var approval *domain.ApprovalError
	var short *domain.InsufficientStockError
	switch {
	case errors.As(err, &approval):
		resp.Details = approvalLines(approval)
	case errors.As(err, &short):
		resp.Details = insufficientDetails{
			StockID:   short.StockID,
			ItemName:  short.ItemName,
			Location:  short.Location,
			Available: short.Available,
			Requested: short.Requested,
			Shortfall: short.Shortfall(),
		}
	}
	return c.Status(status).JSON(resp)
}

func approvalLines(e *domain.ApprovalError) []dto.ApprovalLineDTO {
	lines := make([]dto.ApprovalLineDTO, 0, len(e.Lines))
	for _, l := range e.Lines {
		line := dto.ApprovalLineDTO{
			Line:     l.Line + 1,
			StockID:  l.StockID,
			ItemName: l.ItemName,
			Code:     domain.Kind(l.Err),
			Message:  l.Err.Error(),
		}
		var short *domain.InsufficientStockError
		if errors.As(l.Err, &short) {
			available, requested, shortfall := short.Available, short.Requested, short.Shortfall()
			line.Available = &available
			line.Requested = &requested
			line.Shortfall = &shortfall
		}
		lines = append(lines, line)
	}
	return lines
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func forbidden(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: msg})
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrDuplicateStock    = errors.New("ya existe stock para el ítem en esa ubicación")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInvalidThresholds = errors.New("umbrales inválidos")
	ErrSameLocation      = errors.New("origen y destino son la misma ubicación")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrEmptyRequest      = errors.New("la solicitud no tiene ítems")
	ErrMissingReason     = errors.New("cada ítem requiere un motivo")
	ErrMissingNotes      = errors.New("el rechazo requiere notas del administrador")
	ErrNotPending        = errors.New("la solicitud ya fue revisada")
	ErrBusy              = errors.New("recurso ocupado, reintente")
)

// InsufficientStockError lleva la cantidad disponible al momento de la validación.
type InsufficientStockError struct {
	StockID   string
	ItemName  string
	Location  string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente de %q en %s: disponible %d, solicitado %d",
		e.ItemName, e.Location, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Shortfall devuelve cuánto falta para cubrir lo solicitado.
func (e *InsufficientStockError) Shortfall() int64 { return e.Requested - e.Available }

// LineError describe el fallo de una línea concreta de una solicitud.
type LineError struct {
	Line     int // índice base 0 dentro de Request.Items
	StockID  string
	ItemName string
	Err      error
}

func (e LineError) Error() string {
	return fmt.Sprintf("línea %d (%s): %v", e.Line+1, e.ItemName, e.Err)
}

// ApprovalError agrupa todas las líneas que impiden aprobar una solicitud.
// La solicitud permanece pendiente y ningún stock fue modificado.
type ApprovalError struct {
	RequestNumber string
	Lines         []LineError
}

func (e *ApprovalError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, l.Error())
	}
	return fmt.Sprintf("no se puede aprobar %s: %s", e.RequestNumber, strings.Join(parts, "; "))
}

// Unwrap permite errors.Is/As sobre cada línea (p. ej. ErrInsufficientStock).
func (e *ApprovalError) Unwrap() []error {
	errs := make([]error, 0, len(e.Lines))
	for _, l := range e.Lines {
		errs = append(errs, l.Err)
	}
	return errs
}

// Kind devuelve el código estable del error para la capa de transporte.
func Kind(err error) string {
	var approval *ApprovalError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &approval):
		return "APPROVAL_FAILED"
	case errors.Is(err, ErrInsufficientStock):
		return "INSUFFICIENT_STOCK"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrDuplicateStock):
		return "DUPLICATE_STOCK"
	case errors.Is(err, ErrInvalidQuantity):
		return "INVALID_QUANTITY"
	case errors.Is(err, ErrInvalidThresholds):
		return "INVALID_THRESHOLDS"
	case errors.Is(err, ErrSameLocation):
		return "SAME_LOCATION"
	case errors.Is(err, ErrEmptyRequest):
		return "EMPTY_REQUEST"
	case errors.Is(err, ErrMissingReason):
		return "MISSING_REASON"
	case errors.Is(err, ErrMissingNotes):
		return "MISSING_NOTES"
	case errors.Is(err, ErrNotPending):
		return "NOT_PENDING"
	case errors.Is(err, ErrBusy):
		return "BUSY"
	case errors.Is(err, ErrInvalidInput):
		return "VALIDATION"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}

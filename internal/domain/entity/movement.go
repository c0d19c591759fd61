package entity

import "time"

// Tipos de movimiento.
const (
	MovementReceive  = "receive"
	MovementTransfer = "transfer"
	MovementDispense = "dispense"
	MovementAdjust   = "adjust"
)

// Dirección del movimiento respecto de la fila de stock referenciada.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Movement registro inmutable de un evento que afecta un saldo.
// Quantity es siempre la magnitud (> 0); el signo lo da Direction.
type Movement struct {
	ID            string
	TransactionID string // compartido por las dos filas de un traslado
	Type          string
	Direction     string
	StockID       string
	ItemName      string
	Quantity      int64
	Unit          string
	From          *Endpoint
	To            *Endpoint
	PerformedBy   string
	PerformedAt   time.Time
	ReferenceID   string
	Notes         string
}

// Signed devuelve la cantidad con signo aplicada al saldo.
func (m *Movement) Signed() int64 {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

// MovementFilter criterios de consulta del historial.
type MovementFilter struct {
	StockID  string
	Location *Location
	Types    []string
	From     *time.Time
	To       *time.Time

	// Before cursor: solo movimientos estrictamente anteriores a (PerformedAt, ID).
	Before *MovementCursor
	Limit  int
	Offset int
}

// MovementCursor posición en el orden del historial (performed_at DESC, id DESC).
type MovementCursor struct {
	PerformedAt time.Time
	ID          string
}

// CursorOf posición del movimiento m.
func CursorOf(m *Movement) *MovementCursor {
	return &MovementCursor{PerformedAt: m.PerformedAt, ID: m.ID}
}

// After indica si m va después del cursor en el orden del historial, es decir, si es más antiguo.
func (c *MovementCursor) After(m *Movement) bool {
	if !m.PerformedAt.Equal(c.PerformedAt) {
		return m.PerformedAt.Before(c.PerformedAt)
	}
	return m.ID < c.ID
}

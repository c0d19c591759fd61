package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados del stock (calculados en cada lectura, nunca persistidos).
type StockStatus string

const (
	StockSufficient StockStatus = "sufficient"
	StockLow        StockStatus = "low"
	StockCritical   StockStatus = "critical"
	StockOutOfStock StockStatus = "outOfStock"
)

// Stock representa el saldo de un ítem en una ubicación (una fila por ítem+ubicación).
type Stock struct {
	ID            string
	ItemID        string // id del catálogo externo; puede ir vacío
	ItemKey       string // nombre normalizado, identidad del ítem dentro del ledger
	ItemName      string
	Category      string
	Unit          string
	Location      Location
	Quantity      int64
	MinStockLevel int64
	CriticalLevel int64
	Hidden        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key devuelve la clave natural (ítem, ubicación) de la fila.
func (s *Stock) Key() StockKey {
	return StockKey{Location: s.Location, ItemKey: s.ItemKey}
}

// StockKey clave natural de una fila de stock.
type StockKey struct {
	Location Location
	ItemKey  string
}

// LockKey nombre del bloqueo exclusivo de la fila; el orden lexicográfico es el orden global.
func (k StockKey) LockKey() LockKey {
	return LockKey("stock:" + k.Location.Type + ":" + k.Location.ID + ":" + k.ItemKey)
}

// LockKey identifica un recurso bloqueable dentro de una transacción del ledger.
type LockKey string

// RequestLockKey bloqueo de la fila de una solicitud.
func RequestLockKey(requestID string) LockKey {
	return LockKey("request:" + requestID)
}

// StockFilter criterios de listado por ubicación.
type StockFilter struct {
	Category      string
	Status        StockStatus // vacío = todos
	IncludeHidden bool
	Limit         int
	Offset        int
}

// CategoryTotals conteo por estado de las filas visibles de una categoría en una ubicación.
type CategoryTotals struct {
	Category      string
	Items         int
	TotalQuantity int64
	Sufficient    int
	Low           int
	Critical      int
	OutOfStock    int
	FillPct       decimal.Decimal // % de filas suficientes, dos decimales
}

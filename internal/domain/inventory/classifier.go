package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// Classify mapea un saldo y sus umbrales a un estado (servicio de dominio puro).
// En los límites gana la banda más severa: quantity == criticalLevel es critical,
// quantity == minStockLevel es low.
func Classify(quantity, minStockLevel, criticalLevel int64) entity.StockStatus {
	switch {
	case quantity <= 0:
		return entity.StockOutOfStock
	case quantity <= criticalLevel:
		return entity.StockCritical
	case quantity <= minStockLevel:
		return entity.StockLow
	default:
		return entity.StockSufficient
	}
}

// ClassifyStock aplica Classify sobre una fila.
func ClassifyStock(s *entity.Stock) entity.StockStatus {
	return Classify(s.Quantity, s.MinStockLevel, s.CriticalLevel)
}

// Severity ordena los estados de más a menos urgente (0 = sin stock).
func Severity(s entity.StockStatus) int {
	switch s {
	case entity.StockOutOfStock:
		return 0
	case entity.StockCritical:
		return 1
	case entity.StockLow:
		return 2
	default:
		return 3
	}
}

// ValidThresholds verifica 0 <= criticalLevel <= minStockLevel.
func ValidThresholds(minStockLevel, criticalLevel int64) bool {
	return minStockLevel >= 0 && criticalLevel >= 0 && criticalLevel <= minStockLevel
}

// FillPct porcentaje de filas suficientes sobre el total, redondeado a dos decimales.
func FillPct(sufficient, items int) decimal.Decimal {
	if items <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(sufficient)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(items))).
		Round(2)
}

// Tally suma una fila a los totales de su categoría.
func Tally(t *entity.CategoryTotals, s *entity.Stock) {
	t.Items++
	t.TotalQuantity += s.Quantity
	switch ClassifyStock(s) {
	case entity.StockSufficient:
		t.Sufficient++
	case entity.StockLow:
		t.Low++
	case entity.StockCritical:
		t.Critical++
	default:
		t.OutOfStock++
	}
}

package dto

import "github.com/shopspring/decimal"

// ReplenishmentSuggestionDTO fila bajo su mínimo con la cantidad sugerida de reposición.
type ReplenishmentSuggestionDTO struct {
	StockID           string          `json:"stock_id"`
	ItemName          string          `json:"item_name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	Status            string          `json:"status"`
	CurrentStock      int64           `json:"current_stock"`
	MinStockLevel     int64           `json:"min_stock_level"`
	CriticalLevel     int64           `json:"critical_level"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // MinStockLevel * 1.5
	SuggestedOrderQty int64           `json:"suggested_order_qty"` // ceil(IdealStock) - CurrentStock
	ProvincialStock   *int64          `json:"provincial_stock,omitempty"`
	Priority          int             `json:"priority"` // 1 = más urgente
}

// CategorySummaryDTO desglose por categoría de una ubicación.
type CategorySummaryDTO struct {
	Category      string          `json:"category"`
	Items         int             `json:"items"`
	TotalQuantity int64           `json:"total_quantity"`
	Sufficient    int             `json:"sufficient"`
	Low           int             `json:"low"`
	Critical      int             `json:"critical"`
	OutOfStock    int             `json:"out_of_stock"`
	FillPct       decimal.Decimal `json:"fill_pct"` // % de ítems en estado suficiente
}

// LocationSummaryDTO resumen de una ubicación.
type LocationSummaryDTO struct {
	Location   LocationDTO          `json:"location"`
	Items      int                  `json:"items"`
	Alerts     int                  `json:"alerts"` // low + critical + outOfStock
	Categories []CategorySummaryDTO `json:"categories"`
}

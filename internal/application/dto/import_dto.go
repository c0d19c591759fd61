package dto

// ImportRow fila ya validada por el parser externo (Excel/JSON).
type ImportRow struct {
	ItemID        string      `json:"item_id,omitempty"`
	ItemName      string      `json:"item_name"`
	Category      string      `json:"category"`
	Unit          string      `json:"unit"`
	Quantity      int64       `json:"quantity"`
	MinStockLevel int64       `json:"min_stock_level"`
	CriticalLevel int64       `json:"critical_level"`
	Location      LocationDTO `json:"location"`
	Supplier      string      `json:"supplier,omitempty"`
	ReferenceID   string      `json:"reference_id,omitempty"`
}

// ImportRequest body para POST /api/stock/import.
type ImportRequest struct {
	Rows []ImportRow `json:"rows"`
}

// ImportRowResult resultado por fila: cada fila es independiente.
type ImportRowResult struct {
	Row     int    `json:"row"`
	Action  string `json:"action"` // initialize | receive | skip
	StockID string `json:"stock_id,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// ImportResponse conteos y detalle del lote.
type ImportResponse struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Rows      []ImportRowResult `json:"rows"`
}

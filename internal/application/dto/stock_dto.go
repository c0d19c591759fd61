package dto

import "time"

// InitializeStockRequest body para POST /api/stock/initialize.
type InitializeStockRequest struct {
	ItemID          string      `json:"item_id,omitempty"`
	ItemName        string      `json:"item_name"`
	Category        string      `json:"category"`
	Unit            string      `json:"unit"`
	InitialQuantity int64       `json:"initial_quantity"`
	MinStockLevel   int64       `json:"min_stock_level"`
	CriticalLevel   int64       `json:"critical_level"`
	Location        LocationDTO `json:"location"`
	Supplier        string      `json:"supplier,omitempty"`
	ReferenceID     string      `json:"reference_id,omitempty"`
	Notes           string      `json:"notes,omitempty"`
}

// ReceiveRequest body para POST /api/stock/receive. Si la fila no existe se crea con
// ItemName/Category/Unit y los umbrales por defecto.
type ReceiveRequest struct {
	StockID     string      `json:"stock_id,omitempty"`
	ItemName    string      `json:"item_name,omitempty"`
	Category    string      `json:"category,omitempty"`
	Unit        string      `json:"unit,omitempty"`
	Quantity    int64       `json:"quantity"`
	Location    LocationDTO `json:"location"`
	Supplier    string      `json:"supplier,omitempty"`
	ReferenceID string      `json:"reference_id,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// DispenseRequest body para POST /api/stock/dispense.
type DispenseRequest struct {
	StockID     string      `json:"stock_id,omitempty"`
	ItemName    string      `json:"item_name,omitempty"`
	Quantity    int64       `json:"quantity"`
	Location    LocationDTO `json:"location"`
	Recipient   string      `json:"recipient,omitempty"`
	ReferenceID string      `json:"reference_id,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// AdjustRequest body para POST /api/stock/adjust.
type AdjustRequest struct {
	StockID     string `json:"stock_id"`
	NewQuantity int64  `json:"new_quantity"`
	Reason      string `json:"reason"`
}

// TransferRequest body para POST /api/stock/transfer. StockID (fila origen) o ItemName.
type TransferRequest struct {
	StockID     string      `json:"stock_id,omitempty"`
	ItemName    string      `json:"item_name,omitempty"`
	Quantity    int64       `json:"quantity"`
	From        LocationDTO `json:"from"`
	To          LocationDTO `json:"to"`
	ReferenceID string      `json:"reference_id,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// UpdateThresholdsRequest body para PUT /api/stock/:id/thresholds.
type UpdateThresholdsRequest struct {
	MinStockLevel int64 `json:"min_stock_level"`
	CriticalLevel int64 `json:"critical_level"`
}

// StockResponse vista de una fila de stock con su estado calculado en la lectura.
type StockResponse struct {
	ID            string      `json:"id"`
	ItemID        string      `json:"item_id,omitempty"`
	ItemName      string      `json:"item_name"`
	Category      string      `json:"category"`
	Unit          string      `json:"unit"`
	Location      LocationDTO `json:"location"`
	Quantity      int64       `json:"quantity"`
	MinStockLevel int64       `json:"min_stock_level"`
	CriticalLevel int64       `json:"critical_level"`
	Status        string      `json:"status"`
	Hidden        bool        `json:"hidden,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// StockListResponse lista paginada de stock.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// StockMutationResponse respuesta de receive/dispense/adjust/initialize.
type StockMutationResponse struct {
	Stock    StockResponse     `json:"stock"`
	Movement *MovementResponse `json:"movement,omitempty"`
}

// TransferResponse respuesta de un traslado: ambas filas y el par de movimientos.
type TransferResponse struct {
	From         StockResponse    `json:"from"`
	To           StockResponse    `json:"to"`
	FromMovement MovementResponse `json:"from_movement"`
	ToMovement   MovementResponse `json:"to_movement"`
}

// ReconcileResponse resultado de reconstruir un saldo desde el log de movimientos.
type ReconcileResponse struct {
	StockID    string `json:"stock_id"`
	Quantity   int64  `json:"quantity"`
	LedgerSum  int64  `json:"ledger_sum"`
	Movements  int    `json:"movements"`
	Consistent bool   `json:"consistent"`
}

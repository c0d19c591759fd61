package dto

import "time"

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID            string       `json:"id"`
	TransactionID string       `json:"transaction_id"`
	Type          string       `json:"movement_type"`
	Direction     string       `json:"direction"`
	StockID       string       `json:"stock_id"`
	ItemName      string       `json:"item_name"`
	Quantity      int64        `json:"quantity"`
	Unit          string       `json:"unit"`
	From          *EndpointDTO `json:"from,omitempty"`
	To            *EndpointDTO `json:"to,omitempty"`
	PerformedBy   string       `json:"performed_by"`
	PerformedAt   time.Time    `json:"performed_at"`
	ReferenceID   string       `json:"reference_id,omitempty"`
	Notes         string       `json:"notes,omitempty"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

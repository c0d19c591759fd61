package dto

import "time"

// RequestItemDTO línea de una solicitud.
type RequestItemDTO struct {
	StockID           string `json:"stock_id"`
	ItemName          string `json:"item_name"`
	RequestedQuantity int64  `json:"requested_quantity"`
	Unit              string `json:"unit"`
	Reason            string `json:"reason"`
}

// SubmitRequestRequest body para POST /api/requests.
type SubmitRequestRequest struct {
	ShelterID string           `json:"shelter_id"`
	Urgency   string           `json:"urgency"`
	Items     []RequestItemDTO `json:"items"`
}

// ReviewRequestRequest body para PATCH /api/requests/:id.
type ReviewRequestRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// RequestResponse salida de una solicitud.
type RequestResponse struct {
	ID            string           `json:"id"`
	RequestNumber string           `json:"request_number"`
	ShelterID     string           `json:"shelter_id"`
	RequestedBy   string           `json:"requested_by"`
	Urgency       string           `json:"urgency"`
	Items         []RequestItemDTO `json:"items"`
	Status        string           `json:"status"`
	ReviewedBy    string           `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	AdminNotes    string           `json:"admin_notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// RequestListResponse lista paginada de solicitudes.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ApprovalLineDTO detalle de una línea que impidió aprobar.
type ApprovalLineDTO struct {
	Line      int    `json:"line"`
	StockID   string `json:"stock_id,omitempty"`
	ItemName  string `json:"item_name"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Available *int64 `json:"available,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
	Shortfall *int64 `json:"shortfall,omitempty"`
}

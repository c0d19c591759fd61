package request

import (
	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
)

// ToRequestResponse convierte la entidad a su DTO.
func ToRequestResponse(r *entity.Request) dto.RequestResponse {
	items := make([]dto.RequestItemDTO, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, dto.RequestItemDTO{
			StockID:           it.StockID,
			ItemName:          it.ItemName,
			RequestedQuantity: it.RequestedQuantity,
			Unit:              it.Unit,
			Reason:            it.Reason,
		})
	}
	return dto.RequestResponse{
		ID:            r.ID,
		RequestNumber: r.RequestNumber,
		ShelterID:     r.ShelterID,
		RequestedBy:   r.RequestedBy,
		Urgency:       r.Urgency,
		Items:         items,
		Status:        r.Status,
		ReviewedBy:    r.ReviewedBy,
		ReviewedAt:    r.ReviewedAt,
		AdminNotes:    r.AdminNotes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

package inventory

import (
	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/inventory"
)

// ToStockResponse arma la vista con el estado calculado en este momento.
func ToStockResponse(s *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		ID:            s.ID,
		ItemID:        s.ItemID,
		ItemName:      s.ItemName,
		Category:      s.Category,
		Unit:          s.Unit,
		Location:      toLocationDTO(s.Location),
		Quantity:      s.Quantity,
		MinStockLevel: s.MinStockLevel,
		CriticalLevel: s.CriticalLevel,
		Status:        string(inventory.ClassifyStock(s)),
		Hidden:        s.Hidden,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ToMovementResponse convierte un movimiento a su DTO.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Type:          m.Type,
		Direction:     m.Direction,
		StockID:       m.StockID,
		ItemName:      m.ItemName,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		From:          toEndpointDTO(m.From),
		To:            toEndpointDTO(m.To),
		PerformedBy:   m.PerformedBy,
		PerformedAt:   m.PerformedAt,
		ReferenceID:   m.ReferenceID,
		Notes:         m.Notes,
	}
}

// ToLocation convierte el DTO de ubicación a entidad.
func ToLocation(l dto.LocationDTO) entity.Location {
	return entity.Location{Type: l.Type, ID: l.ID}
}

func toLocationDTO(l entity.Location) dto.LocationDTO {
	return dto.LocationDTO{Type: l.Type, ID: l.ID}
}

func toEndpointDTO(e *entity.Endpoint) *dto.EndpointDTO {
	if e == nil {
		return nil
	}
	return &dto.EndpointDTO{Type: e.Type, Name: e.Name}
}

func movementPtr(m *entity.Movement) *dto.MovementResponse {
	if m == nil {
		return nil
	}
	r := ToMovementResponse(m)
	return &r
}

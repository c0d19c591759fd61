package inventory

import (
	"context"

	"github.com/jhoicas/relief-inventory/internal/application/dto"
	"github.com/jhoicas/relief-inventory/internal/domain/entity"
	"github.com/jhoicas/relief-inventory/internal/domain/repository"
)

// SummaryUseCase resumen por categoría del stock de una ubicación (tablero).
type SummaryUseCase struct {
	stockRepo repository.StockRepository
	locations *Locations
}

// NewSummaryUseCase construye el caso de uso.
func NewSummaryUseCase(stockRepo repository.StockRepository, locations *Locations) *SummaryUseCase {
	return &SummaryUseCase{stockRepo: stockRepo, locations: locations}
}

// ByLocation cuenta filas por estado y categoría. FillPct es el porcentaje de filas en
// estado suficiente, redondeado a dos decimales.
func (uc *SummaryUseCase) ByLocation(ctx context.Context, loc entity.Location) (*dto.LocationSummaryDTO, error) {
	if _, err := uc.locations.Resolve(ctx, loc); err != nil {
		return nil, err
	}
	totals, err := uc.stockRepo.SummarizeByCategory(ctx, loc)
	if err != nil {
		return nil, err
	}

	out := &dto.LocationSummaryDTO{
		Location:   toLocationDTO(loc),
		Categories: make([]dto.CategorySummaryDTO, 0, len(totals)),
	}
	for _, t := range totals {
		out.Items += t.Items
		out.Alerts += t.Low + t.Critical + t.OutOfStock
		out.Categories = append(out.Categories, dto.CategorySummaryDTO{
			Category:      t.Category,
			Items:         t.Items,
			TotalQuantity: t.TotalQuantity,
			Sufficient:    t.Sufficient,
			Low:           t.Low,
			Critical:      t.Critical,
			OutOfStock:    t.OutOfStock,
			FillPct:       t.FillPct,
		})
	}
	return out, nil
}
